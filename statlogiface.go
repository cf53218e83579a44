package spindash

import (
	"io"
	"log"
)

// Statter is the interface stats collectors implement to get counters out of
// the pipeline (records read, kept, excluded per reason, deduped).
type Statter interface {
	Count(name string, value int64, rate float64, tags ...string)
}

// NopStatter does nothing.
type NopStatter struct{}

// Count does nothing.
func (NopStatter) Count(name string, value int64, rate float64, tags ...string) {}

// Logger is the interface loggers must implement to get pipeline logs.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// NopLogger logs nothing.
type NopLogger struct{}

// Printf does nothing.
func (NopLogger) Printf(format string, v ...interface{}) {}

// Debugf does nothing.
func (NopLogger) Debugf(format string, v ...interface{}) {}

// StdLogger only prints on Printf.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger gets a StdLogger writing to w.
func NewStdLogger(w io.Writer) StdLogger {
	return StdLogger{Logger: log.New(w, "", log.LstdFlags)}
}

// Printf implements Logger.
func (s StdLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger, but prints nothing.
func (StdLogger) Debugf(format string, v ...interface{}) {}

// VerboseLogger prints on both Printf and Debugf.
type VerboseLogger struct {
	*log.Logger
}

// NewVerboseLogger gets a VerboseLogger writing to w.
func NewVerboseLogger(w io.Writer) VerboseLogger {
	return VerboseLogger{Logger: log.New(w, "", log.LstdFlags)}
}

// Printf implements Logger.
func (s VerboseLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger.
func (s VerboseLogger) Debugf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}
