package spindash

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// Result holds everything one pipeline run derives from an export.
type Result struct {
	Events      []Event
	Aggregates  *Accumulator
	Sessions    []Session
	Summary     Summary
	Diagnostics Diagnostics
}

// Runner wires the pipeline stages together: read every record from the
// Source, normalize, filter, dedupe, then aggregate and segment. A malformed
// record is logged and skipped; only a failing Source aborts the run.
type Runner struct {
	Src        Source
	Normalizer *Normalizer
	Filter     *Filter
	Gap        time.Duration

	Stats Statter
	Log   Logger
}

// NewRunner gets a Runner over the given source with default configuration.
func NewRunner(src Source) *Runner {
	return &Runner{
		Src:        src,
		Normalizer: NewNormalizer(),
		Filter:     NewFilter(),
		Gap:        SessionGap,
		Stats:      NopStatter{},
		Log:        NopLogger{},
	}
}

// Run executes the whole pipeline and returns the derived Result. It fails
// only when the source yields no usable records at all, so that a missing or
// empty export is reported loudly instead of producing empty artifacts.
func (r *Runner) Run() (*Result, error) {
	events, err := r.collect()
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.New("no play records found in input")
	}

	kept, diag := r.Filter.Run(events)
	r.Stats.Count("kept", int64(diag.Kept()), 1)
	r.Stats.Count("excluded", int64(diag.Excluded()), 1)

	deduped := Dedupe(kept)
	if n := len(kept) - len(deduped); n > 0 {
		r.Stats.Count("deduped", int64(n), 1)
		r.Log.Debugf("removed %d duplicate plays", n)
	}

	acc := Aggregate(deduped)
	sessions := Segment(deduped, r.Gap)

	return &Result{
		Events:      deduped,
		Aggregates:  acc,
		Sessions:    sessions,
		Summary:     BuildSummary(acc, sessions, diag),
		Diagnostics: diag,
	}, nil
}

// collect drains the source, normalizing as it goes.
func (r *Runner) collect() ([]Event, error) {
	var events []Event
	for {
		rec, err := r.Src.Record()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Records inside a corrupt file region are recoverable; give up
			// on the source only for errors it marks fatal.
			if IsFatal(err) {
				return nil, errors.Wrap(err, "reading source")
			}
			r.Log.Printf("skipping unreadable record: %v", err)
			continue
		}
		ev, err := r.Normalizer.Normalize(rec)
		if err != nil {
			r.Log.Printf("skipping record: %v", err)
			continue
		}
		events = append(events, ev)
		r.Stats.Count("records", 1, 1)
	}
	return events, nil
}

type fatalError struct{ error }

// Fatal marks an error as one that should abort the run instead of being
// logged and skipped. Sources use it for missing inputs.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fatalError{err}
}

// IsFatal reports whether err (or its cause) was marked with Fatal.
func IsFatal(err error) bool {
	_, ok := errors.Cause(err).(fatalError)
	return ok
}
