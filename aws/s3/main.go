package s3

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spindash/spindash"
	"github.com/spindash/spindash/output"
	"github.com/spindash/spindash/termstat"
)

// Main holds the config for the s3 command: process an export hosted in an
// S3 bucket and write the dashboard artifacts.
type Main struct {
	Bucket string `help:"S3 bucket holding the export objects."`
	Prefix string `help:"Only objects matching this prefix are read."`
	Region string `help:"AWS region of the bucket."`
	Output string `help:"Directory to write dashboard artifacts into."`

	MinMS      int64   `help:"Exclude plays shorter than this many milliseconds (0 disables)."`
	MaxMS      int64   `help:"Exclude plays longer than this many milliseconds (0 disables)."`
	ZScore     float64 `help:"Exclude plays more than this many standard deviations from the mean (0 disables)."`
	GapMinutes int     `help:"Gap in minutes separating two listening sessions."`
	TopN       int     `help:"Number of entries in ranked artifacts."`

	ExcludeArtists  []string `help:"Artist name fragments to exclude."`
	ExcludeTracks   []string `help:"Track name fragments to exclude."`
	ExcludeKeywords []string `help:"Keywords excluding a play when found in artist or track."`

	Verbose bool `help:"Enable verbose logging and live counters."`
}

// NewMain gets a Main with the default configuration.
func NewMain() *Main {
	cfg := spindash.NewFilterConfig()
	return &Main{
		Region:     "us-east-1",
		Output:     "dashboard_data",
		MinMS:      cfg.MinMS,
		MaxMS:      cfg.MaxMS,
		ZScore:     cfg.ZScore,
		GapMinutes: 30,
		TopN:       50,
	}
}

// Run processes the export under the configured bucket and prefix and writes
// every artifact.
func (m *Main) Run() error {
	if m.Bucket == "" {
		return errors.New("no bucket configured")
	}

	log := spindash.Logger(spindash.NewStdLogger(os.Stderr))
	if m.Verbose {
		log = spindash.NewVerboseLogger(os.Stderr)
	}

	src, err := NewSource(
		OptSrcBucket(m.Bucket),
		OptSrcPrefix(m.Prefix),
		OptSrcRegion(m.Region),
		OptSrcLogger(log),
	)
	if err != nil {
		return errors.Wrap(err, "getting s3 source")
	}

	runner := spindash.NewRunner(src)
	runner.Log = log
	runner.Filter.Config = spindash.FilterConfig{
		ExcludeArtists:  m.ExcludeArtists,
		ExcludeTracks:   m.ExcludeTracks,
		ExcludeKeywords: m.ExcludeKeywords,
		MinMS:           m.MinMS,
		MaxMS:           m.MaxMS,
		ZScore:          m.ZScore,
	}
	runner.Gap = time.Duration(m.GapMinutes) * time.Minute
	if m.Verbose {
		runner.Stats = termstat.NewCollector(os.Stderr)
	}

	res, err := runner.Run()
	if err != nil {
		return errors.Wrap(err, "running pipeline")
	}

	w := output.NewWriter(m.Output)
	w.TopN = m.TopN
	w.Log = log
	if err := w.WriteAll(res); err != nil {
		return errors.Wrap(err, "writing artifacts")
	}

	log.Printf("wrote artifacts for %d plays (%0.2f hours) to %s",
		res.Summary.TotalPlays, res.Summary.TotalHours, m.Output)
	return nil
}
