// Package report prints a quick terminal overview of a processed artifact
// directory. It reads the artifacts the pipeline wrote rather than the raw
// export, so it's instant even for years of history.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spindash/spindash"
	"github.com/spindash/spindash/output"
)

// Main holds the config for the summary command.
type Main struct {
	Dir string `help:"Artifact directory written by the run command."`
	Top int    `help:"Number of top artists to show."`
}

// NewMain gets a Main with default values.
func NewMain() *Main {
	return &Main{
		Dir: "dashboard_data",
		Top: 5,
	}
}

// Run prints the overview to stdout.
func (m *Main) Run() error {
	return m.write(os.Stdout)
}

func (m *Main) write(w io.Writer) error {
	var summary spindash.Summary
	if err := m.load(output.FileSummary, &summary); err != nil {
		return errors.Wrapf(err, "no summary found in %s (run the pipeline first)", m.Dir)
	}

	fmt.Fprintf(w, "listening summary (%s)\n", m.Dir)
	fmt.Fprintf(w, "  plays:   %d\n", summary.TotalPlays)
	fmt.Fprintf(w, "  hours:   %.2f (%.1f days)\n", summary.TotalHours, summary.TotalHours/24)
	fmt.Fprintf(w, "  artists: %d\n", summary.UniqueCount.Artists)
	fmt.Fprintf(w, "  tracks:  %d\n", summary.UniqueCount.Tracks)
	fmt.Fprintf(w, "  albums:  %d\n", summary.UniqueCount.Albums)
	if summary.FirstPlay != "" {
		fmt.Fprintf(w, "  range:   %s to %s (%d days)\n", summary.FirstPlay, summary.LastPlay, summary.RangeDays)
	}
	fmt.Fprintf(w, "  sessions: %d (longest %.2f hours, avg %.2f tracks)\n",
		summary.SessionCount, summary.LongestSessionHrs, summary.AvgSessionTracks)

	if kept, ok := summary.Filtering["kept"]; ok {
		var excluded int
		for name, n := range summary.Filtering {
			if name != "kept" {
				excluded += n
			}
		}
		fmt.Fprintf(w, "  filtering: %d kept, %d excluded\n", kept, excluded)
	}

	// Top artists are a nicety; a missing artifact degrades the report, it
	// doesn't fail it.
	var artists []output.EntityRow
	if err := m.load(output.FileTopArtists, &artists); err == nil && len(artists) > 0 {
		fmt.Fprintf(w, "\ntop artists\n")
		for i, a := range artists {
			if i >= m.Top {
				break
			}
			fmt.Fprintf(w, "  %d. %s (%d plays, %.2f hours)\n", i+1, a.Name, a.Plays, a.Hours)
		}
	}
	return nil
}

func (m *Main) load(name string, v interface{}) error {
	buf, err := os.ReadFile(filepath.Join(m.Dir, name))
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	return errors.Wrapf(json.Unmarshal(buf, v), "decoding %s", name)
}
