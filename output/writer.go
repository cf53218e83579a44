// Package output serializes the derived aggregates to the artifact files
// the dashboard consumes. Each artifact is self-contained and independently
// loadable: a missing or broken file degrades one chart, never the whole
// dashboard. All numeric fields are rounded at write time so the consumer
// does no further rounding.
package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spindash/spindash"
)

// Artifact file names, fixed relative paths the dashboard fetches.
const (
	FileSummary          = "summary.json"
	FileYearly           = "yearly.json"
	FileTopArtistsByYear = "top_artists_by_year.json"
	FileTopTracksByYear  = "top_tracks_by_year.json"
	FileDaily            = "daily.csv"
	FileMonthly          = "monthly.json"
	FileHourly           = "hourly.json"
	FileWeekday          = "weekday.json"
	FileTopArtists       = "top_artists.json"
	FileTopTracks        = "top_tracks.json"
	FileTopAlbums        = "top_albums.json"
	FileDevices          = "devices.json"
	FileSessions         = "sessions.json"
	FileDiagnostics      = "diagnostics.json"
)

// SeriesRow is one point of a keyed series (month, hour, weekday, device).
type SeriesRow struct {
	Key     string  `json:"key"`
	Hours   float64 `json:"hours"`
	Plays   int     `json:"plays"`
	Percent float64 `json:"percent"`
}

// EntityRow is one ranked entity (artist, track, album).
type EntityRow struct {
	Name      string  `json:"name"`
	Hours     float64 `json:"hours"`
	Plays     int     `json:"plays"`
	FirstPlay string  `json:"first_play,omitempty"`
	LastPlay  string  `json:"last_play,omitempty"`
	Tracks    int     `json:"tracks,omitempty"`
}

// SessionRow is one listening session in the sessions artifact.
type SessionRow struct {
	Start  string              `json:"start"`
	End    string              `json:"end"`
	Hours  float64             `json:"hours"`
	Count  int                 `json:"track_count"`
	Tracks []spindash.TrackRef `json:"tracks"`
}

// Diagnostics is the filtering-diagnostics artifact.
type Diagnostics struct {
	Input    int            `json:"input"`
	Kept     int            `json:"kept"`
	Excluded map[string]int `json:"excluded"`
	Stats    StatsRow       `json:"duration_stats"`
}

// StatsRow carries the filter stage's population statistics.
type StatsRow struct {
	MeanMS   float64 `json:"mean_ms"`
	StddevMS float64 `json:"stddev_ms"`
	P95MS    float64 `json:"p95_ms"`
	P99MS    float64 `json:"p99_ms"`
}

// Writer writes every artifact for one pipeline result into a directory.
type Writer struct {
	Dir  string
	TopN int
	Log  spindash.Logger
}

// NewWriter gets a Writer with the default ranking depth.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, TopN: 50, Log: spindash.NopLogger{}}
}

// WriteAll writes every artifact. The artifacts have no cross-dependencies,
// so they are written concurrently; every artifact is attempted even when
// one fails, and the first error is returned.
func (w *Writer) WriteAll(res *spindash.Result) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	acc := res.Aggregates

	jobs := map[string]func() error{
		FileSummary: func() error { return w.writeJSON(FileSummary, res.Summary) },
		FileYearly:  func() error { return w.writeJSON(FileYearly, seriesRows(acc.Years, 0)) },
		FileTopArtistsByYear: func() error {
			return w.writeJSON(FileTopArtistsByYear, w.perYear(acc.YearArtists, true))
		},
		FileTopTracksByYear: func() error {
			return w.writeJSON(FileTopTracksByYear, w.perYear(acc.YearTracks, false))
		},
		FileDaily:   func() error { return w.writeDaily(acc.Days) },
		FileMonthly: func() error { return w.writeJSON(FileMonthly, seriesRows(acc.Months, totalMS(acc.Months))) },
		FileHourly:  func() error { return w.writeJSON(FileHourly, seriesRows(acc.Hours, totalMS(acc.Hours))) },
		FileWeekday: func() error { return w.writeJSON(FileWeekday, seriesRows(acc.Weekdays, totalMS(acc.Weekdays))) },
		FileTopArtists: func() error {
			return w.writeJSON(FileTopArtists, entityRows(spindash.TopN(acc.Artists, w.TopN), true))
		},
		FileTopTracks: func() error {
			return w.writeJSON(FileTopTracks, entityRows(spindash.TopN(acc.Tracks, w.TopN), false))
		},
		FileTopAlbums: func() error {
			return w.writeJSON(FileTopAlbums, entityRows(spindash.TopN(acc.Albums, w.TopN), false))
		},
		FileDevices: func() error { return w.writeJSON(FileDevices, seriesRows(acc.Devices, totalMS(acc.Devices))) },
		FileSessions: func() error {
			return w.writeJSON(FileSessions, sessionRows(spindash.LongestSessions(res.Sessions, w.TopN)))
		},
		FileDiagnostics: func() error { return w.writeJSON(FileDiagnostics, diagnostics(res.Diagnostics)) },
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for name, job := range jobs {
		wg.Add(1)
		go func(name string, job func() error) {
			defer wg.Done()
			if err := job(); err != nil {
				w.Log.Printf("writing %s: %v", name, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "writing %s", name)
				}
				mu.Unlock()
			}
		}(name, job)
	}
	wg.Wait()
	return firstErr
}

func (w *Writer) writeJSON(name string, v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(w.Dir, name), append(buf, '\n'), 0644), "writing file")
}

// writeDaily writes the daily time series as delimited text with a header
// row. Events without a parseable date have no place on a time axis and are
// left to the diagnostics artifact.
func (w *Writer) writeDaily(days map[string]*spindash.Bucket) error {
	f, err := os.Create(filepath.Join(w.Dir, FileDaily))
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"date", "hours", "plays"}); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, key := range spindash.SortedKeys(days) {
		if key == spindash.TimeKeyUnknown {
			continue
		}
		b := days[key]
		row := []string{
			key,
			strconv.FormatFloat(b.Hours(), 'f', 2, 64),
			strconv.Itoa(b.Plays),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flushing")
	}
	return errors.Wrap(f.Close(), "closing file")
}

// perYear builds the top-N entity table for every year.
func (w *Writer) perYear(m map[string]map[string]*spindash.Bucket, artists bool) map[string][]EntityRow {
	out := make(map[string][]EntityRow, len(m))
	for year, buckets := range m {
		out[year] = entityRows(spindash.TopN(buckets, 10), artists)
	}
	return out
}

func seriesRows(m map[string]*spindash.Bucket, total int64) []SeriesRow {
	rows := make([]SeriesRow, 0, len(m))
	for _, key := range spindash.SortedKeys(m) {
		b := m[key]
		rows = append(rows, SeriesRow{
			Key:     key,
			Hours:   b.Hours(),
			Plays:   b.Plays,
			Percent: safeRatio(float64(b.MS), float64(total)),
		})
	}
	return rows
}

func entityRows(buckets []*spindash.Bucket, artists bool) []EntityRow {
	rows := make([]EntityRow, 0, len(buckets))
	for _, b := range buckets {
		row := EntityRow{
			Name:  b.Key,
			Hours: b.Hours(),
			Plays: b.Plays,
		}
		if !b.First.IsZero() {
			row.FirstPlay = b.First.Format(time.RFC3339)
			row.LastPlay = b.Last.Format(time.RFC3339)
		}
		if artists {
			row.Tracks = len(b.Tracks)
		}
		rows = append(rows, row)
	}
	return rows
}

func sessionRows(sessions []spindash.Session) []SessionRow {
	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, SessionRow{
			Start:  s.Start.Format(time.RFC3339),
			End:    s.End.Format(time.RFC3339),
			Hours:  s.Hours(),
			Count:  len(s.Tracks),
			Tracks: s.Tracks,
		})
	}
	return rows
}

func diagnostics(d spindash.Diagnostics) Diagnostics {
	out := Diagnostics{
		Input:    d.Input,
		Kept:     d.Kept(),
		Excluded: make(map[string]int),
		Stats: StatsRow{
			MeanMS:   spindash.Round2(d.Stats.Mean),
			StddevMS: spindash.Round2(d.Stats.Stddev),
			P95MS:    spindash.Round2(d.Stats.P95),
			P99MS:    spindash.Round2(d.Stats.P99),
		},
	}
	for _, dec := range spindash.Decisions() {
		if dec == spindash.Kept {
			continue
		}
		out.Excluded[dec.String()] = d.Counts[dec]
	}
	return out
}

// safeRatio returns num/den as a rounded percentage, with a zero sentinel
// instead of NaN when the denominator is zero.
func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return spindash.Round2(num / den * 100)
}

func totalMS(m map[string]*spindash.Bucket) int64 {
	var total int64
	for _, b := range m {
		total += b.MS
	}
	return total
}
