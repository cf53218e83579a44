package output_test

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spindash/spindash"
	"github.com/spindash/spindash/output"
)

func testResult(t *testing.T) *spindash.Result {
	t.Helper()
	n := spindash.NewNormalizer()
	recs := []map[string]interface{}{
		{"ts": "2021-01-01T00:00:00Z", "artistName": "A", "trackName": "T1", "albumName": "L", "msPlayed": 200000.0, "platform": "android"},
		{"ts": "2021-01-01T00:10:00Z", "artistName": "A", "trackName": "T2", "albumName": "L", "msPlayed": 300000.0, "platform": "android"},
		{"ts": "2021-01-02T18:00:00Z", "artistName": "B", "trackName": "T3", "albumName": "M", "msPlayed": 400000.0, "platform": "ios"},
		{"endTime": "oops", "artistName": "C", "trackName": "T4", "msPlayed": 150000.0},
	}
	var events []spindash.Event
	for _, rec := range recs {
		ev, err := n.Normalize(rec)
		if err != nil {
			t.Fatalf("normalizing: %v", err)
		}
		events = append(events, ev)
	}
	f := spindash.NewFilter()
	kept, diag := f.Run(events)
	acc := spindash.Aggregate(kept)
	sessions := spindash.Segment(kept, spindash.SessionGap)
	return &spindash.Result{
		Events:      kept,
		Aggregates:  acc,
		Sessions:    sessions,
		Summary:     spindash.BuildSummary(acc, sessions, diag),
		Diagnostics: diag,
	}
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := output.NewWriter(dir)
	if err := w.WriteAll(testResult(t)); err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}

	expected := []string{
		output.FileSummary, output.FileYearly, output.FileTopArtistsByYear,
		output.FileTopTracksByYear, output.FileDaily, output.FileMonthly,
		output.FileHourly, output.FileWeekday, output.FileTopArtists,
		output.FileTopTracks, output.FileTopAlbums, output.FileDevices,
		output.FileSessions, output.FileDiagnostics,
	}
	for _, name := range expected {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("artifact %s missing: %v", name, err)
		}
	}
}

func TestDailyCSV(t *testing.T) {
	dir := t.TempDir()
	w := output.NewWriter(dir)
	if err := w.WriteAll(testResult(t)); err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, output.FileDaily))
	if err != nil {
		t.Fatalf("opening daily series: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing daily series: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("expected header plus data rows, got %d rows", len(rows))
	}
	if strings.Join(rows[0], ",") != "date,hours,plays" {
		t.Fatalf("bad header: %v", rows[0])
	}
	if rows[1][0] != "2021-01-01" || rows[1][2] != "2" {
		t.Fatalf("bad first data row: %v", rows[1])
	}
	// The unknown-date bucket stays out of the time series.
	for _, row := range rows[1:] {
		if row[0] == spindash.TimeKeyUnknown {
			t.Fatal("unknown date bucket leaked into the daily series")
		}
	}
}

func TestYearlyArtifact(t *testing.T) {
	dir := t.TempDir()
	w := output.NewWriter(dir)
	if err := w.WriteAll(testResult(t)); err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}

	buf, err := os.ReadFile(filepath.Join(dir, output.FileYearly))
	if err != nil {
		t.Fatalf("reading yearly artifact: %v", err)
	}
	var rows []output.SeriesRow
	if err := json.Unmarshal(buf, &rows); err != nil {
		t.Fatalf("unmarshaling yearly artifact: %v", err)
	}
	var plays int
	for _, row := range rows {
		plays += row.Plays
		if math.IsNaN(row.Percent) || math.IsNaN(row.Hours) {
			t.Fatalf("NaN leaked into artifact: %+v", row)
		}
	}
	if plays != 4 {
		t.Fatalf("expected 4 plays across years, got %d", plays)
	}
}

func TestHourlySeriesOrder(t *testing.T) {
	// Hours whose unpadded keys would interleave lexicographically.
	n := spindash.NewNormalizer()
	var events []spindash.Event
	for _, hour := range []string{"02", "09", "10", "23"} {
		ev, err := n.Normalize(map[string]interface{}{
			"ts":         "2021-01-01T" + hour + ":00:00Z",
			"artistName": "A",
			"trackName":  "T",
			"msPlayed":   60000.0,
		})
		if err != nil {
			t.Fatalf("normalizing: %v", err)
		}
		events = append(events, ev)
	}
	acc := spindash.Aggregate(events)
	res := &spindash.Result{Events: events, Aggregates: acc}

	dir := t.TempDir()
	w := output.NewWriter(dir)
	if err := w.WriteAll(res); err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}

	buf, err := os.ReadFile(filepath.Join(dir, output.FileHourly))
	if err != nil {
		t.Fatalf("reading hourly artifact: %v", err)
	}
	var rows []output.SeriesRow
	if err := json.Unmarshal(buf, &rows); err != nil {
		t.Fatalf("unmarshaling hourly artifact: %v", err)
	}
	exp := []string{"02", "09", "10", "23"}
	if len(rows) != len(exp) {
		t.Fatalf("expected %d rows, got %d: %+v", len(exp), len(rows), rows)
	}
	for i, row := range rows {
		if row.Key != exp[i] {
			t.Fatalf("hourly series out of chronological order at %d: got %q, expected %q", i, row.Key, exp[i])
		}
	}
}

func TestDiagnosticsArtifact(t *testing.T) {
	dir := t.TempDir()
	w := output.NewWriter(dir)
	res := testResult(t)
	if err := w.WriteAll(res); err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}

	buf, err := os.ReadFile(filepath.Join(dir, output.FileDiagnostics))
	if err != nil {
		t.Fatalf("reading diagnostics: %v", err)
	}
	var diag output.Diagnostics
	if err := json.Unmarshal(buf, &diag); err != nil {
		t.Fatalf("unmarshaling diagnostics: %v", err)
	}
	sum := diag.Kept
	for _, n := range diag.Excluded {
		sum += n
	}
	if sum != diag.Input {
		t.Fatalf("diagnostics not a partition: kept+excluded=%d input=%d", sum, diag.Input)
	}
}
