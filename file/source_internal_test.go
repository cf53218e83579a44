package file

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spindash/spindash"
)

func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSingleFileOpenErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "StreamingHistory_music_0.json", "[]")

	rs, err := NewRawSource(path)
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}
	// The whole input disappears between discovery and the read.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	s := &Source{rawSource: rs, records: make(chan record, 10), log: spindash.NopLogger{}}
	go s.run()

	_, err = s.Record()
	if err == nil || !spindash.IsFatal(err) {
		t.Fatalf("expected a fatal error for a vanished single-file export, got %v", err)
	}
	if _, err := s.Record(); err != io.EOF {
		t.Fatalf("expected EOF after the fatal error, got %v", err)
	}
}

func TestMultiFileOpenErrorIsSkippable(t *testing.T) {
	dir := t.TempDir()
	gone := writeExport(t, dir, "StreamingHistory_music_0.json", "[]")
	writeExport(t, dir, "StreamingHistory_music_1.json",
		`[{"endTime": "2021-01-02 10:00", "artistName": "B", "trackName": "T3", "msPlayed": 240000}]`)

	rs, err := NewRawSource(dir)
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}

	s := &Source{rawSource: rs, records: make(chan record, 10), log: spindash.NopLogger{}}
	go s.run()

	var recs, errs, fatals int
	for {
		rec, err := s.Record()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs++
			if spindash.IsFatal(err) {
				fatals++
			}
			continue
		}
		if rec != nil {
			recs++
		}
	}
	if errs != 1 || fatals != 0 {
		t.Fatalf("expected 1 non-fatal error, got %d errors (%d fatal)", errs, fatals)
	}
	if recs != 1 {
		t.Fatalf("remaining file should still be read, got %d records", recs)
	}
}
