package file_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spindash/spindash/file"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		dir := t.TempDir()
		path := write(t, dir, "whatever.json", "[]")
		files, err := file.Discover(path)
		if err != nil {
			t.Fatalf("discovering: %v", err)
		}
		if len(files) != 1 || files[0] != path {
			t.Fatalf("expected just %s, got %v", path, files)
		}
	})

	t.Run("export conventions in nested dirs", func(t *testing.T) {
		dir := t.TempDir()
		legacy := write(t, dir, "Account Data/StreamingHistory_music_0.json", "[]")
		extended := write(t, dir, "Extended/Streaming_History_Audio_2021_0.json", "[]")
		endsong := write(t, dir, "Extended/endsong_3.json", "[]")
		write(t, dir, "Account Data/Playlist1.json", "{}")

		files, err := file.Discover(dir)
		if err != nil {
			t.Fatalf("discovering: %v", err)
		}
		if len(files) != 3 {
			t.Fatalf("expected 3 export files, got %v", files)
		}
		// Sorted order.
		if files[0] != legacy || files[1] != extended || files[2] != endsong {
			t.Errorf("unexpected order: %v", files)
		}
	})

	t.Run("json fallback", func(t *testing.T) {
		dir := t.TempDir()
		path := write(t, dir, "my_history.json", "[]")
		files, err := file.Discover(dir)
		if err != nil {
			t.Fatalf("discovering: %v", err)
		}
		if len(files) != 1 || files[0] != path {
			t.Fatalf("expected fallback to %s, got %v", path, files)
		}
	})

	t.Run("empty dir", func(t *testing.T) {
		if _, err := file.Discover(t.TempDir()); err == nil {
			t.Fatal("expected an error for a directory with no export files")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := file.Discover(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Fatal("expected an error for a missing path")
		}
	})
}

func drain(t *testing.T, src *file.Source) (recs []map[string]interface{}, errs int) {
	t.Helper()
	for {
		rec, err := src.Record()
		if err == io.EOF {
			return recs, errs
		}
		if err != nil {
			errs++
			continue
		}
		recs = append(recs, rec)
	}
}

func TestSource(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "StreamingHistory_music_0.json", `[
		{"endTime": "2021-01-01 10:00", "artistName": "A", "trackName": "T1", "msPlayed": 200000},
		{"endTime": "2021-01-01 10:05", "artistName": "A", "trackName": "T2", "msPlayed": 180000}
	]`)
	write(t, dir, "StreamingHistory_music_1.json", `[
		{"endTime": "2021-01-02 10:00", "artistName": "B", "trackName": "T3", "msPlayed": 240000}
	]`)

	src, err := file.NewSource(file.OptSrcPath(dir))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}
	recs, errs := drain(t, src)
	if len(recs) != 3 || errs != 0 {
		t.Fatalf("expected 3 records and no errors, got %d records, %d errors", len(recs), errs)
	}
	if recs[0]["artistName"] != "A" || recs[2]["artistName"] != "B" {
		t.Errorf("records out of order: %v", recs)
	}
}

func TestSourceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "StreamingHistory_music_0.json", `[
		{"endTime": "2021-01-01 10:00", "artistName": "A", "trackName": "T1", "msPlayed": 200000},
		{"endTime": "2021-01-01 10:05", "artistName":
	`)
	write(t, dir, "StreamingHistory_music_1.json", `[
		{"endTime": "2021-01-02 10:00", "artistName": "B", "trackName": "T3", "msPlayed": 240000}
	]`)

	src, err := file.NewSource(file.OptSrcPath(dir))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}
	recs, errs := drain(t, src)
	// The good record before the corruption and the whole second file survive.
	if len(recs) != 2 {
		t.Errorf("expected 2 records, got %d: %v", len(recs), recs)
	}
	if errs != 1 {
		t.Errorf("expected 1 record error, got %d", errs)
	}
}

func TestSourceNoPath(t *testing.T) {
	if _, err := file.NewSource(); err == nil {
		t.Fatal("expected an error when no path is configured")
	}
}
