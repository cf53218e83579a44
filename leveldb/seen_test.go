package leveldb_test

import (
	"path/filepath"
	"testing"

	"github.com/spindash/spindash"
	"github.com/spindash/spindash/leveldb"
)

func TestSeenIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "seen")
	idx, err := leveldb.NewSeenIndex(dir)
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}

	key := spindash.DedupeKey("X", "Y", "2020-05-01T10:00:00Z")
	seen, err := idx.Seen(key)
	if err != nil || seen {
		t.Fatalf("fresh key should be unseen: %v, %v", seen, err)
	}
	if err := idx.Add(key); err != nil {
		t.Fatalf("adding key: %v", err)
	}
	seen, err = idx.Seen(key)
	if err != nil || !seen {
		t.Fatalf("added key should be seen: %v, %v", seen, err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("closing index: %v", err)
	}

	// The index persists across reopens.
	idx, err = leveldb.NewSeenIndex(dir)
	if err != nil {
		t.Fatalf("reopening index: %v", err)
	}
	defer idx.Close()
	seen, err = idx.Seen(key)
	if err != nil || !seen {
		t.Fatalf("key should survive a reopen: %v, %v", seen, err)
	}
}
