// Package leveldb provides a spindash.SeenIndex backed by leveldb.
package leveldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// SeenIndex is a spindash.SeenIndex which stores play identities in a
// leveldb directory.
type SeenIndex struct {
	db *leveldb.DB
}

// NewSeenIndex opens (or creates) the index under dirname.
func NewSeenIndex(dirname string) (*SeenIndex, error) {
	db, err := leveldb.OpenFile(dirname, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at '%v'", dirname)
	}
	return &SeenIndex{db: db}, nil
}

// Seen reports whether the key was recorded by this or a previous run.
func (s *SeenIndex) Seen(key string) (bool, error) {
	has, err := s.db.Has([]byte(key), nil)
	return has, errors.Wrap(err, "reading seen key")
}

// Add records the key.
func (s *SeenIndex) Add(key string) error {
	return errors.Wrap(s.db.Put([]byte(key), []byte{1}, nil), "putting seen key")
}

// Close closes the underlying leveldb.
func (s *SeenIndex) Close() error {
	return s.db.Close()
}
