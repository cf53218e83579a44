// Package boltdb provides a spindash.SeenIndex backed by boltdb. It works,
// but the leveldb index has better write performance and is the one the
// merge tool reaches for by default.
package boltdb

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var seenBucket = []byte("seen")

// SeenIndex is a spindash.SeenIndex which stores play identities in boltdb
// so that re-merging overlapping export files stays idempotent across runs.
type SeenIndex struct {
	db *bolt.DB
}

// NewSeenIndex opens (or creates) the index at filename.
func NewSeenIndex(filename string) (*SeenIndex, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return errors.Wrap(err, "creating bucket")
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing db")
	}
	return &SeenIndex{db: db}, nil
}

// Seen reports whether the key was recorded by this or a previous run.
func (s *SeenIndex) Seen(key string) (seen bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		seen = tx.Bucket(seenBucket).Get([]byte(key)) != nil
		return nil
	})
	return seen, errors.Wrap(err, "reading seen key")
}

// Add records the key.
func (s *SeenIndex) Add(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(seenBucket).Put([]byte(key), []byte{1})
	})
	return errors.Wrap(err, "putting seen key")
}

// Close syncs and closes the underlying boltdb.
func (s *SeenIndex) Close() error {
	if err := s.db.Sync(); err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return s.db.Close()
}
