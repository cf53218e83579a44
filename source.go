package spindash

import "io"

// Source is the interface for getting raw play records one at a time.
// Implementations return io.EOF when the underlying data is exhausted.
// Implementations of Source should be safe for concurrent use.
type Source interface {
	Record() (map[string]interface{}, error)
}

// NamedReadCloser is a ReadCloser which also knows the name of the thing
// being read, so that per-file errors can say which file they came from.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource is a source of readers. Sources which deal in whole files or
// objects (a directory of per-year exports, an S3 prefix) implement RawSource
// and get wrapped by a record-level decoder.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}
