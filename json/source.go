package json

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// wrapKeys are the object keys under which an export (or a merged export)
// may nest its record array when the top level isn't the array itself.
var wrapKeys = map[string]bool{
	"streaming_history": true,
	"records":           true,
	"items":             true,
}

// Source is a spindash.Source which streams play records from JSON. It
// accepts either a top-level array of records or an object wrapping such an
// array under a known key.
type Source struct {
	dec     *json.Decoder
	started bool
	err     error
}

// NewSource gets a new json source which will decode from the given reader.
func NewSource(r io.Reader) *Source {
	return &Source{dec: json.NewDecoder(r)}
}

// Record returns the next record in the array. After a decode error the
// source reports that error once and then io.EOF; callers move on to their
// next input rather than re-reading a corrupt stream.
func (s *Source) Record() (map[string]interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.started {
		if err := s.start(); err != nil {
			s.err = io.EOF
			return nil, err
		}
		s.started = true
	}
	if !s.dec.More() {
		s.err = io.EOF
		return nil, io.EOF
	}
	var rec map[string]interface{}
	if err := s.dec.Decode(&rec); err != nil {
		s.err = io.EOF
		return nil, errors.Wrap(err, "decoding record")
	}
	return rec, nil
}

// start consumes tokens up to the first element of the record array.
func (s *Source) start() error {
	tok, err := s.dec.Token()
	if err != nil {
		return errors.Wrap(err, "reading first token")
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return errors.Errorf("expected array or object, got %v", tok)
	}
	if delim == '[' {
		return nil
	}
	if delim != '{' {
		return errors.Errorf("expected array or object, got %v", delim)
	}
	for {
		tok, err = s.dec.Token()
		if err != nil {
			return errors.Wrap(err, "reading object key")
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return errors.New("no record array found in object")
		}
		key, _ := tok.(string)
		if wrapKeys[key] {
			tok, err = s.dec.Token()
			if err != nil {
				return errors.Wrapf(err, "reading value of %q", key)
			}
			if d, ok := tok.(json.Delim); ok && d == '[' {
				return nil
			}
			return errors.Errorf("key %q does not hold an array", key)
		}
		// Not a wrap key; skip its whole value.
		var skip json.RawMessage
		if err := s.dec.Decode(&skip); err != nil {
			return errors.Wrapf(err, "skipping value of %q", key)
		}
	}
}
