package file

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spindash/spindash"
	"github.com/spindash/spindash/json"
)

// exportPatterns are the file naming conventions the two export flavors use.
// The legacy account export writes StreamingHistory_music_N.json, the
// extended streaming history writes Streaming_History_Audio_YYYY_N.json (and,
// in its earliest incarnation, endsong_N.json).
var exportPatterns = []string{
	"StreamingHistory_music_*.json",
	"Streaming_History_Audio_*.json",
	"endsong_*.json",
}

// Discover resolves a path to the list of export files to process. A plain
// file is returned as-is. For a directory, files matching the export naming
// conventions anywhere beneath it are collected; if none match, every .json
// file directly in the directory is taken instead, so a folder of hand-named
// exports still works. The returned list is sorted for a deterministic
// processing order.
func Discover(pathname string) ([]string, error) {
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if !info.IsDir() {
		return []string{pathname}, nil
	}

	var files []string
	err = filepath.Walk(pathname, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		for _, pattern := range exportPatterns {
			if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking directory")
	}

	if len(files) == 0 {
		files, err = filepath.Glob(filepath.Join(pathname, "*.json"))
		if err != nil {
			return nil, errors.Wrap(err, "globbing directory")
		}
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no export files found under %s", pathname)
	}
	sort.Strings(files)
	return files, nil
}

// RawSource hands out one reader per discovered export file.
type RawSource struct {
	files   []string
	fileIdx *uint64
}

// NewRawSource gets a RawSource over the export files found at pathname.
func NewRawSource(pathname string) (*RawSource, error) {
	files, err := Discover(pathname)
	if err != nil {
		return nil, err
	}
	idx := uint64(0)
	return &RawSource{files: files, fileIdx: &idx}, nil
}

type metaFile struct {
	*os.File
}

func (m *metaFile) Name() string {
	return filepath.Base(m.File.Name())
}

// NextReader implements spindash.RawSource.
func (s *RawSource) NextReader() (spindash.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}
	f, err := os.Open(s.files[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", s.files[idx])
	}
	return &metaFile{f}, nil
}

// Source is a spindash.Source which reads play records from an export file
// or a directory of export files.
type Source struct {
	rawSource *RawSource
	records   chan record
	log       spindash.Logger
}

type record struct {
	data map[string]interface{}
	err  error
}

// SrcOption is a functional option for the file Source.
type SrcOption func(s *Source) error

// OptSrcPath sets the file or directory to read export data from.
func OptSrcPath(pathname string) SrcOption {
	return func(s *Source) (err error) {
		s.rawSource, err = NewRawSource(pathname)
		if err != nil {
			return errors.Wrap(err, "getting raw source")
		}
		return nil
	}
}

// OptSrcLogger sets the logger used to report skipped files.
func OptSrcLogger(log spindash.Logger) SrcOption {
	return func(s *Source) error {
		s.log = log
		return nil
	}
}

// NewSource gets a file source over the export at the configured path.
func NewSource(opts ...SrcOption) (*Source, error) {
	s := &Source{
		records: make(chan record, 100),
		log:     spindash.NopLogger{},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.rawSource == nil {
		return nil, errors.New("no source path configured")
	}
	go s.run()
	return s, nil
}

// run decodes each file in turn. A file that fails to open or decodes
// part-way through is reported and abandoned; the remaining files still get
// processed. When the export is a single file, failing to open it means the
// whole input is gone, so that error is marked fatal.
func (s *Source) run() {
	for {
		reader, err := s.rawSource.NextReader()
		if err == io.EOF {
			break
		}
		if err != nil {
			err = errors.Wrap(err, "opening next file")
			if len(s.rawSource.files) == 1 {
				err = spindash.Fatal(err)
			}
			s.records <- record{err: err}
			continue
		}
		src := json.NewSource(reader)
		for {
			r := record{}
			r.data, r.err = src.Record()
			if r.err == io.EOF {
				break
			}
			if r.err != nil {
				r.err = errors.Wrapf(r.err, "reading %s", reader.Name())
				s.records <- r
				break
			}
			s.records <- r
		}
		if cerr := reader.Close(); cerr != nil {
			s.log.Debugf("closing %s: %v", reader.Name(), cerr)
		}
	}
	close(s.records)
}

// Record implements spindash.Source.
func (s *Source) Record() (map[string]interface{}, error) {
	rec, ok := <-s.records
	if !ok {
		return nil, io.EOF
	}
	return rec.data, rec.err
}
