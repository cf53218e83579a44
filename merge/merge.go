// Package merge collects the files of a multi-file streaming export into a
// single merged log. Both export flavors get picked up, records missing their
// identifying fields are dropped, and an optional persistent seen index keeps
// re-merging overlapping exports idempotent across runs.
package merge

import (
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spindash/spindash"
	"github.com/spindash/spindash/boltdb"
	"github.com/spindash/spindash/file"
	jsonsrc "github.com/spindash/spindash/json"
	"github.com/spindash/spindash/leveldb"
)

// Merged is the shape of the merged output file. The record array sits under
// streaming_history, which downstream sources already know how to unwrap.
type Merged struct {
	StreamingHistory []map[string]interface{} `json:"streaming_history"`
	Metadata         Metadata                 `json:"metadata"`
}

// Metadata describes one merge run.
type Metadata struct {
	MergedAt          string `json:"merged_at"`
	FilesProcessed    int    `json:"files_processed"`
	FilesSkipped      int    `json:"files_skipped"`
	TotalStreams      int    `json:"total_streams"`
	DroppedInvalid    int    `json:"dropped_invalid"`
	DroppedDuplicates int    `json:"dropped_duplicates"`
}

// Merge reads every file in turn and concatenates the valid, unseen records.
// A file that can't be read is logged and skipped; the remaining files still
// get merged. idx may be nil, in which case duplicates are only tracked
// within this run.
func Merge(files []string, idx spindash.SeenIndex, log spindash.Logger) (*Merged, error) {
	if log == nil {
		log = spindash.NopLogger{}
	}
	aliases := spindash.DefaultAliases()
	merged := &Merged{StreamingHistory: []map[string]interface{}{}}
	seen := make(map[string]struct{})

	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			log.Printf("skipping unreadable file %s: %v", name, err)
			merged.Metadata.FilesSkipped++
			continue
		}
		src := jsonsrc.NewSource(f)
		for {
			rec, err := src.Record()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Printf("abandoning %s: %v", name, err)
				break
			}
			artist, aok := spindash.Lookup(rec, aliases.Artist)
			track, tok := spindash.Lookup(rec, aliases.Track)
			raw, rok := spindash.Lookup(rec, aliases.Timestamp)
			ms, mok := spindash.LookupInt(rec, aliases.MS)
			if !aok || !tok || !rok || !mok || ms <= 0 {
				merged.Metadata.DroppedInvalid++
				continue
			}
			key := spindash.DedupeKey(artist, track, raw)
			if _, dup := seen[key]; dup {
				merged.Metadata.DroppedDuplicates++
				continue
			}
			if idx != nil {
				was, err := idx.Seen(key)
				if err != nil {
					f.Close()
					return nil, errors.Wrap(err, "querying seen index")
				}
				if was {
					merged.Metadata.DroppedDuplicates++
					continue
				}
				if err := idx.Add(key); err != nil {
					f.Close()
					return nil, errors.Wrap(err, "updating seen index")
				}
			}
			seen[key] = struct{}{}
			merged.StreamingHistory = append(merged.StreamingHistory, rec)
		}
		if err := f.Close(); err != nil {
			log.Debugf("closing %s: %v", name, err)
		}
		merged.Metadata.FilesProcessed++
	}

	merged.Metadata.TotalStreams = len(merged.StreamingHistory)
	merged.Metadata.MergedAt = time.Now().UTC().Format(time.RFC3339)
	return merged, nil
}

// Main holds the config for the merge command.
type Main struct {
	Data      string `help:"File or directory containing export files to merge."`
	Output    string `help:"Path of the merged output file."`
	Index     string `help:"Persistent seen index for incremental merges ('bolt' or 'leveldb', empty for none)."`
	IndexPath string `help:"Location of the seen index (file for bolt, directory for leveldb)."`
	Verbose   bool   `help:"Enable verbose logging."`
}

// NewMain gets a Main with default values.
func NewMain() *Main {
	return &Main{
		Data:      "data",
		Output:    "merged_spotify_data.json",
		IndexPath: "merge_seen",
	}
}

func (m *Main) openIndex() (spindash.SeenIndex, error) {
	switch m.Index {
	case "":
		return nil, nil
	case "bolt":
		return boltdb.NewSeenIndex(m.IndexPath)
	case "leveldb":
		return leveldb.NewSeenIndex(m.IndexPath)
	default:
		return nil, errors.Errorf("unknown index type %q (want 'bolt' or 'leveldb')", m.Index)
	}
}

// Run merges the export files under the data path into the output file.
func (m *Main) Run() error {
	log := spindash.Logger(spindash.NewStdLogger(os.Stderr))
	if m.Verbose {
		log = spindash.NewVerboseLogger(os.Stderr)
	}

	files, err := file.Discover(m.Data)
	if err != nil {
		return errors.Wrap(err, "discovering export files")
	}

	idx, err := m.openIndex()
	if err != nil {
		return errors.Wrap(err, "opening seen index")
	}
	if idx != nil {
		defer idx.Close()
	}

	merged, err := Merge(files, idx, log)
	if err != nil {
		return errors.Wrap(err, "merging")
	}

	buf, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding merged data")
	}
	if err := os.WriteFile(m.Output, append(buf, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", m.Output)
	}

	log.Printf("merged %d streams from %d files into %s (dropped %d invalid, %d duplicate)",
		merged.Metadata.TotalStreams, merged.Metadata.FilesProcessed, m.Output,
		merged.Metadata.DroppedInvalid, merged.Metadata.DroppedDuplicates)
	return nil
}
