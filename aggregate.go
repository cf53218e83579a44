package spindash

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Bucket accumulates totals for one aggregation key. Totals only ever grow
// as events are folded in; nothing revises them downward.
type Bucket struct {
	Key   string
	MS    int64
	Plays int

	// First and Last are the timestamps of the earliest and latest plays
	// folded into this bucket, tracked for entity buckets. Zero when no
	// folded event carried a timestamp.
	First time.Time
	Last  time.Time

	// Tracks is the set of distinct track names played, maintained for
	// artist buckets only.
	Tracks map[string]struct{}
}

// Hours returns the bucket's total duration in hours, rounded the same way
// as every other hours figure in the output.
func (b *Bucket) Hours() float64 { return RoundHours(b.MS) }

func (b *Bucket) fold(ev Event) {
	b.MS += ev.MS
	b.Plays++
	if ev.HasTime {
		if b.First.IsZero() || ev.Timestamp.Before(b.First) {
			b.First = ev.Timestamp
		}
		if ev.Timestamp.After(b.Last) {
			b.Last = ev.Timestamp
		}
	}
}

// Accumulator owns every per-dimension bucket map. It is built by a single
// sequential fold over the deduplicated event stream and is never shared
// across goroutines while being built.
type Accumulator struct {
	Years    map[string]*Bucket
	Months   map[string]*Bucket
	Days     map[string]*Bucket
	Hours    map[string]*Bucket
	Weekdays map[string]*Bucket

	Artists map[string]*Bucket
	Tracks  map[string]*Bucket
	Albums  map[string]*Bucket
	Devices map[string]*Bucket

	// YearArtists and YearTracks are nested per-year entity maps backing the
	// top-artists-by-year and top-tracks-by-year artifacts.
	YearArtists map[string]map[string]*Bucket
	YearTracks  map[string]map[string]*Bucket
}

// NewAccumulator gets an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		Years:       make(map[string]*Bucket),
		Months:      make(map[string]*Bucket),
		Days:        make(map[string]*Bucket),
		Hours:       make(map[string]*Bucket),
		Weekdays:    make(map[string]*Bucket),
		Artists:     make(map[string]*Bucket),
		Tracks:      make(map[string]*Bucket),
		Albums:      make(map[string]*Bucket),
		Devices:     make(map[string]*Bucket),
		YearArtists: make(map[string]map[string]*Bucket),
		YearTracks:  make(map[string]map[string]*Bucket),
	}
}

// Aggregate folds a whole event collection into a fresh Accumulator.
func Aggregate(events []Event) *Accumulator {
	acc := NewAccumulator()
	for _, ev := range events {
		acc.Fold(ev)
	}
	return acc
}

// Fold adds one event to every dimension. Each event lands in exactly one
// bucket per dimension; events without a timestamp land in the unknown
// bucket of each time dimension.
func (a *Accumulator) Fold(ev Event) {
	bucket(a.Years, ev.YearKey()).fold(ev)
	bucket(a.Months, ev.MonthKey()).fold(ev)
	bucket(a.Days, ev.DayKey()).fold(ev)
	bucket(a.Hours, hourKey(ev)).fold(ev)
	bucket(a.Weekdays, weekdayKey(ev)).fold(ev)

	artist := bucket(a.Artists, ev.Artist)
	artist.fold(ev)
	if artist.Tracks == nil {
		artist.Tracks = make(map[string]struct{})
	}
	artist.Tracks[ev.Track] = struct{}{}

	bucket(a.Tracks, ev.TrackKey()).fold(ev)
	bucket(a.Albums, ev.AlbumKey()).fold(ev)
	bucket(a.Devices, ev.Device).fold(ev)

	year := ev.YearKey()
	if a.YearArtists[year] == nil {
		a.YearArtists[year] = make(map[string]*Bucket)
	}
	bucket(a.YearArtists[year], ev.Artist).fold(ev)
	if a.YearTracks[year] == nil {
		a.YearTracks[year] = make(map[string]*Bucket)
	}
	bucket(a.YearTracks[year], ev.TrackKey()).fold(ev)
}

func bucket(m map[string]*Bucket, key string) *Bucket {
	b, ok := m[key]
	if !ok {
		b = &Bucket{Key: key}
		m[key] = b
	}
	return b
}

// hourKey zero-pads so that the lexicographic key order SortedKeys produces
// is also chronological, like the month and day keys.
func hourKey(ev Event) string {
	if !ev.HasTime {
		return TimeKeyUnknown
	}
	return fmt.Sprintf("%02d", ev.Hour)
}

func weekdayKey(ev Event) string {
	if !ev.HasTime {
		return TimeKeyUnknown
	}
	return strconv.Itoa(int(ev.Weekday))
}

// TopN returns the n largest buckets of one dimension. The sort is total
// duration descending, then play count descending, then key ascending; the
// source never documented a secondary key, so this one is chosen to make
// extraction deterministic across runs. n <= 0 returns all buckets sorted.
func TopN(m map[string]*Bucket, n int) []*Bucket {
	out := make([]*Bucket, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MS != out[j].MS {
			return out[i].MS > out[j].MS
		}
		if out[i].Plays != out[j].Plays {
			return out[i].Plays > out[j].Plays
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SortedKeys returns a dimension's bucket keys in ascending order, with the
// unknown bucket last.
func SortedKeys(m map[string]*Bucket) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != TimeKeyUnknown {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := m[TimeKeyUnknown]; ok {
		keys = append(keys, TimeKeyUnknown)
	}
	return keys
}

// RoundHours converts milliseconds to hours rounded to two decimal places.
// Every hours figure in every artifact goes through this one function so
// displayed totals stay internally consistent.
func RoundHours(ms int64) float64 {
	return Round2(float64(ms) / (1000 * 60 * 60))
}

// Round2 rounds to two decimal places. Rounding an already-rounded value is
// a no-op.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
