package spindash

import (
	"math"
	"sort"
	"strings"
)

// Decision is the outcome of the filter stage for a single event. Every
// event gets exactly one Decision; the first matching rule in precedence
// order wins.
type Decision int

// Decisions in rule precedence order.
const (
	Kept Decision = iota
	ExcludedManual
	ExcludedUnknownMetadata
	ExcludedTooShort
	ExcludedTooLong
	ExcludedOutlierZScore
	ExcludedOutlierPercentile
)

var decisionNames = map[Decision]string{
	Kept:                      "kept",
	ExcludedManual:            "excluded-manual",
	ExcludedUnknownMetadata:   "excluded-unknown-metadata",
	ExcludedTooShort:          "excluded-too-short",
	ExcludedTooLong:           "excluded-too-long",
	ExcludedOutlierZScore:     "excluded-outlier-zscore",
	ExcludedOutlierPercentile: "excluded-outlier-percentile",
}

func (d Decision) String() string { return decisionNames[d] }

// Decisions lists every Decision value, for iteration in diagnostics output.
func Decisions() []Decision {
	return []Decision{
		Kept,
		ExcludedManual,
		ExcludedUnknownMetadata,
		ExcludedTooShort,
		ExcludedTooLong,
		ExcludedOutlierZScore,
		ExcludedOutlierPercentile,
	}
}

// FilterConfig holds the exclusion rules. Name matching is case-insensitive
// substring matching. A MinMS or MaxMS of zero disables that rule; a ZScore
// of zero disables the z-score rule.
type FilterConfig struct {
	ExcludeArtists  []string
	ExcludeTracks   []string
	ExcludeKeywords []string

	MinMS  int64
	MaxMS  int64
	ZScore float64
}

// NewFilterConfig gets a FilterConfig with the default thresholds: plays
// shorter than 30 seconds are skips, plays longer than 20 minutes are
// suspect, and anything more than 3 standard deviations from the mean is an
// outlier.
func NewFilterConfig() FilterConfig {
	return FilterConfig{
		MinMS:  30 * 1000,
		MaxMS:  20 * 60 * 1000,
		ZScore: 3.0,
	}
}

// DurationStats are descriptive statistics over the positive play durations
// of the full event collection, computed before any exclusion so that the
// outlier rules judge events against the whole population.
type DurationStats struct {
	N      int
	Mean   float64
	Stddev float64
	P95    float64
	P99    float64
}

// ComputeDurationStats runs the first pass of the filter: mean, standard
// deviation and the 95th/99th percentiles (nearest-rank) of all durations
// greater than zero.
func ComputeDurationStats(events []Event) DurationStats {
	durations := make([]float64, 0, len(events))
	var sum float64
	for _, ev := range events {
		if ev.MS > 0 {
			durations = append(durations, float64(ev.MS))
			sum += float64(ev.MS)
		}
	}
	stats := DurationStats{N: len(durations)}
	if stats.N == 0 {
		return stats
	}
	stats.Mean = sum / float64(stats.N)

	var sqsum float64
	for _, d := range durations {
		diff := d - stats.Mean
		sqsum += diff * diff
	}
	stats.Stddev = math.Sqrt(sqsum / float64(stats.N))

	sort.Float64s(durations)
	stats.P95 = percentile(durations, 95)
	stats.P99 = percentile(durations, 99)
	return stats
}

// percentile returns the nearest-rank percentile of an ascending-sorted
// slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// Diagnostics is the filter stage's bookkeeping: how many events went in,
// and what happened to each of them. Kept + all exclusion counts always
// equals Input.
type Diagnostics struct {
	Input  int
	Counts map[Decision]int
	Stats  DurationStats
}

// Kept returns the number of events that survived filtering.
func (d Diagnostics) Kept() int { return d.Counts[Kept] }

// Excluded returns the total number of excluded events.
func (d Diagnostics) Excluded() int { return d.Input - d.Counts[Kept] }

// Filter applies the exclusion rules to a normalized event collection.
type Filter struct {
	Config FilterConfig
}

// NewFilter gets a Filter with the default configuration.
func NewFilter() *Filter {
	return &Filter{Config: NewFilterConfig()}
}

// Run executes both filter passes: it computes population statistics, then
// classifies every event, winsorizing the durations of kept events at the
// 99th percentile. The input slice is not modified.
func (f *Filter) Run(events []Event) ([]Event, Diagnostics) {
	stats := ComputeDurationStats(events)
	diag := Diagnostics{
		Input:  len(events),
		Counts: make(map[Decision]int),
		Stats:  stats,
	}

	kept := make([]Event, 0, len(events))
	for _, ev := range events {
		dec := f.classify(ev, stats)
		diag.Counts[dec]++
		if dec != Kept {
			continue
		}
		if stats.P99 > 0 && float64(ev.MS) > stats.P99 {
			ev.MS = int64(stats.P99)
		}
		kept = append(kept, ev)
	}
	return kept, diag
}

// classify evaluates the exclusion rules in precedence order and returns the
// first match.
func (f *Filter) classify(ev Event, stats DurationStats) Decision {
	if ev.Artist == "" || ev.Track == "" {
		return ExcludedUnknownMetadata
	}
	artist := strings.ToLower(ev.Artist)
	track := strings.ToLower(ev.Track)

	for _, excl := range f.Config.ExcludeArtists {
		if excl != "" && strings.Contains(artist, strings.ToLower(excl)) {
			return ExcludedManual
		}
	}
	for _, excl := range f.Config.ExcludeTracks {
		if excl != "" && strings.Contains(track, strings.ToLower(excl)) {
			return ExcludedManual
		}
	}
	for _, excl := range f.Config.ExcludeKeywords {
		if excl == "" {
			continue
		}
		kw := strings.ToLower(excl)
		if strings.Contains(artist, kw) || strings.Contains(track, kw) {
			return ExcludedManual
		}
	}

	if strings.EqualFold(ev.Artist, UnknownArtist) || strings.EqualFold(ev.Track, UnknownTrack) {
		return ExcludedUnknownMetadata
	}

	if f.Config.MinMS > 0 && ev.MS < f.Config.MinMS {
		return ExcludedTooShort
	}
	if f.Config.MaxMS > 0 && ev.MS > f.Config.MaxMS {
		return ExcludedTooLong
	}

	if f.Config.ZScore > 0 && stats.Stddev > 0 {
		z := (float64(ev.MS) - stats.Mean) / stats.Stddev
		if math.Abs(z) > f.Config.ZScore {
			return ExcludedOutlierZScore
		}
	}
	if stats.P99 > 0 && float64(ev.MS) > stats.P99 {
		return ExcludedOutlierPercentile
	}

	return Kept
}
