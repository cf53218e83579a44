package spindash

import "time"

// Summary captures the global totals for the whole listening history plus
// the filter stage's diagnostics.
type Summary struct {
	TotalPlays  int     `json:"total_plays"`
	TotalMS     int64   `json:"total_ms"`
	TotalHours  float64 `json:"total_hours"`
	UniqueCount Uniques `json:"unique_counts"`

	FirstPlay string `json:"first_play,omitempty"`
	LastPlay  string `json:"last_play,omitempty"`
	RangeDays int    `json:"range_days"`

	SessionCount       int     `json:"session_count"`
	LongestSessionMS   int64   `json:"longest_session_ms"`
	LongestSessionHrs  float64 `json:"longest_session_hours"`
	AvgSessionTracks   float64 `json:"avg_session_tracks"`
	SessionTrackTotal  int     `json:"session_track_total"`
	DroppedFromSession int     `json:"dropped_from_sessions"`

	Filtering map[string]int `json:"filtering"`
}

// Uniques counts distinct entities across the kept history.
type Uniques struct {
	Artists int `json:"artists"`
	Tracks  int `json:"tracks"`
	Albums  int `json:"albums"`
	Devices int `json:"devices"`
}

// BuildSummary assembles the Summary from the aggregation, session and
// filtering results. Ratios with zero denominators come out as zero.
func BuildSummary(acc *Accumulator, sessions []Session, diag Diagnostics) Summary {
	s := Summary{
		UniqueCount: Uniques{
			Artists: len(acc.Artists),
			Tracks:  len(acc.Tracks),
			Albums:  len(acc.Albums),
			Devices: len(acc.Devices),
		},
		SessionCount: len(sessions),
		Filtering:    make(map[string]int, len(diag.Counts)),
	}

	var first, last time.Time
	for _, b := range acc.Years {
		s.TotalPlays += b.Plays
		s.TotalMS += b.MS
		if !b.First.IsZero() && (first.IsZero() || b.First.Before(first)) {
			first = b.First
		}
		if b.Last.After(last) {
			last = b.Last
		}
	}
	s.TotalHours = RoundHours(s.TotalMS)
	if !first.IsZero() {
		s.FirstPlay = first.Format(time.RFC3339)
		s.LastPlay = last.Format(time.RFC3339)
		s.RangeDays = int(last.Sub(first).Hours() / 24)
	}

	for _, sess := range sessions {
		s.SessionTrackTotal += len(sess.Tracks)
		if sess.MS > s.LongestSessionMS {
			s.LongestSessionMS = sess.MS
		}
	}
	s.LongestSessionHrs = RoundHours(s.LongestSessionMS)
	if len(sessions) > 0 {
		s.AvgSessionTracks = Round2(float64(s.SessionTrackTotal) / float64(len(sessions)))
	}
	s.DroppedFromSession = s.TotalPlays - s.SessionTrackTotal

	for _, dec := range Decisions() {
		s.Filtering[dec.String()] = diag.Counts[dec]
	}
	return s
}
