package spindash

import (
	"sort"
	"time"
)

// SessionGap is the maximum silence between consecutive plays that still
// counts as the same listening session.
const SessionGap = 30 * time.Minute

// minSessionTracks drops single-play "sessions" from session output. One
// casual play is not a listening session; this mirrors the source behavior
// and is a policy choice, not something other stages may rely on.
const minSessionTracks = 2

// TrackRef identifies one play inside a session.
type TrackRef struct {
	Artist string `json:"artist"`
	Track  string `json:"track"`
}

// Session is a maximal run of chronologically adjacent plays where no gap
// between consecutive plays exceeds the threshold.
type Session struct {
	Start  time.Time
	End    time.Time
	MS     int64
	Tracks []TrackRef
}

// Hours returns the session's listening time in hours, rounded like every
// other hours figure.
func (s *Session) Hours() float64 { return RoundHours(s.MS) }

// Segment partitions events into sessions using the given gap threshold.
// Events are sorted ascending by timestamp first; events without timestamps
// cannot be placed on the timeline and are skipped. Sessions with fewer than
// two tracks are dropped. The returned sessions are non-overlapping and
// ordered by start time.
func Segment(events []Event, gap time.Duration) []Session {
	timed := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.HasTime {
			timed = append(timed, ev)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Timestamp.Before(timed[j].Timestamp)
	})

	var sessions []Session
	var cur *Session
	for _, ev := range timed {
		if cur != nil && ev.Timestamp.Sub(cur.End) <= gap {
			cur.End = ev.Timestamp
			cur.MS += ev.MS
			cur.Tracks = append(cur.Tracks, TrackRef{Artist: ev.Artist, Track: ev.Track})
			continue
		}
		if cur != nil && len(cur.Tracks) >= minSessionTracks {
			sessions = append(sessions, *cur)
		}
		cur = &Session{
			Start:  ev.Timestamp,
			End:    ev.Timestamp,
			MS:     ev.MS,
			Tracks: []TrackRef{{Artist: ev.Artist, Track: ev.Track}},
		}
	}
	if cur != nil && len(cur.Tracks) >= minSessionTracks {
		sessions = append(sessions, *cur)
	}
	return sessions
}

// LongestSessions returns the n sessions with the most listening time,
// longest first. Ties break on earlier start time.
func LongestSessions(sessions []Session, n int) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MS != out[j].MS {
			return out[i].MS > out[j].MS
		}
		return out[i].Start.Before(out[j].Start)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
