package spindash

import (
	"time"
)

// TimeKeyUnknown is the bucket key used for time dimensions when an otherwise
// valid record carries no parseable timestamp. Such records still count
// toward entity and duration totals.
const TimeKeyUnknown = "unknown"

// Event is the canonical form of one play record. All temporal fields are
// derived from the timestamp in UTC; exports that recorded local time are
// interpreted as UTC rather than inheriting the platform timezone. An Event
// is never modified after normalization except for duration winsorization in
// the filter stage.
type Event struct {
	// Timestamp is the parsed play time. Valid only when HasTime is true.
	Timestamp time.Time
	// RawTime is the timestamp exactly as it appeared in the export. Dedupe
	// matches on this string, not on the parsed value.
	RawTime string
	HasTime bool

	Artist  string
	Track   string
	Album   string
	Device  string
	TrackID string

	// MS is the play duration in milliseconds, always >= 0.
	MS int64

	// Derived UTC calendar components. When HasTime is false, Year is 0 and
	// the key methods return TimeKeyUnknown.
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Weekday time.Weekday
}

// deriveTime fills the calendar components from Timestamp.
func (e *Event) deriveTime() {
	if !e.HasTime {
		return
	}
	t := e.Timestamp.UTC()
	e.Timestamp = t
	e.Year = t.Year()
	e.Month = t.Month()
	e.Day = t.Day()
	e.Hour = t.Hour()
	e.Weekday = t.Weekday()
}

// YearKey returns the year bucket key, e.g. "2021".
func (e *Event) YearKey() string {
	if !e.HasTime {
		return TimeKeyUnknown
	}
	return e.Timestamp.Format("2006")
}

// MonthKey returns the calendar month bucket key, e.g. "2021-03".
func (e *Event) MonthKey() string {
	if !e.HasTime {
		return TimeKeyUnknown
	}
	return e.Timestamp.Format("2006-01")
}

// DayKey returns the day bucket key, e.g. "2021-03-09".
func (e *Event) DayKey() string {
	if !e.HasTime {
		return TimeKeyUnknown
	}
	return e.Timestamp.Format("2006-01-02")
}

// TrackKey identifies a track within one artist's catalog. Track titles are
// only unique per artist, so entity buckets key on the pair.
func (e *Event) TrackKey() string {
	return e.Artist + " - " + e.Track
}

// AlbumKey identifies an album within one artist's catalog.
func (e *Event) AlbumKey() string {
	return e.Artist + " - " + e.Album
}

// dedupeKey is the exact-match identity used to collapse double-logged plays.
func (e *Event) dedupeKey() string {
	return DedupeKey(e.Artist, e.Track, e.RawTime)
}
