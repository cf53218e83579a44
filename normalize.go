package spindash

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Fallback values substituted when an alias lookup finds nothing.
const (
	UnknownArtist = "Unknown Artist"
	UnknownTrack  = "Unknown Track"
	UnknownAlbum  = "Unknown Album"
	UnknownDevice = "Unknown Device"
)

// timeLayouts are the timestamp formats observed across export schema
// versions, tried in order. The legacy account export writes minute
// resolution with a space separator; the extended export writes RFC3339.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FieldAliases holds, for each canonical attribute, the record keys that may
// carry it, in priority order. The first present, non-empty candidate wins.
type FieldAliases struct {
	Timestamp []string
	Artist    []string
	Track     []string
	Album     []string
	MS        []string
	Device    []string
	TrackID   []string
}

// DefaultAliases covers the known export schema versions: the legacy account
// data export (camelCase keys) and the extended streaming history
// (snake_case master_metadata keys).
func DefaultAliases() FieldAliases {
	return FieldAliases{
		Timestamp: []string{"ts", "endTime", "end_time", "timestamp"},
		Artist:    []string{"master_metadata_album_artist_name", "artistName", "artist"},
		Track:     []string{"master_metadata_track_name", "trackName", "track"},
		Album:     []string{"master_metadata_album_album_name", "albumName", "album"},
		MS:        []string{"ms_played", "msPlayed", "millisecondsPlayed", "duration_ms", "ms"},
		Device:    []string{"platform", "device", "deviceName"},
		TrackID:   []string{"spotify_track_uri", "trackUri", "track_id"},
	}
}

// Normalizer turns raw export records into Events. It is a pure
// transformation with no side effects and is safe for concurrent use.
type Normalizer struct {
	Aliases FieldAliases
}

// NewNormalizer gets a Normalizer with the default alias configuration.
func NewNormalizer() *Normalizer {
	return &Normalizer{Aliases: DefaultAliases()}
}

// Lookup resolves an attribute through an ordered candidate list. Empty
// strings and nulls are treated the same as missing keys. The boolean result
// makes "no candidate matched" an explicit outcome rather than a sentinel
// value.
func Lookup(rec map[string]interface{}, candidates []string) (string, bool) {
	for _, key := range candidates {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		return s, true
	}
	return "", false
}

// LookupInt resolves a numeric attribute through an ordered candidate list.
// JSON decoding yields float64 for numbers, but exports have also been seen
// carrying durations as strings, so both are accepted.
func LookupInt(rec map[string]interface{}, candidates []string) (int64, bool) {
	for _, key := range candidates {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		case string:
			if n == "" {
				continue
			}
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				continue
			}
			return i, true
		}
	}
	return 0, false
}

// ParseTimestamp tries each known layout in order. Unparseable input is
// reported as absent (ok == false), never as an error, since records with
// bad timestamps are retained under the unknown time bucket.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Normalize converts one raw record into an Event. The only error condition
// is a record that isn't usable at all (no duration and no identifying
// metadata whatsoever); anything else gets fallbacks and flows on so the
// filter stage can classify it.
func (n *Normalizer) Normalize(rec map[string]interface{}) (Event, error) {
	if rec == nil {
		return Event{}, errors.New("nil record")
	}

	ev := Event{}

	raw, ok := Lookup(rec, n.Aliases.Timestamp)
	if ok {
		ev.RawTime = raw
		ev.Timestamp, ev.HasTime = ParseTimestamp(raw)
	}
	ev.deriveTime()

	ev.Artist, ok = Lookup(rec, n.Aliases.Artist)
	if !ok {
		ev.Artist = UnknownArtist
	}
	ev.Track, ok = Lookup(rec, n.Aliases.Track)
	if !ok {
		ev.Track = UnknownTrack
	}
	ev.Album, ok = Lookup(rec, n.Aliases.Album)
	if !ok {
		ev.Album = UnknownAlbum
	}
	ev.Device, ok = Lookup(rec, n.Aliases.Device)
	if !ok {
		ev.Device = UnknownDevice
	}
	ev.TrackID, _ = Lookup(rec, n.Aliases.TrackID)

	ms, ok := LookupInt(rec, n.Aliases.MS)
	if !ok && ev.Artist == UnknownArtist && ev.Track == UnknownTrack && ev.RawTime == "" {
		return Event{}, errors.Errorf("record has no recognizable fields: %v", rec)
	}
	if ms < 0 {
		ms = 0
	}
	ev.MS = ms

	return ev, nil
}
