package spindash

// Dedupe collapses events that represent the same physical play logged
// twice, which happens when exports with overlapping date ranges are merged.
// Two events are duplicates when artist, track, and the raw timestamp string
// match exactly; the first instance in input order is kept. Dedupe is
// idempotent.
func Dedupe(events []Event) []Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		key := ev.dedupeKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	return out
}

// SeenIndex is a persistent set of play identities. The merge tool uses one
// to make re-merging overlapping export files idempotent across runs;
// key-value backed implementations live in the boltdb and leveldb packages.
type SeenIndex interface {
	// Seen reports whether the key was added by this or any previous run.
	Seen(key string) (bool, error)
	// Add records the key.
	Add(key string) error
	Close() error
}

// DedupeKey builds the identity string for a play, for use with a SeenIndex.
func DedupeKey(artist, track, rawTime string) string {
	return artist + "\x00" + track + "\x00" + rawTime
}
