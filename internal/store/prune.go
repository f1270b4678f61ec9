package store

import (
	"context"
	"time"
)

// PruneAction tells Prune what to do with one scanned entry.
type PruneAction int

const (
	Keep PruneAction = iota
	Remove
	Stop // end the scan without touching this entry
)

// Prune walks prefix in ascending order and deletes the entries match marks
// Remove. A failed delete is handed to onErr (may be nil) and the walk goes
// on; only a scan failure aborts. It returns the number of deleted entries.
func Prune(ctx context.Context, s Store, prefix Key, match func(Entry) PruneAction, onErr func(Entry, error)) (int, error) {
	removed := 0
	for e, err := range s.Scan(ctx, prefix, ScanOptions{}) {
		if err != nil {
			return removed, err
		}
		switch match(e) {
		case Stop:
			return removed, nil
		case Keep:
			continue
		}
		if err := s.Delete(ctx, e.StoreKey()); err != nil {
			if onErr != nil {
				onErr(e, err)
			}
			continue
		}
		removed++
	}
	return removed, nil
}

// Before returns a match func for keys shaped prefix/.../{time}/...: entries
// whose time segment at position pos is before cutoff are removed, the first
// one at or after cutoff stops the scan. Entries with an unreadable segment
// are kept.
func Before(pos int, cutoff time.Time) func(Entry) PruneAction {
	return func(e Entry) PruneAction {
		segs := e.Segments()
		if pos >= len(segs) {
			return Keep
		}
		at, err := DecodeTime(segs[pos])
		if err != nil {
			return Keep
		}
		if at.Before(cutoff) {
			return Remove
		}
		return Stop
	}
}
