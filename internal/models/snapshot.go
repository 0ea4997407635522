package models

import (
	"time"
)

// StatusEntry is one availability reading, in the order it was read from
// the remote payload.
type StatusEntry struct {
	Key       ProductKey
	Available bool
}

// Snapshot is the availability of every product in one category at one
// point in time. A snapshot is never modified after BuildSnapshot returns.
type Snapshot struct {
	Category  Category
	FetchedAt time.Time

	status map[ProductKey]bool
	order  []ProductKey
}

// BuildSnapshot applies entries in order. When a key repeats, the later
// entry wins.
func BuildSnapshot(category Category, fetchedAt time.Time, entries []StatusEntry) *Snapshot {
	s := &Snapshot{
		Category:  category,
		FetchedAt: fetchedAt,
		status:    make(map[ProductKey]bool, len(entries)),
		order:     make([]ProductKey, 0, len(entries)),
	}
	for _, e := range entries {
		if _, seen := s.status[e.Key]; !seen {
			s.order = append(s.order, e.Key)
		}
		s.status[e.Key] = e.Available
	}
	return s
}

// Lookup returns the availability of key and whether the snapshot knows it.
func (s *Snapshot) Lookup(key ProductKey) (available, ok bool) {
	if s == nil {
		return false, false
	}
	available, ok = s.status[key]
	return available, ok
}

// Has reports whether the snapshot contains key.
func (s *Snapshot) Has(key ProductKey) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Len returns the number of products in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Keys returns the products in first-seen order.
func (s *Snapshot) Keys() []ProductKey {
	if s == nil {
		return nil
	}
	keys := make([]ProductKey, len(s.order))
	copy(keys, s.order)
	return keys
}

// Entries returns the snapshot contents in first-seen order.
func (s *Snapshot) Entries() []StatusEntry {
	if s == nil {
		return nil
	}
	entries := make([]StatusEntry, 0, len(s.order))
	for _, k := range s.order {
		entries = append(entries, StatusEntry{Key: k, Available: s.status[k]})
	}
	return entries
}
