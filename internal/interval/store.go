package interval

import (
	"fmt"
	"sort"
)

// Status is the answer to a point-in-time lookup.
type Status string

const (
	StatusFree   Status = "FREE"
	StatusLocked Status = "LOCKED"
)

// Pair is two intervals of the same resource whose ranges overlap.
type Pair struct {
	A Interval `json:"a"`
	B Interval `json:"b"`
}

// Store holds one resource's lock intervals sorted by (Start, End).
// Duplicates are allowed and kept. Not safe for concurrent use; the
// caller serializes access.
type Store struct {
	resourceID string
	entries    []Interval
}

func NewStore(resourceID string) *Store {
	return &Store{resourceID: resourceID}
}

func (s *Store) ResourceID() string { return s.resourceID }

// Len returns the number of stored intervals.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns the sorted intervals. Callers must treat the slice
// as read-only.
func (s *Store) Entries() []Interval { return s.entries }

// Insert places iv at its sorted position. Overlapping entries are
// accepted as-is; detecting them is what the collision queries are for.
func (s *Store) Insert(iv Interval) {
	idx := sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].Precedes(iv)
	})
	s.entries = append(s.entries, Interval{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = iv
}

// coveringIndex binary-searches for any entry containing t. Returns -1
// when no entry covers t. With multiple covering entries any one of
// them satisfies the callers, which only need existence.
func (s *Store) coveringIndex(t int64) int {
	lo, hi := 0, len(s.entries)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		e := s.entries[mid]
		switch {
		case e.End <= t:
			lo = mid + 1
		case e.Start > t:
			hi = mid - 1
		default:
			return mid
		}
	}
	return -1
}

// StatusAt reports whether any interval covers t.
func (s *Store) StatusAt(t int64) (Status, error) {
	if t < 0 {
		return StatusFree, fmt.Errorf("%w: t=%d", ErrInvalidTime, t)
	}
	if s.coveringIndex(t) >= 0 {
		return StatusLocked, nil
	}
	return StatusFree, nil
}

// HasCollisionAt reports whether two intervals overlap at point t.
// Only the sorted neighbors of a covering entry are inspected: any
// interval colliding with it at t also covers t, and among entries
// covering a common point the adjacent ones suffice to witness an
// overlapping pair.
func (s *Store) HasCollisionAt(t int64) (bool, error) {
	if t < 0 {
		return false, fmt.Errorf("%w: t=%d", ErrInvalidTime, t)
	}
	idx := s.coveringIndex(t)
	if idx < 0 {
		return false, nil
	}
	e := s.entries[idx]
	if idx > 0 && s.entries[idx-1].OverlapsWith(e) {
		return true, nil
	}
	if idx+1 < len(s.entries) && s.entries[idx+1].OverlapsWith(e) {
		return true, nil
	}
	return false, nil
}

// Collisions scans adjacent pairs in sort order and returns every
// overlapping pair, or just the first when findAll is false. Pairs of
// non-adjacent entries are never tested; with three or more intervals
// over one point not every pairwise combination is reported. Callers
// depend on that output shape.
func (s *Store) Collisions(findAll bool) []Pair {
	pairs := []Pair{}
	for i := 1; i < len(s.entries); i++ {
		if s.entries[i-1].OverlapsWith(s.entries[i]) {
			pairs = append(pairs, Pair{A: s.entries[i-1], B: s.entries[i]})
			if !findAll {
				return pairs
			}
		}
	}
	return pairs
}

// FirstCollision returns a zero-or-one element sequence.
func (s *Store) FirstCollision() []Pair {
	return s.Collisions(false)
}
