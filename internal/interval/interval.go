package interval

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInterval is returned for negative or inverted bounds.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrInvalidTime is returned for negative query times.
	ErrInvalidTime = errors.New("invalid time")
)

// Interval is a half-open time range [Start, End). Values are immutable
// after construction; always build them through New.
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// New validates the bounds: both non-negative and Start strictly less
// than End (zero-length ranges are rejected).
func New(start, end int64) (Interval, error) {
	if start < 0 || end < 0 {
		return Interval{}, fmt.Errorf("%w: negative bound [%d, %d)", ErrInvalidInterval, start, end)
	}
	if start >= end {
		return Interval{}, fmt.Errorf("%w: start %d >= end %d", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// OverlapsWith reports whether the two ranges share at least one point.
// Half-open semantics: touching endpoints do not overlap.
func (i Interval) OverlapsWith(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Precedes is the sort order: by Start, then by End. Strict — an
// interval never precedes itself.
func (i Interval) Precedes(other Interval) bool {
	if i.Start != other.Start {
		return i.Start < other.Start
	}
	return i.End < other.End
}

// Contains reports whether t falls inside [Start, End).
func (i Interval) Contains(t int64) bool {
	return i.Start <= t && t < i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d, %d)", i.Start, i.End)
}
