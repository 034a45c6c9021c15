// Package scan describes and validates sequence ranges for timeline scans.
//
// A Range must have from, to and limit set explicitly:
//
//	r := scan.Forward().From(100).To(200).Limit(50)
//	if err := r.Validate(); err != nil { ... }
//
// From is inclusive and To exclusive in both directions, so a backward scan
// from 200 to 100 returns sequences 200 down to 101.
package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteRange means from, to or limit was never set.
	ErrIncompleteRange = errors.New("scan: incomplete range")
	// ErrInvalidRange means the bounds are negative or in the wrong order.
	ErrInvalidRange = errors.New("scan: invalid range")
)

// Direction is the iteration order of a scan.
type Direction int

const (
	DirectionForward Direction = iota
	DirectionBackward
)

// String returns "forward" or "backward".
func (d Direction) String() string {
	if d == DirectionBackward {
		return "backward"
	}
	return "forward"
}

// ParseDirection accepts "forward" and "backward" (and "", meaning forward).
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "forward":
		return DirectionForward, nil
	case "backward":
		return DirectionBackward, nil
	}
	return DirectionForward, fmt.Errorf("scan: unknown direction %q", s)
}

// Range is a scan request. Use Forward or Backward to build one; unset
// fields are tracked so Validate can reject them.
type Range struct {
	dir   Direction
	from  int64
	to    int64
	limit int64
	set   uint8
}

const (
	hasFrom uint8 = 1 << iota
	hasTo
	hasLimit
)

// Forward starts a range scanned in ascending sequence order.
func Forward() Range { return Range{dir: DirectionForward} }

// Backward starts a range scanned in descending sequence order.
func Backward() Range { return Range{dir: DirectionBackward} }

// New starts a range in the given direction.
func New(dir Direction) Range { return Range{dir: dir} }

// From sets the inclusive start sequence.
func (r Range) From(seq int64) Range { r.from = seq; r.set |= hasFrom; return r }

// To sets the exclusive end sequence.
func (r Range) To(seq int64) Range { r.to = seq; r.set |= hasTo; return r }

// Limit sets the maximum number of rows returned.
func (r Range) Limit(n int64) Range { r.limit = n; r.set |= hasLimit; return r }

func (r Range) Direction() Direction { return r.dir }
func (r Range) Start() int64         { return r.from }
func (r Range) End() int64           { return r.to }
func (r Range) Max() int64           { return r.limit }

// Validate reports ErrIncompleteRange before any ordering check, then
// ErrInvalidRange for negative values or bounds in the wrong order.
func (r Range) Validate() error {
	var missing []string
	if r.set&hasFrom == 0 {
		missing = append(missing, "from")
	}
	if r.set&hasTo == 0 {
		missing = append(missing, "to")
	}
	if r.set&hasLimit == 0 {
		missing = append(missing, "limit")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v not set", ErrIncompleteRange, missing)
	}
	if r.from < 0 || r.to < 0 {
		return fmt.Errorf("%w: negative bound (from=%d, to=%d)", ErrInvalidRange, r.from, r.to)
	}
	if r.limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidRange, r.limit)
	}
	switch r.dir {
	case DirectionForward:
		if r.from >= r.to {
			return fmt.Errorf("%w: forward scan needs from < to (from=%d, to=%d)", ErrInvalidRange, r.from, r.to)
		}
	case DirectionBackward:
		if r.from <= r.to {
			return fmt.Errorf("%w: backward scan needs from > to (from=%d, to=%d)", ErrInvalidRange, r.from, r.to)
		}
	default:
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidRange, r.dir)
	}
	return nil
}

// Resume returns a copy of r starting at next, used to continue a scan
// that stopped at its limit.
func (r Range) Resume(next int64) Range { return r.From(next) }
