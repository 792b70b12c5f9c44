// Package window keeps the contiguous run of materialized calendar sections
// that backs the scrollable area.
package window

import "github.com/verte-zerg/dozycal/internal/calendar"

// Range is the span of dates a calendar may scroll through.
type Range struct {
	bounded bool
	start   calendar.Date
	end     calendar.Date
}

// Infinite returns an unbounded range.
func Infinite() Range {
	return Range{}
}

// Bounded returns the inclusive range [start, end].
func Bounded(start, end calendar.Date) Range {
	return Range{bounded: true, start: start, end: end}
}

// IsBounded reports whether the range has limits.
func (r Range) IsBounded() bool { return r.bounded }

// Bounds returns the limits of a bounded range.
func (r Range) Bounds() (start, end calendar.Date) { return r.start, r.end }

// Contains reports whether d lies within the range.
func (r Range) Contains(d calendar.Date) bool {
	if !r.bounded {
		return true
	}
	return !d.Before(r.start) && !d.After(r.end)
}

// Clamp returns d moved into the range.
func (r Range) Clamp(d calendar.Date) calendar.Date {
	if !r.bounded {
		return d
	}
	if d.Before(r.start) {
		return r.start
	}
	if d.After(r.end) {
		return r.end
	}
	return d
}
