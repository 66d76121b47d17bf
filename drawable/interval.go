package drawable

import (
	"fmt"
	"sync"
)

// ChangeInterval describes a run of the drawable list that may have changed
// this frame. Before and After are the unchanged drawables bounding the
// run; a nil bound is open, extending the run to the start (Before) or end
// (After) of the enclosing list. Intervals of one pass are chained through
// Next in list order.
type ChangeInterval struct {
	Before Drawable
	After  Drawable
	Next   *ChangeInterval
}

var intervalPool = sync.Pool{
	New: func() any { return new(ChangeInterval) },
}

// NewChangeInterval takes an interval from the pool and schedules it for
// disposal with t once the frame is stitched.
func NewChangeInterval(before, after Drawable, t Tracker) *ChangeInterval {
	ci := intervalPool.Get().(*ChangeInterval)
	ci.Before = before
	ci.After = after
	ci.Next = nil
	if t != nil {
		t.MarkChangeIntervalToDispose(ci)
	}
	return ci
}

// Dispose clears the interval and returns it to the pool.
func (ci *ChangeInterval) Dispose() {
	ci.Before = nil
	ci.After = nil
	ci.Next = nil
	intervalPool.Put(ci)
}

// IsBeforeOpen reports whether the interval extends to the list start.
func (ci *ChangeInterval) IsBeforeOpen() bool { return ci.Before == nil }

// IsAfterOpen reports whether the interval extends to the list end.
func (ci *ChangeInterval) IsAfterOpen() bool { return ci.After == nil }

// IsEmpty reports whether the interval covers no drawables: both bounds are
// set and adjacent in the pending list.
func (ci *ChangeInterval) IsEmpty() bool {
	return ci.Before != nil && ci.After != nil && ci.Before.Links().Next == ci.After
}

// Constrict shrinks the interval from both sides while the bounding
// drawables' neighbours are unchanged since last frame. It returns true if
// the interval became empty.
func (ci *ChangeInterval) Constrict() bool {
	if ci.IsEmpty() {
		return true
	}
	for ci.Before != nil {
		l := ci.Before.Links()
		if l.Next == nil || l.Next != l.OldNext || l.Next == ci.After {
			break
		}
		ci.Before = l.Next
	}
	for ci.After != nil {
		l := ci.After.Links()
		if l.Previous == nil || l.Previous != l.OldPrevious || l.Previous == ci.Before {
			break
		}
		ci.After = l.Previous
	}
	return ci.IsEmpty()
}

// Count returns the number of intervals chained from ci.
func (ci *ChangeInterval) Count() int {
	n := 0
	for c := ci; c != nil; c = c.Next {
		n++
	}
	return n
}

func (ci *ChangeInterval) String() string {
	id := func(d Drawable) string {
		if d == nil {
			return "open"
		}
		return fmt.Sprintf("#%d", d.ID())
	}
	return fmt.Sprintf("(%s..%s)", id(ci.Before), id(ci.After))
}
