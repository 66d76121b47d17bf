package drawable

import (
	"slices"

	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/renderer"
)

// StitchStats summarizes one Stitch call.
type StitchStats struct {
	// Intervals is the number of change intervals received.
	Intervals int
	// Walked is the number of drawables re-read from changed runs.
	Walked int
	// Added and Removed count drawables entering or leaving the container.
	Added, Removed int
	// FullRebuild is set when the interval chain could not be applied
	// incrementally and the whole list was re-walked.
	FullRebuild bool
}

// Container is the child bookkeeping shared by group drawables.
type Container struct {
	Base
	self     Drawable
	debug    scenesync.DebugConfig
	children []Drawable
	dirty    bool
	stitches int
	stats    StitchStats
}

func (c *Container) initContainer(self Drawable, r renderer.Bitmask, debug scenesync.DebugConfig) {
	c.Base.init(r)
	c.self = self
	c.debug = debug
	c.children = c.children[:0]
	c.dirty = true
}

// Children returns the stitched children in paint order. The slice must
// not be modified.
func (c *Container) Children() []Drawable { return c.children }

// StitchCount returns how many times Stitch ran.
func (c *Container) StitchCount() int { return c.stitches }

// LastStitch returns the statistics of the latest Stitch.
func (c *Container) LastStitch() StitchStats { return c.stats }

// MarkDirty flags cached output as stale and propagates upwards.
func (c *Container) MarkDirty() {
	if c.dirty {
		return
	}
	c.dirty = true
	if m, ok := c.parent.(dirtyMarker); ok {
		m.MarkDirty()
	}
}

// IsDirty reports whether cached output is stale.
func (c *Container) IsDirty() bool { return c.dirty }

// Stitch brings the container's children in line with the pending list
// [first..last], trusting everything outside the change intervals to be
// unchanged since the previous Stitch.
func (c *Container) Stitch(first, last Drawable, firstInterval, lastInterval *ChangeInterval) {
	c.stitches++
	stats := StitchStats{}
	if firstInterval != nil {
		stats.Intervals = firstInterval.Count()
	}

	next, ok := c.stitchIncremental(first, last, firstInterval, lastInterval, &stats)
	if ok && c.debug.SlowAssertions {
		full := Walk(first, last)
		c.debug.AssertSlow(slices.Equal(next, full), "stitch",
			"incremental stitch of #%d produced %d drawables, full walk %d", c.id, len(next), len(full))
	}
	if !ok {
		scenesync.Logger().Warn("stitch: change intervals not applicable, rebuilding",
			"drawable", c.id, "intervals", stats.Intervals)
		next = Walk(first, last)
		stats.FullRebuild = true
		stats.Walked = len(next)
	}

	c.reparent(next, &stats)
	c.children = next
	c.stats = stats
	c.MarkDirty()
}

func (c *Container) stitchIncremental(first, last Drawable, firstInterval, lastInterval *ChangeInterval, stats *StitchStats) ([]Drawable, bool) {
	if first == nil {
		return nil, true
	}
	if firstInterval == nil {
		return slices.Clone(c.children), true
	}

	oldIndex := make(map[Drawable]int, len(c.children))
	for i, d := range c.children {
		oldIndex[d] = i
	}
	out := make([]Drawable, 0, len(c.children)+4)
	copyRun := func(from, to Drawable) bool {
		i, ok1 := oldIndex[from]
		j, ok2 := oldIndex[to]
		if !ok1 || !ok2 || j < i {
			return false
		}
		run := c.children[i : j+1]
		for k := 1; k < len(run); k++ {
			if run[k-1].Links().Next != run[k] {
				return false
			}
		}
		out = append(out, run...)
		return true
	}

	runStart := first
	for ci := firstInterval; ci != nil; ci = ci.Next {
		ci.Constrict()
		if ci.Before != nil {
			if runStart == nil || !copyRun(runStart, ci.Before) {
				return nil, false
			}
		}

		var d Drawable
		switch {
		case ci.Before == nil:
			d = first
		case ci.Before != last:
			d = ci.Before.Links().Next
		}
		for d != nil && d != ci.After {
			out = append(out, d)
			stats.Walked++
			if d == last {
				d = nil
				break
			}
			d = d.Links().Next
		}

		if ci.After == nil {
			runStart = nil
			break
		}
		if d == nil {
			return nil, false
		}
		runStart = ci.After
		if ci == lastInterval {
			break
		}
	}
	if runStart != nil && !copyRun(runStart, last) {
		return nil, false
	}
	return out, true
}

func (c *Container) reparent(next []Drawable, stats *StitchStats) {
	keep := make(map[Drawable]struct{}, len(next))
	for _, d := range next {
		keep[d] = struct{}{}
		if d.Parent() != c.self {
			d.SetParent(c.self)
			stats.Added++
		}
	}
	for _, d := range c.children {
		if _, ok := keep[d]; ok {
			continue
		}
		if d.Parent() == c.self {
			d.SetParent(nil)
		}
		stats.Removed++
	}
}

// paintChildren rasterizes the children in order.
func (c *Container) paintChildren(dc *gg.Context) {
	for _, d := range c.children {
		if p, ok := d.(CanvasPainter); ok && !d.IsDisposed() {
			p.PaintCanvas(dc)
		}
	}
}

// Dispose detaches the children and releases the container.
func (c *Container) Dispose() {
	for _, d := range c.children {
		if d.Parent() == c.self {
			d.SetParent(nil)
		}
	}
	c.children = nil
	c.Base.Dispose()
}
