package drawable

import (
	"sync/atomic"

	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync/renderer"
)

var nextID atomic.Uint64

// Drawable is one unit of visual output: a self drawable painting a single
// node, or a group drawable containing other drawables.
type Drawable interface {
	ID() uint64
	Renderer() renderer.Bitmask
	Links() *Links

	Parent() Drawable
	SetParent(p Drawable)

	IsVisible() bool
	SetVisible(v bool)
	IsFittable() bool
	SetFittable(v bool)

	IsDisposed() bool
	Dispose()
}

// CanvasPainter is implemented by drawables that can rasterize themselves
// with gg.
type CanvasPainter interface {
	PaintCanvas(dc *gg.Context)
}

// dirtyMarker is implemented by containers whose cached output must be
// regenerated when a child changes.
type dirtyMarker interface {
	MarkDirty()
}

// Tracker receives the deferred work a sync pass schedules. The frame
// driver implements it.
type Tracker interface {
	// MarkLinksDirty queues d for UpdateLinks at the end of the frame.
	MarkLinksDirty(d Drawable)
	// MarkDrawableForDisposal queues d for Dispose at the end of the frame.
	MarkDrawableForDisposal(d Drawable)
	// MarkChangeIntervalToDispose queues ci for Dispose after stitching.
	MarkChangeIntervalToDispose(ci *ChangeInterval)
}

// Links holds the list pointers of a drawable.
type Links struct {
	// Next and Previous are the links being built this frame.
	Next, Previous Drawable
	// OldNext and OldPrevious are the links committed last frame.
	OldNext, OldPrevious Drawable

	dirty bool
}

// Dirty reports whether the pending links differ from the committed ones.
func (l *Links) Dirty() bool { return l.dirty }

// Base implements the bookkeeping shared by all drawables. Concrete
// drawables embed it and call init.
type Base struct {
	id       uint64
	renderer renderer.Bitmask
	links    Links
	parent   Drawable
	visible  bool
	fittable bool
	disposed bool
}

func (b *Base) init(r renderer.Bitmask) {
	*b = Base{
		id:       nextID.Add(1),
		renderer: r,
		visible:  true,
		fittable: true,
	}
}

// ID returns the unique drawable id.
func (b *Base) ID() uint64 { return b.id }

// Renderer returns the renderer bitmask the drawable was created for.
func (b *Base) Renderer() renderer.Bitmask { return b.renderer }

// Links returns the list pointers.
func (b *Base) Links() *Links { return &b.links }

// Parent returns the containing group drawable, if any.
func (b *Base) Parent() Drawable { return b.parent }

// SetParent sets the containing group drawable.
func (b *Base) SetParent(p Drawable) { b.parent = p }

// IsVisible reports the drawable's own visibility.
func (b *Base) IsVisible() bool { return b.visible }

// SetVisible updates the visibility and dirties cached ancestors.
func (b *Base) SetVisible(v bool) {
	if b.visible == v {
		return
	}
	b.visible = v
	if m, ok := b.parent.(dirtyMarker); ok {
		m.MarkDirty()
	}
}

// IsFittable reports whether the drawable may fit its bounds.
func (b *Base) IsFittable() bool { return b.fittable }

// SetFittable updates the fittable flag.
func (b *Base) SetFittable(v bool) { b.fittable = v }

// IsDisposed reports whether Dispose was called.
func (b *Base) IsDisposed() bool { return b.disposed }

// Dispose releases the drawable. Links are cleared so a disposed drawable
// never keeps neighbours alive.
func (b *Base) Dispose() {
	b.disposed = true
	b.parent = nil
	b.links = Links{}
}

// Connect links a before b in the pending list.
func Connect(a, b Drawable, t Tracker) {
	la, lb := a.Links(), b.Links()
	if la.Next == b {
		return
	}
	if la.Next != nil {
		ln := la.Next.Links()
		ln.Previous = nil
		markLinksDirty(la.Next, t)
	}
	if lb.Previous != nil {
		lp := lb.Previous.Links()
		lp.Next = nil
		markLinksDirty(lb.Previous, t)
	}
	la.Next = b
	lb.Previous = a
	markLinksDirty(a, t)
	markLinksDirty(b, t)
}

// DisconnectBefore cuts the pending link in front of d.
func DisconnectBefore(d Drawable, t Tracker) {
	l := d.Links()
	if l.Previous == nil {
		return
	}
	prev := l.Previous
	prev.Links().Next = nil
	l.Previous = nil
	markLinksDirty(prev, t)
	markLinksDirty(d, t)
}

// DisconnectAfter cuts the pending link behind d.
func DisconnectAfter(d Drawable, t Tracker) {
	l := d.Links()
	if l.Next == nil {
		return
	}
	next := l.Next
	next.Links().Previous = nil
	l.Next = nil
	markLinksDirty(next, t)
	markLinksDirty(d, t)
}

func markLinksDirty(d Drawable, t Tracker) {
	l := d.Links()
	if l.dirty {
		return
	}
	l.dirty = true
	if t != nil {
		t.MarkLinksDirty(d)
	}
}

// UpdateLinks commits the pending links of d.
func UpdateLinks(d Drawable) {
	l := d.Links()
	l.OldNext = l.Next
	l.OldPrevious = l.Previous
	l.dirty = false
}

// Walk returns the pending list from first to last inclusive. It stops at
// the end of the list if last is never reached.
func Walk(first, last Drawable) []Drawable {
	var out []Drawable
	for d := first; d != nil; d = d.Links().Next {
		out = append(out, d)
		if d == last {
			break
		}
	}
	return out
}

// WalkOld is Walk over the committed links.
func WalkOld(first, last Drawable) []Drawable {
	var out []Drawable
	for d := first; d != nil; d = d.Links().OldNext {
		out = append(out, d)
		if d == last {
			break
		}
	}
	return out
}

// MarkForDisposal queues d with the tracker, or disposes it immediately
// without one.
func MarkForDisposal(d Drawable, t Tracker) {
	if t == nil {
		d.Dispose()
		return
	}
	t.MarkDrawableForDisposal(d)
}

// Invalidate marks the cached output holding d as stale.
func Invalidate(d Drawable) {
	if d == nil {
		return
	}
	if m, ok := d.(dirtyMarker); ok {
		m.MarkDirty()
		return
	}
	if m, ok := d.Parent().(dirtyMarker); ok {
		m.MarkDirty()
	}
}
