package instance

import (
	"maps"
	"slices"
	"testing"

	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/drawable"
	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/renderer"
	"github.com/gogpu/scenesync/trail"
)

// testHost runs frames the way the display does, with every assertion on.
type testHost struct {
	t     *testing.T
	root  *node.Node
	base  *Instance
	frame FrameID
	debug scenesync.DebugConfig
	webgl bool

	arena   *Arena
	bitmaps *drawable.BitmapCache
	shared  map[node.ID]*Instance

	links      []drawable.Drawable
	drawables  []drawable.Drawable
	intervals  []*drawable.ChangeInterval
	roots      []removal
	transforms map[Handle]*Instance

	disposedInstances int
	disposedDrawables int
	transformMarks    int
}

func newTestHost(t *testing.T, root *node.Node) *testHost {
	t.Helper()
	return &testHost{
		t:          t,
		root:       root,
		frame:      1,
		debug:      scenesync.DebugConfig{Assertions: true, SlowAssertions: true},
		arena:      NewArena(0),
		bitmaps:    drawable.NewBitmapCache(4),
		shared:     make(map[node.ID]*Instance),
		transforms: make(map[Handle]*Instance),
	}
}

func (h *testHost) MarkLinksDirty(d drawable.Drawable) { h.links = append(h.links, d) }
func (h *testHost) MarkDrawableForDisposal(d drawable.Drawable) {
	h.drawables = append(h.drawables, d)
}
func (h *testHost) MarkChangeIntervalToDispose(ci *drawable.ChangeInterval) {
	h.intervals = append(h.intervals, ci)
}
func (h *testHost) FrameID() FrameID                      { return h.frame }
func (h *testHost) Debug() scenesync.DebugConfig          { return h.debug }
func (h *testHost) IsWebGLAllowed() bool                  { return h.webgl }
func (h *testHost) Arena() *Arena                         { return h.arena }
func (h *testHost) Bitmaps() *drawable.BitmapCache        { return h.bitmaps }
func (h *testHost) DeleteSharedCanvasInstance(id node.ID) { delete(h.shared, id) }
func (h *testHost) MarkInstanceRootForDisposal(i *Instance) {
	h.roots = append(h.roots, removal{inst: i, handle: i.handle})
}
func (h *testHost) MarkTransformRootDirty(i *Instance, pass bool) {
	if pass {
		h.transforms[i.handle] = i
		h.transformMarks++
	}
}
func (h *testHost) SharedCanvasInstance(id node.ID) (*Instance, bool) {
	i, ok := h.shared[id]
	return i, ok
}
func (h *testHost) SetSharedCanvasInstance(id node.ID, i *Instance) { h.shared[id] = i }

// sync runs one frame and audits the result.
func (h *testHost) sync() {
	h.t.Helper()
	if h.base == nil {
		h.base = New(h, trail.New(h.root), true, false)
	}
	h.base.BaseSyncTree()
	for _, id := range slices.Sorted(maps.Keys(h.shared)) {
		h.shared[id].SyncShared()
	}

	for _, d := range h.links {
		drawable.UpdateLinks(d)
	}
	h.links = h.links[:0]
	for _, ci := range h.intervals {
		ci.Dispose()
	}
	h.intervals = h.intervals[:0]
	for _, r := range h.roots {
		if h.arena.IsLive(r.handle) && !r.inst.disposed {
			r.inst.Dispose()
			h.disposedInstances++
		}
	}
	h.roots = h.roots[:0]
	for _, d := range h.drawables {
		if !d.IsDisposed() {
			d.Dispose()
			h.disposedDrawables++
		}
	}
	h.drawables = h.drawables[:0]

	h.base.UpdateVisibility(true, true, true, false)
	for _, s := range h.shared {
		s.UpdateVisibility(true, true, true, false)
	}
	h.arena.Sweep()

	if err := h.base.Audit(); err != nil {
		h.t.Fatalf("frame %d audit: %v", h.frame, err)
	}
	if err := h.base.AuditVisibility(true); err != nil {
		h.t.Fatalf("frame %d visibility audit: %v", h.frame, err)
	}
	for _, s := range h.shared {
		if err := s.Audit(); err != nil {
			h.t.Fatalf("frame %d shared audit: %v", h.frame, err)
		}
	}
	h.frame++
}

// list returns the drawables stitched into the root backbone.
func (h *testHost) list() []drawable.Drawable {
	h.t.Helper()
	b, ok := h.base.groupDrawable.(*drawable.Backbone)
	if !ok {
		h.t.Fatalf("root group drawable is %T, want *drawable.Backbone", h.base.groupDrawable)
	}
	return b.Children()
}

type rectPainter struct {
	w, h float64
}

func (p rectPainter) PaintCanvas(dc *gg.Context) {
	dc.SetRGBA(0, 0, 1, 1)
	dc.DrawRectangle(0, 0, p.w, p.h)
	_ = dc.Fill()
}

// painted returns a named node paintable with the given renderers.
func painted(name string, supported renderer.Bitmask) *node.Node {
	n := node.NewNamed(name)
	n.SetPainter(rectPainter{w: 10, h: 10}, supported)
	return n
}

func group(name string, children ...*node.Node) *node.Node {
	n := node.NewNamed(name)
	for _, c := range children {
		if err := n.AddChild(c); err != nil {
			panic(err)
		}
	}
	return n
}

func mustInsert(t *testing.T, parent *node.Node, index int, child *node.Node) {
	t.Helper()
	if err := parent.InsertChild(index, child); err != nil {
		t.Fatalf("InsertChild: %v", err)
	}
}

func mustRemove(t *testing.T, parent, child *node.Node) {
	t.Helper()
	if err := parent.RemoveChild(child); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
}

func sameDrawables(a, b []drawable.Drawable) bool {
	return slices.Equal(a, b)
}
