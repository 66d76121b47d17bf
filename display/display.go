package display

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/drawable"
	"github.com/gogpu/scenesync/instance"
	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/trail"
)

// ErrDisposed is returned by operations on a disposed Display.
var ErrDisposed = errors.New("display: disposed")

// FrameStats summarizes one UpdateDisplay call.
type FrameStats struct {
	// Frame is the id of the frame that was synchronized.
	Frame instance.FrameID
	// LinksCommitted is the number of drawables whose links were committed.
	LinksCommitted int
	// IntervalsDisposed is the number of change intervals released.
	IntervalsDisposed int
	// InstancesDisposed is the number of detached instance roots disposed.
	InstancesDisposed int
	// DrawablesDisposed is the number of drawables disposed.
	DrawablesDisposed int
	// TransformRoots is the number of transform roots validated.
	TransformRoots int
	// SharedInstances is the number of shared canvas cache instances.
	SharedInstances int
	// LiveInstances is the number of instances allocated from the arena.
	LiveInstances int
	// BranchSwept is the number of branch memo entries dropped.
	BranchSwept int
	// BitmapBytes is the memory held by canvas cache bitmaps.
	BitmapBytes int64
	// Duration is the wall time of the frame.
	Duration time.Duration
}

func (s FrameStats) String() string {
	return fmt.Sprintf("frame %d: %d live, %d links, %d intervals, %d instances and %d drawables disposed, %v",
		s.Frame, s.LiveInstances, s.LinksCommitted, s.IntervalsDisposed,
		s.InstancesDisposed, s.DrawablesDisposed, s.Duration)
}

type instanceRef struct {
	inst   *instance.Instance
	handle instance.Handle
}

// Display synchronizes the instance tree of a root node once per frame.
//
// Display is not safe for concurrent use. Scene graph mutations must not
// run concurrently with UpdateDisplay.
type Display struct {
	root *node.Node
	opts options

	frame   instance.FrameID
	arena   *instance.Arena
	bitmaps *drawable.BitmapCache
	base    *instance.Instance

	shared map[node.ID]*instance.Instance

	linksDirty         []drawable.Drawable
	drawablesToDispose []drawable.Drawable
	intervalsToDispose []*drawable.ChangeInterval
	rootsToDispose     []instanceRef
	transformRoots     map[instance.Handle]instanceRef

	disposed bool
	last     FrameStats
}

// New creates a display for root. No instances exist until the first
// UpdateDisplay.
func New(root *node.Node, opts ...Option) *Display {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := &Display{
		root: root,
		opts: o,
		// zero never matches a frame
		frame:          1,
		arena:          instance.NewArena(o.branchLimit),
		bitmaps:        drawable.NewBitmapCache(o.bitmapMB),
		shared:         make(map[node.ID]*instance.Instance),
		transformRoots: make(map[instance.Handle]instanceRef),
	}
	scenesync.Logger().Info("display created",
		"root", root.String(), "width", o.width, "height", o.height, "webgl", o.webgl)
	return d
}

// Root returns the root node.
func (d *Display) Root() *node.Node { return d.root }

// BaseInstance returns the root instance, or nil before the first frame.
func (d *Display) BaseInstance() *instance.Instance { return d.base }

// Size returns the canvas size used by Paint.
func (d *Display) Size() (width, height int) { return d.opts.width, d.opts.height }

// LastFrame returns the stats of the most recent frame.
func (d *Display) LastFrame() FrameStats { return d.last }

// FrameID returns the id of the frame being prepared. Stamps made between
// frames refer to the next UpdateDisplay.
func (d *Display) FrameID() instance.FrameID { return d.frame }

// Debug returns the assertion configuration.
func (d *Display) Debug() scenesync.DebugConfig { return d.opts.debug }

// IsWebGLAllowed reports whether WebGL drawables may be created.
func (d *Display) IsWebGLAllowed() bool { return d.opts.webgl }

// Arena returns the instance allocator.
func (d *Display) Arena() *instance.Arena { return d.arena }

// Bitmaps returns the bitmap cache of canvas cache drawables.
func (d *Display) Bitmaps() *drawable.BitmapCache { return d.bitmaps }

// MarkLinksDirty queues dr for a link commit at the end of the frame.
func (d *Display) MarkLinksDirty(dr drawable.Drawable) {
	d.linksDirty = append(d.linksDirty, dr)
}

// MarkDrawableForDisposal queues dr for disposal at the end of the frame.
func (d *Display) MarkDrawableForDisposal(dr drawable.Drawable) {
	d.drawablesToDispose = append(d.drawablesToDispose, dr)
}

// MarkChangeIntervalToDispose queues ci for release after stitching.
func (d *Display) MarkChangeIntervalToDispose(ci *drawable.ChangeInterval) {
	d.intervalsToDispose = append(d.intervalsToDispose, ci)
}

// MarkInstanceRootForDisposal queues a detached subtree for disposal.
func (d *Display) MarkInstanceRootForDisposal(i *instance.Instance) {
	d.rootsToDispose = append(d.rootsToDispose, instanceRef{inst: i, handle: i.Handle()})
}

// MarkTransformRootDirty records that i roots an independent transform.
func (d *Display) MarkTransformRootDirty(i *instance.Instance, passTransform bool) {
	if !passTransform {
		delete(d.transformRoots, i.Handle())
		return
	}
	d.transformRoots[i.Handle()] = instanceRef{inst: i, handle: i.Handle()}
}

// SharedCanvasInstance returns the shared cache instance of a node.
func (d *Display) SharedCanvasInstance(id node.ID) (*instance.Instance, bool) {
	i, ok := d.shared[id]
	return i, ok
}

// SetSharedCanvasInstance registers the shared cache instance of a node.
func (d *Display) SetSharedCanvasInstance(id node.ID, i *instance.Instance) {
	d.shared[id] = i
}

// DeleteSharedCanvasInstance drops the registration of a node.
func (d *Display) DeleteSharedCanvasInstance(id node.ID) {
	delete(d.shared, id)
}

// SharedInstanceCount returns the number of registered shared instances.
func (d *Display) SharedInstanceCount() int { return len(d.shared) }

// UpdateDisplay synchronizes the instance tree with the scene graph,
// performs the deferred work the pass scheduled and advances the frame.
func (d *Display) UpdateDisplay() (FrameStats, error) {
	if d.disposed {
		return FrameStats{}, ErrDisposed
	}
	start := time.Now()
	stats := FrameStats{Frame: d.frame}
	log := scenesync.Logger()

	if d.base == nil {
		d.base = instance.New(d, trail.New(d.root), true, false)
	}
	d.base.BaseSyncTree()
	d.syncShared()

	stats.LinksCommitted = len(d.linksDirty)
	for _, dr := range d.linksDirty {
		drawable.UpdateLinks(dr)
	}
	clear(d.linksDirty)
	d.linksDirty = d.linksDirty[:0]

	stats.IntervalsDisposed = len(d.intervalsToDispose)
	for _, ci := range d.intervalsToDispose {
		ci.Dispose()
	}
	clear(d.intervalsToDispose)
	d.intervalsToDispose = d.intervalsToDispose[:0]

	for _, r := range d.rootsToDispose {
		if d.arena.IsLive(r.handle) && !r.inst.IsDisposed() {
			r.inst.Dispose()
			stats.InstancesDisposed++
		}
	}
	clear(d.rootsToDispose)
	d.rootsToDispose = d.rootsToDispose[:0]

	for _, dr := range d.drawablesToDispose {
		if !dr.IsDisposed() {
			dr.Dispose()
			stats.DrawablesDisposed++
		}
	}
	clear(d.drawablesToDispose)
	d.drawablesToDispose = d.drawablesToDispose[:0]

	d.base.UpdateVisibility(true, true, true, false)
	for _, id := range slices.Sorted(maps.Keys(d.shared)) {
		d.shared[id].UpdateVisibility(true, true, true, false)
	}

	stats.TransformRoots = d.validateTransforms()
	stats.BranchSwept = d.arena.Sweep()

	if d.opts.debug.Assertions {
		d.audit()
	}

	as := d.arena.Stats()
	stats.LiveInstances = as.Live
	stats.SharedInstances = len(d.shared)
	stats.BitmapBytes = d.bitmaps.Stats().Size
	stats.Duration = time.Since(start)
	if d.opts.metrics {
		recordFrame(stats)
	}
	log.Debug("frame done",
		"frame", uint64(stats.Frame),
		"live", stats.LiveInstances,
		"links", stats.LinksCommitted,
		"disposedInstances", stats.InstancesDisposed,
		"disposedDrawables", stats.DrawablesDisposed)

	d.frame++
	d.last = stats
	return stats, nil
}

// syncShared syncs every registered shared cache instance once. Syncing
// one may register another, so it loops until nothing new appears.
func (d *Display) syncShared() {
	done := make(map[node.ID]bool, len(d.shared))
	for {
		pending := false
		for _, id := range slices.Sorted(maps.Keys(d.shared)) {
			if done[id] {
				continue
			}
			done[id] = true
			pending = true
			d.shared[id].SyncShared()
		}
		if !pending {
			return
		}
	}
}

// validateTransforms refreshes the cached trail matrices of the recorded
// transform roots and drops the ones that were disposed.
func (d *Display) validateTransforms() int {
	n := 0
	for h, r := range d.transformRoots {
		if !d.arena.IsLive(r.handle) || r.inst.IsDisposed() {
			delete(d.transformRoots, h)
			continue
		}
		r.inst.TrailMatrix()
		n++
	}
	return n
}

func (d *Display) audit() {
	check := func(err error) {
		if err == nil {
			return
		}
		var inv *scenesync.InvariantError
		if errors.As(err, &inv) {
			panic(err)
		}
		panic(&scenesync.InvariantError{Scope: "display", Msg: err.Error()})
	}
	check(d.base.Audit())
	check(d.base.AuditVisibility(true))
	for _, id := range slices.Sorted(maps.Keys(d.shared)) {
		s := d.shared[id]
		check(s.Audit())
		check(s.AuditVisibility(true))
	}
}

// Paint renders the drawable list of the last frame into dc.
func (d *Display) Paint(dc *gg.Context) error {
	if d.disposed {
		return ErrDisposed
	}
	if d.base == nil {
		return nil
	}
	if p, ok := d.base.GroupDrawable().(drawable.CanvasPainter); ok {
		p.PaintCanvas(dc)
	}
	return nil
}

// Render paints the last frame into a new context of the display size.
// The caller must Close the returned context.
func (d *Display) Render() (*gg.Context, error) {
	dc := gg.NewContext(d.opts.width, d.opts.height)
	if err := d.Paint(dc); err != nil {
		dc.Close()
		return nil, err
	}
	return dc, nil
}

// SavePNG paints the last frame and writes it to path.
func (d *Display) SavePNG(path string) error {
	dc, err := d.Render()
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("display: save png: %w", err)
	}
	return nil
}

// Dispose releases the instance tree, the shared cache instances and the
// bitmap cache. Later calls to UpdateDisplay return ErrDisposed.
func (d *Display) Dispose() {
	if d.disposed {
		return
	}
	if d.base != nil {
		d.base.Dispose()
		d.base = nil
	}
	// shared instances normally go with their last placeholder
	for _, id := range slices.Sorted(maps.Keys(d.shared)) {
		if s, ok := d.shared[id]; ok && !s.IsDisposed() {
			s.Dispose()
		}
	}
	clear(d.shared)
	for _, dr := range d.drawablesToDispose {
		if !dr.IsDisposed() {
			dr.Dispose()
		}
	}
	d.drawablesToDispose = nil
	for _, ci := range d.intervalsToDispose {
		ci.Dispose()
	}
	d.intervalsToDispose = nil
	d.linksDirty = nil
	d.rootsToDispose = nil
	clear(d.transformRoots)
	d.bitmaps.InvalidateAll()
	d.disposed = true
	scenesync.Logger().Info("display disposed", "root", d.root.String())
}
