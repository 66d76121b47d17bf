package instance

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync/drawable"
	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/renderer"
	"github.com/gogpu/scenesync/trail"
)

var nextInstanceID atomic.Uint64

// RenderState is the inferred decision of how an instance is drawn.
type RenderState struct {
	// PreferredRenderers is the renderer order inherited from ancestors
	// and refined by the node's renderer hint.
	PreferredRenderers renderer.Bitmask
	// IsUnderCanvasCache is set inside a canvas cache (including the
	// cache root itself); such subtrees paint with Canvas only.
	IsUnderCanvasCache bool

	IsBackbone                     bool
	IsTransformed                  bool
	IsVisibilityApplied            bool
	IsInstanceCanvasCache          bool
	IsSharedCanvasCacheSelf        bool
	IsSharedCanvasCachePlaceholder bool
	// AppliesInlineEffects is set when opacity, clip or filters are
	// folded into the technology group instead of a group drawable.
	AppliesInlineEffects bool

	SelfRenderer        renderer.Bitmask
	GroupRenderer       renderer.Bitmask
	SharedCacheRenderer renderer.Bitmask
}

type removal struct {
	inst   *Instance
	handle Handle
}

// Instance is one occurrence of a node in a display.
type Instance struct {
	host   Host
	handle Handle
	id     uint64

	trail                   *trail.Trail
	node                    *node.Node
	isDisplayRoot           bool
	isSharedCanvasCacheRoot bool
	stateless               bool
	disposed                bool

	parent    *Instance
	oldParent *Instance
	children  []*Instance

	sharedCacheInstance    *Instance
	externalReferenceCount int
	syncFrame              FrameID

	rt  relativeTransform
	fit fittability

	state                   RenderState
	groupChanged            bool
	cascadingStateChange    bool
	anyStateChange          bool
	incompatibleStateChange bool
	renderStateDirtyFrame   FrameID
	skipPruningFrame        FrameID

	selfDrawable        *drawable.SelfDrawable
	groupDrawable       drawable.Drawable
	sharedCacheDrawable *drawable.SharedCanvasCache
	firstDrawable       drawable.Drawable
	lastDrawable        drawable.Drawable
	firstInnerDrawable  drawable.Drawable
	lastInnerDrawable   drawable.Drawable
	firstChangeInterval *drawable.ChangeInterval
	lastChangeInterval  *drawable.ChangeInterval

	stitchChangeFrame      FrameID
	stitchChangeBefore     FrameID
	stitchChangeAfter      FrameID
	stitchChangeOnChildren FrameID
	stitchChangeIncluded   bool
	beforeStableIndex      int
	afterStableIndex       int
	addRemoveCounter       int
	removalCheckList       []removal

	visible              bool
	relativeVisible      bool
	selfVisible          bool
	voicingVisible       bool
	visibilityDirty      bool
	childVisibilityDirty bool

	listeners listenerSet

	// VisibleChange fires with the new global visibility.
	VisibleChange node.Emitter[bool]
	// RelativeVisibleChange fires with the new visibility relative to the
	// nearest visibility root.
	RelativeVisibleChange node.Emitter[bool]
	// SelfVisibleChange fires with the new self drawable visibility.
	SelfVisibleChange node.Emitter[bool]
	// CanVoiceChange fires when visible && voicingVisible changes.
	CanVoiceChange node.Emitter[bool]
}

// New creates a stateless instance for tr from h's arena. isDisplayRoot
// marks the root of a display; isSharedCanvasCacheRoot marks the root of
// a shared canvas cache.
func New(h Host, tr *trail.Trail, isDisplayRoot, isSharedCanvasCacheRoot bool) *Instance {
	i := h.Arena().alloc()
	i.initialize(h, tr, isDisplayRoot, isSharedCanvasCacheRoot)
	return i
}

func (i *Instance) initialize(h Host, tr *trail.Trail, isDisplayRoot, isSharedCanvasCacheRoot bool) {
	if !tr.IsImmutable() {
		tr.SetImmutable()
	}
	frame := h.FrameID()

	i.host = h
	i.id = nextInstanceID.Add(1)
	i.trail = tr
	i.node = tr.LastNode()
	i.isDisplayRoot = isDisplayRoot
	i.isSharedCanvasCacheRoot = isSharedCanvasCacheRoot
	i.stateless = true
	i.state = RenderState{IsUnderCanvasCache: isSharedCanvasCacheRoot}
	i.renderStateDirtyFrame = frame
	i.skipPruningFrame = frame
	i.stitchChangeFrame = frame
	i.cleanSyncTreeResults()

	i.visible = true
	i.relativeVisible = true
	i.selfVisible = true
	i.voicingVisible = true
	i.visibilityDirty = true
	i.childVisibilityDirty = true

	i.rt.initialize(i)
	i.fit.initialize(i)
	i.node.AddInstance(i)
}

// reset clears every field for reuse, keeping slice capacity.
func (i *Instance) reset() {
	children := i.children
	clear(children)
	checks := i.removalCheckList
	clear(checks)
	*i = Instance{}
	i.children = children[:0]
	i.removalCheckList = checks[:0]
}

// cleanSyncTreeResults resets the per-pass results a parent consumes.
func (i *Instance) cleanSyncTreeResults() {
	i.beforeStableIndex = len(i.children)
	i.afterStableIndex = -1
	i.firstChangeInterval = nil
	i.lastChangeInterval = nil
}

// InstanceID returns the unique instance id.
func (i *Instance) InstanceID() uint64 { return i.id }

// ID is InstanceID.
func (i *Instance) ID() uint64 { return i.id }

// Handle returns the arena handle.
func (i *Instance) Handle() Handle { return i.handle }

// Trail returns the immutable trail.
func (i *Instance) Trail() *trail.Trail { return i.trail }

// Node returns the node being instanced.
func (i *Instance) Node() *node.Node { return i.node }

// Parent returns the parent instance or nil.
func (i *Instance) Parent() *Instance { return i.parent }

// Children returns the child instances in node order. The slice must not
// be modified.
func (i *Instance) Children() []*Instance { return i.children }

// IsStateless reports whether SyncTree has not run yet.
func (i *Instance) IsStateless() bool { return i.stateless }

// IsDisposed reports whether the instance was disposed.
func (i *Instance) IsDisposed() bool { return i.disposed }

// IsDisplayRoot reports whether this is the root of a display.
func (i *Instance) IsDisplayRoot() bool { return i.isDisplayRoot }

// IsSharedCanvasCacheRoot reports whether this roots a shared cache.
func (i *Instance) IsSharedCanvasCacheRoot() bool { return i.isSharedCanvasCacheRoot }

// SharedCacheInstance returns the shared instance a placeholder draws.
func (i *Instance) SharedCacheInstance() *Instance { return i.sharedCacheInstance }

// ExternalReferenceCount returns how many placeholders use this shared
// instance.
func (i *Instance) ExternalReferenceCount() int { return i.externalReferenceCount }

// State returns the current render state.
func (i *Instance) State() RenderState { return i.state }

// GroupChanged reports whether the last state update changed the group.
func (i *Instance) GroupChanged() bool { return i.groupChanged }

// CascadingStateChange reports whether children must re-infer state.
func (i *Instance) CascadingStateChange() bool { return i.cascadingStateChange }

// AnyStateChange reports whether the last state update changed anything.
func (i *Instance) AnyStateChange() bool { return i.anyStateChange }

// IncompatibleStateChange reports whether the instance must be rebuilt.
func (i *Instance) IncompatibleStateChange() bool { return i.incompatibleStateChange }

// SelfDrawable returns the drawable painting the node itself, if any.
func (i *Instance) SelfDrawable() *drawable.SelfDrawable { return i.selfDrawable }

// GroupDrawable returns the backbone or canvas cache, if any.
func (i *Instance) GroupDrawable() drawable.Drawable { return i.groupDrawable }

// SharedCacheDrawable returns the placeholder drawable, if any.
func (i *Instance) SharedCacheDrawable() *drawable.SharedCanvasCache { return i.sharedCacheDrawable }

// FirstDrawable and LastDrawable bound the subtree's drawable range.
func (i *Instance) FirstDrawable() drawable.Drawable { return i.firstDrawable }

// LastDrawable returns the last drawable of the subtree.
func (i *Instance) LastDrawable() drawable.Drawable { return i.lastDrawable }

// FirstInnerDrawable and LastInnerDrawable bound the range before group
// collapsing.
func (i *Instance) FirstInnerDrawable() drawable.Drawable { return i.firstInnerDrawable }

// LastInnerDrawable returns the last drawable before group collapsing.
func (i *Instance) LastInnerDrawable() drawable.Drawable { return i.lastInnerDrawable }

// FirstChangeInterval returns the pending change interval chain.
func (i *Instance) FirstChangeInterval() *drawable.ChangeInterval { return i.firstChangeInterval }

// LastChangeInterval returns the tail of the pending chain.
func (i *Instance) LastChangeInterval() *drawable.ChangeInterval { return i.lastChangeInterval }

// StitchChangeFrame returns the frame the slot was last restructured in.
func (i *Instance) StitchChangeFrame() FrameID { return i.stitchChangeFrame }

// StitchChangeOnChildren returns the frame children were last restructured in.
func (i *Instance) StitchChangeOnChildren() FrameID { return i.stitchChangeOnChildren }

// AddRemoveCounter returns the pending remove/re-add balance.
func (i *Instance) AddRemoveCounter() int { return i.addRemoveCounter }

// StableIndices returns the child index range known not to have shifted
// since the last pass: indices <= before and >= after are stable.
func (i *Instance) StableIndices() (before, after int) {
	return i.beforeStableIndex, i.afterStableIndex
}

// ShouldIncludeInParentDrawables reports whether the subtree occupies a
// position in its parent's drawable list.
func (i *Instance) ShouldIncludeInParentDrawables() bool {
	return i.node.IsVisible() || !i.node.IsExcludeInvisible()
}

// TrailMatrix returns the transform from the trail root to the node.
func (i *Instance) TrailMatrix() gg.Matrix { return i.rt.trailMatrix() }

// ParentTrailMatrix returns the transform from the trail root to the
// node's parent.
func (i *Instance) ParentTrailMatrix() gg.Matrix {
	if i.parent == nil {
		return gg.Identity()
	}
	return i.parent.rt.trailMatrix()
}

// RelativeMatrix returns the transform from the nearest transform root
// above this instance to the node.
func (i *Instance) RelativeMatrix() gg.Matrix { return i.rt.matrix() }

// TransformRoot returns the nearest transformed ancestor, or nil.
func (i *Instance) TransformRoot() *Instance { return i.rt.root() }

// IsFittable reports whether drawables of this instance may fit bounds.
func (i *Instance) IsFittable() bool { return i.fit.ancestorsFittable }

// InlineOpacity returns the opacity folded directly into the self
// drawable: the product of node opacities up to the nearest group.
func (i *Instance) InlineOpacity() float64 {
	o := 1.0
	for p := i; p != nil; p = p.parent {
		if p.state.GroupRenderer != 0 || p.state.IsSharedCanvasCachePlaceholder {
			break
		}
		o *= p.node.Opacity()
	}
	return o
}

// GroupOpacity returns the opacity a group or placeholder drawable of
// this instance applies.
func (i *Instance) GroupOpacity() float64 {
	o := i.node.Opacity()
	if i.parent != nil {
		o *= i.parent.InlineOpacity()
	}
	return o
}

// SharedBlock returns the canvas block of the shared instance.
func (i *Instance) SharedBlock() *drawable.CanvasBlock {
	if i.sharedCacheInstance == nil {
		return nil
	}
	b, _ := i.sharedCacheInstance.groupDrawable.(*drawable.CanvasBlock)
	return b
}

// BranchIndexTo returns the first trail index at which i and other
// differ.
func (i *Instance) BranchIndexTo(other *Instance) int {
	return i.host.Arena().BranchIndex(i, other)
}

// invalidatePaint marks the nearest cached output holding this instance
// as stale.
func (i *Instance) invalidatePaint() {
	for p := i; p != nil; p = p.parent {
		if p.groupDrawable != nil {
			drawable.Invalidate(p.groupDrawable)
			return
		}
		if p != i && p.sharedCacheDrawable != nil {
			return
		}
	}
}

// Dispose releases the subtree rooted at i: drawables first, then child
// instances, then node listeners and registrations, then the shared
// cache reference. The instance returns to the arena.
func (i *Instance) Dispose() {
	if i.disposed {
		return
	}
	arena := i.host.Arena()
	i.host.Debug().Assert(arena.IsLive(i.handle), "instance", "disposing recycled instance #%d", i.id)
	i.disposed = true

	if i.groupDrawable != nil {
		i.groupDrawable.Dispose()
	}
	if i.sharedCacheDrawable != nil {
		i.sharedCacheDrawable.Dispose()
	}
	if i.selfDrawable != nil {
		i.selfDrawable.Dispose()
	}

	for _, c := range i.children {
		c.Dispose()
	}
	for _, r := range i.removalCheckList {
		if arena.IsLive(r.handle) && !r.inst.disposed {
			r.inst.Dispose()
		}
	}

	if !i.stateless {
		i.detachNodeListeners()
	}
	i.node.RemoveInstance(i)

	if shared := i.sharedCacheInstance; shared != nil {
		shared.externalReferenceCount--
		if shared.externalReferenceCount == 0 {
			i.host.DeleteSharedCanvasInstance(i.node.ID())
			shared.Dispose()
		}
	}

	i.VisibleChange.RemoveAllListeners()
	i.RelativeVisibleChange.RemoveAllListeners()
	i.SelfVisibleChange.RemoveAllListeners()
	i.CanVoiceChange.RemoveAllListeners()

	arena.release(i)
}

func (i *Instance) String() string {
	return fmt.Sprintf("#%d@%s", i.id, i.trail.UniqueID())
}
