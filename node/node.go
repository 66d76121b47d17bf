package node

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync/renderer"
)

// Errors returned by structural mutations.
var (
	// ErrCycle is returned when adding a child would create a cycle.
	ErrCycle = errors.New("node: child would create a cycle")

	// ErrAlreadyChild is returned when the node is already a child.
	ErrAlreadyChild = errors.New("node: already a child")

	// ErrNotChild is returned when removing a node that is not a child.
	ErrNotChild = errors.New("node: not a child")

	// ErrIndexOutOfRange is returned for child indices outside the list.
	ErrIndexOutOfRange = errors.New("node: child index out of range")

	// ErrNilNode is returned when a nil child is passed.
	ErrNilNode = errors.New("node: nil node")
)

// ID uniquely identifies a node for the lifetime of the process.
type ID uint64

var nextID atomic.Uint64

// Hints are rendering hints that steer render state inference.
type Hints struct {
	// CSSTransform requests an independently transformed layer.
	CSSTransform bool
	// LayerSplit requests a separate layer without its own transform.
	LayerSplit bool
	// CanvasCache requests rasterizing the subtree into a bitmap.
	CanvasCache bool
	// SingleCache shares one canvas cache between all trails of the node.
	SingleCache bool
	// UsesOpacity hints that opacity will be animated.
	UsesOpacity bool
	// PreventFit stops drawables below from fitting their bounds.
	PreventFit bool
}

// Filter is a visual filter together with the renderers able to apply it.
type Filter struct {
	Name      string
	Renderers renderer.Bitmask
}

// Rect is an axis-aligned rectangle in local coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Painter paints a node's own content (not its children).
type Painter interface {
	PaintCanvas(dc *gg.Context)
}

// ChildEvent is emitted when a child is inserted or removed.
type ChildEvent struct {
	Child *Node
	Index int
}

// ReorderEvent is emitted when children in [Min, Max] were permuted.
type ReorderEvent struct {
	Min, Max int
}

// Registrant is anything registered against a node as one of its
// instances.
type Registrant interface {
	InstanceID() uint64
}

// Node is a scene-graph node. A node may have several parents; each path
// from a root reaching it is a distinct occurrence.
//
// Node is not safe for concurrent use.
type Node struct {
	id   ID
	name string

	children []*Node
	parents  []*Node

	visible          *BoolProperty
	voicingVisible   *BoolProperty
	excludeInvisible bool

	opacity   float64
	clip      *Rect
	filters   []Filter
	transform gg.Matrix

	hints    Hints
	renderer renderer.Bitmask

	painter     Painter
	supported   renderer.Bitmask
	boundsValid bool

	summary   Summary
	instances []Registrant

	// ChildInserted fires after a child is inserted.
	ChildInserted Emitter[ChildEvent]
	// ChildRemoved fires after a child is removed.
	ChildRemoved Emitter[ChildEvent]
	// ChildrenReordered fires after children were permuted in place.
	ChildrenReordered Emitter[ReorderEvent]
	// FilterChange fires on opacity or filter changes.
	FilterChange Emitter[struct{}]
	// ClipAreaChange fires when the clip area changes.
	ClipAreaChange Emitter[struct{}]
	// InstanceRefresh fires when hints, renderer preference, painted state
	// or the subtree renderer summary change.
	InstanceRefresh Emitter[struct{}]
	// TransformChange fires when the local transform changes.
	TransformChange Emitter[struct{}]
	// ExcludeInvisibleChange fires when ExcludeInvisible toggles.
	ExcludeInvisibleChange Emitter[struct{}]
}

// New creates a visible, opaque, unpainted node with an identity transform.
func New() *Node {
	return &Node{
		id:             ID(nextID.Add(1)),
		visible:        NewBoolProperty(true),
		voicingVisible: NewBoolProperty(true),
		opacity:        1,
		transform:      gg.Identity(),
		boundsValid:    true,
	}
}

// NewNamed creates a node with a debugging name.
func NewNamed(name string) *Node {
	n := New()
	n.name = name
	return n
}

// ID returns the node id.
func (n *Node) ID() ID { return n.id }

// Name returns the debugging name, if any.
func (n *Node) Name() string { return n.name }

// SetName sets the debugging name.
func (n *Node) SetName(name string) { n.name = name }

func (n *Node) String() string {
	if n.name != "" {
		return fmt.Sprintf("%s#%d", n.name, n.id)
	}
	return fmt.Sprintf("node#%d", n.id)
}

// Children returns the ordered children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// ChildAt returns the child at index i.
func (n *Node) ChildAt(i int) *Node { return n.children[i] }

// IndexOfChild returns the index of child, or -1.
func (n *Node) IndexOfChild(child *Node) int {
	return slices.Index(n.children, child)
}

// Parents returns the parents of n. The slice must not be modified.
func (n *Node) Parents() []*Node { return n.parents }

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for _, p := range other.parents {
		if p == n || n.IsAncestorOf(p) {
			return true
		}
	}
	return false
}

// AddChild appends child.
func (n *Node) AddChild(child *Node) error {
	return n.InsertChild(len(n.children), child)
}

// InsertChild inserts child at index.
func (n *Node) InsertChild(index int, child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if index < 0 || index > len(n.children) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(n.children), ErrIndexOutOfRange)
	}
	if slices.Contains(n.children, child) {
		return fmt.Errorf("insert %s into %s: %w", child, n, ErrAlreadyChild)
	}
	if child == n || child.IsAncestorOf(n) {
		return fmt.Errorf("insert %s into %s: %w", child, n, ErrCycle)
	}

	n.children = slices.Insert(n.children, index, child)
	child.parents = append(child.parents, n)
	n.invalidateSummary()

	n.ChildInserted.Emit(ChildEvent{Child: child, Index: index})
	return nil
}

// RemoveChild removes child.
func (n *Node) RemoveChild(child *Node) error {
	index := n.IndexOfChild(child)
	if index < 0 {
		return fmt.Errorf("remove %v from %s: %w", child, n, ErrNotChild)
	}
	_, err := n.RemoveChildAt(index)
	return err
}

// RemoveChildAt removes and returns the child at index.
func (n *Node) RemoveChildAt(index int) (*Node, error) {
	if index < 0 || index >= len(n.children) {
		return nil, fmt.Errorf("remove at %d of %d: %w", index, len(n.children), ErrIndexOutOfRange)
	}
	child := n.children[index]
	n.children = slices.Delete(n.children, index, index+1)
	if i := slices.Index(child.parents, n); i >= 0 {
		child.parents = slices.Delete(child.parents, i, i+1)
	}
	n.invalidateSummary()

	n.ChildRemoved.Emit(ChildEvent{Child: child, Index: index})
	return child, nil
}

// RemoveAllChildren removes children from last to first.
func (n *Node) RemoveAllChildren() {
	for i := len(n.children) - 1; i >= 0; i-- {
		_, _ = n.RemoveChildAt(i)
	}
}

// MoveChildToIndex moves an existing child to index, emitting a single
// reorder event covering the permuted range.
func (n *Node) MoveChildToIndex(child *Node, index int) error {
	old := n.IndexOfChild(child)
	if old < 0 {
		return fmt.Errorf("move %v in %s: %w", child, n, ErrNotChild)
	}
	if index < 0 || index >= len(n.children) {
		return fmt.Errorf("move to %d of %d: %w", index, len(n.children), ErrIndexOutOfRange)
	}
	if old == index {
		return nil
	}
	n.children = slices.Delete(n.children, old, old+1)
	n.children = slices.Insert(n.children, index, child)
	n.ChildrenReordered.Emit(ReorderEvent{Min: min(old, index), Max: max(old, index)})
	return nil
}

// VisibleProperty returns the observable visibility.
func (n *Node) VisibleProperty() *BoolProperty { return n.visible }

// IsVisible reports whether the node itself is visible.
func (n *Node) IsVisible() bool { return n.visible.Value() }

// SetVisible sets the node's own visibility.
func (n *Node) SetVisible(v bool) { n.visible.Set(v) }

// VoicingVisibleProperty returns the observable voicing visibility.
func (n *Node) VoicingVisibleProperty() *BoolProperty { return n.voicingVisible }

// SetVoicingVisible sets the voicing visibility.
func (n *Node) SetVoicingVisible(v bool) { n.voicingVisible.Set(v) }

// IsExcludeInvisible reports whether an invisible node is dropped from its
// parent's drawable list instead of keeping its position.
func (n *Node) IsExcludeInvisible() bool { return n.excludeInvisible }

// SetExcludeInvisible sets whether invisibility excludes the node.
func (n *Node) SetExcludeInvisible(v bool) {
	if n.excludeInvisible == v {
		return
	}
	n.excludeInvisible = v
	n.ExcludeInvisibleChange.Emit(struct{}{})
}

// Opacity returns the node opacity in [0, 1].
func (n *Node) Opacity() float64 { return n.opacity }

// SetOpacity sets the opacity, clamped to [0, 1].
func (n *Node) SetOpacity(v float64) {
	v = min(max(v, 0), 1)
	if n.opacity == v {
		return
	}
	n.opacity = v
	n.FilterChange.Emit(struct{}{})
}

// Filters returns the filters. The slice must not be modified.
func (n *Node) Filters() []Filter { return n.filters }

// SetFilters replaces the filters.
func (n *Node) SetFilters(filters ...Filter) {
	n.filters = slices.Clone(filters)
	n.FilterChange.Emit(struct{}{})
}

// ClipArea returns the clip rectangle or nil.
func (n *Node) ClipArea() *Rect { return n.clip }

// HasClipArea reports whether a clip is set.
func (n *Node) HasClipArea() bool { return n.clip != nil }

// SetClipArea sets or clears (nil) the clip rectangle.
func (n *Node) SetClipArea(r *Rect) {
	if r == nil && n.clip == nil {
		return
	}
	if r != nil {
		c := *r
		r = &c
	}
	n.clip = r
	n.ClipAreaChange.Emit(struct{}{})
}

// Transform returns the local transform.
func (n *Node) Transform() gg.Matrix { return n.transform }

// SetTransform sets the local transform.
func (n *Node) SetTransform(m gg.Matrix) {
	if n.transform == m {
		return
	}
	n.transform = m
	n.TransformChange.Emit(struct{}{})
}

// Translate appends a translation to the local transform.
func (n *Node) Translate(x, y float64) {
	n.SetTransform(n.transform.Multiply(gg.Translate(x, y)))
}

// Hints returns the rendering hints.
func (n *Node) Hints() Hints { return n.hints }

// SetHints replaces the rendering hints.
func (n *Node) SetHints(h Hints) {
	if n.hints == h {
		return
	}
	n.hints = h
	n.InstanceRefresh.Emit(struct{}{})
}

// UpdateHints applies fn to a copy of the hints and stores the result.
func (n *Node) UpdateHints(fn func(*Hints)) {
	h := n.hints
	fn(&h)
	n.SetHints(h)
}

// Renderer returns the preferred renderer hint, or 0.
func (n *Node) Renderer() renderer.Bitmask { return n.renderer }

// SetRenderer sets the preferred renderer for this subtree. Pass 0 to clear.
func (n *Node) SetRenderer(r renderer.Bitmask) {
	if r != 0 && !renderer.IsRenderer(r) {
		panic(fmt.Sprintf("node: invalid renderer %v", r))
	}
	if n.renderer == r {
		return
	}
	n.renderer = r
	n.InstanceRefresh.Emit(struct{}{})
}

// Painter returns the painter, or nil for unpainted nodes.
func (n *Node) Painter() Painter { return n.painter }

// IsPainted reports whether the node draws its own content.
func (n *Node) IsPainted() bool { return n.painter != nil }

// RendererBitmask returns the renderers able to paint this node itself.
func (n *Node) RendererBitmask() renderer.Bitmask {
	if n.painter == nil {
		return renderer.RendererArea
	}
	return n.supported
}

// SetPainter makes the node painted with p, paintable by the given
// renderers. Pass a nil painter to make the node unpainted.
func (n *Node) SetPainter(p Painter, supported renderer.Bitmask) {
	n.painter = p
	n.supported = supported & renderer.RendererArea
	n.invalidateSummary()
}

// BoundsValid reports whether the node's own bounds are reliable.
func (n *Node) BoundsValid() bool { return n.boundsValid }

// SetBoundsValid marks the node's own bounds as reliable or not.
func (n *Node) SetBoundsValid(v bool) {
	if n.boundsValid == v {
		return
	}
	n.boundsValid = v
	n.invalidateSummary()
}

// AddInstance registers an instance of this node.
func (n *Node) AddInstance(r Registrant) {
	n.instances = append(n.instances, r)
}

// RemoveInstance unregisters an instance. Returns false if absent.
func (n *Node) RemoveInstance(r Registrant) bool {
	i := slices.Index(n.instances, r)
	if i < 0 {
		return false
	}
	n.instances = slices.Delete(n.instances, i, i+1)
	return true
}

// Instances returns the registered instances. The slice must not be
// modified.
func (n *Node) Instances() []Registrant { return n.instances }
