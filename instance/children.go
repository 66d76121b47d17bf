package instance

import (
	"slices"

	"github.com/gogpu/scenesync/node"
)

type listenerSet struct {
	attached          bool
	childInserted     node.ListenerID
	childRemoved      node.ListenerID
	childrenReordered node.ListenerID
	visible           node.ListenerID
	voicingVisible    node.ListenerID
	excludeInvisible  node.ListenerID
	filter            node.ListenerID
	clipArea          node.ListenerID
	refresh           node.ListenerID
	transform         node.ListenerID
}

func (i *Instance) attachNodeListeners() {
	n := i.node
	i.listeners = listenerSet{
		attached:          true,
		childInserted:     n.ChildInserted.AddListener(func(e node.ChildEvent) { i.onChildInserted(e.Child, e.Index) }),
		childRemoved:      n.ChildRemoved.AddListener(func(e node.ChildEvent) { i.onChildRemoved(e.Child, e.Index) }),
		childrenReordered: n.ChildrenReordered.AddListener(func(e node.ReorderEvent) { i.onChildrenReordered(e.Min, e.Max) }),
		visible:           n.VisibleProperty().LazyLink(func(bool, bool) { i.onVisibilityChange() }),
		voicingVisible:    n.VoicingVisibleProperty().LazyLink(func(bool, bool) { i.markVisibilityDirty() }),
		excludeInvisible:  n.ExcludeInvisibleChange.AddListener(func(struct{}) { i.onVisibilityChange() }),
		filter:            n.FilterChange.AddListener(func(struct{}) { i.onAppearanceChange() }),
		clipArea:          n.ClipAreaChange.AddListener(func(struct{}) { i.onAppearanceChange() }),
		refresh:           n.InstanceRefresh.AddListener(func(struct{}) { i.onAppearanceChange() }),
		transform:         n.TransformChange.AddListener(func(struct{}) { i.onTransformChange() }),
	}
}

func (i *Instance) detachNodeListeners() {
	l := i.listeners
	if !l.attached {
		return
	}
	n := i.node
	n.ChildInserted.RemoveListener(l.childInserted)
	n.ChildRemoved.RemoveListener(l.childRemoved)
	n.ChildrenReordered.RemoveListener(l.childrenReordered)
	n.VisibleProperty().Unlink(l.visible)
	n.VoicingVisibleProperty().Unlink(l.voicingVisible)
	n.ExcludeInvisibleChange.RemoveListener(l.excludeInvisible)
	n.FilterChange.RemoveListener(l.filter)
	n.ClipAreaChange.RemoveListener(l.clipArea)
	n.InstanceRefresh.RemoveListener(l.refresh)
	n.TransformChange.RemoveListener(l.transform)
	i.listeners = listenerSet{}
}

// markRenderStateDirty asks the next pass to re-infer render state.
func (i *Instance) markRenderStateDirty() {
	i.renderStateDirtyFrame = i.host.FrameID()
	if i.parent != nil {
		i.parent.markSkipPruning()
	}
}

// markSkipPruning makes the next pass descend into i and its ancestors.
func (i *Instance) markSkipPruning() {
	frame := i.host.FrameID()
	for p := i; p != nil && p.skipPruningFrame != frame; p = p.parent {
		p.skipPruningFrame = frame
	}
}

func (i *Instance) onAppearanceChange() {
	i.markRenderStateDirty()
	i.invalidatePaint()
}

func (i *Instance) onTransformChange() {
	i.rt.invalidate()
	i.invalidatePaint()
}

func (i *Instance) onVisibilityChange() {
	i.markVisibilityDirty()
	if i.ShouldIncludeInParentDrawables() != i.stitchChangeIncluded {
		i.stitchChangeFrame = i.host.FrameID()
		i.markSkipPruning()
	}
}

func (i *Instance) onChildInserted(child *node.Node, index int) {
	if i.state.IsSharedCanvasCachePlaceholder {
		return
	}
	i.host.Debug().Assert(!i.stateless, "children", "stateless %v got a child insertion", i)

	inst := i.findChildInstanceOnNode(child)
	if inst != nil {
		// removed earlier in this frame and now added back
		inst.addRemoveCounter++
		i.host.Debug().Assert(inst.addRemoveCounter == 0, "children",
			"re-added %v has add/remove counter %d", inst, inst.addRemoveCounter)
	} else {
		inst = New(i.host, i.trail.Copy().AddDescendant(child, index), false, false)
		inst.stitchChangeFrame = i.host.FrameID()
		i.stitchChangeOnChildren = i.host.FrameID()
	}
	i.insertInstance(inst, index)
	i.markSkipPruning()
}

func (i *Instance) onChildRemoved(child *node.Node, index int) {
	if i.state.IsSharedCanvasCachePlaceholder {
		return
	}
	d := i.host.Debug()
	d.Assert(!i.stateless, "children", "stateless %v got a child removal", i)
	d.Assert(index < len(i.children) && i.children[index].node == child, "children",
		"%v child %d does not match removed node %v", i, index, child)

	inst := i.findChildInstanceOnNode(child)
	if inst == nil {
		return
	}
	inst.addRemoveCounter--
	d.Assert(inst.addRemoveCounter == -1, "children",
		"removed %v has add/remove counter %d", inst, inst.addRemoveCounter)

	i.removalCheckList = append(i.removalCheckList, removal{inst: inst, handle: inst.handle})
	i.removeInstanceWithIndex(inst, index)
	i.markSkipPruning()
}

func (i *Instance) onChildrenReordered(minIndex, maxIndex int) {
	if i.state.IsSharedCanvasCachePlaceholder {
		return
	}
	i.reorderInstances(minIndex, maxIndex)
	i.markSkipPruning()
}

// findChildInstanceOnNode returns the instance of n whose last parent was i.
func (i *Instance) findChildInstanceOnNode(n *node.Node) *Instance {
	for _, r := range n.Instances() {
		if inst, ok := r.(*Instance); ok && inst.oldParent == i && !inst.disposed {
			return inst
		}
	}
	return nil
}

func (i *Instance) appendInstance(child *Instance) {
	i.insertInstance(child, len(i.children))
}

// insertInstance places child at index and widens the unstable range.
func (i *Instance) insertInstance(child *Instance, index int) {
	i.host.Debug().Assert(index >= 0 && index <= len(i.children), "children",
		"insert index %d out of range for %v", index, i)

	i.children = slices.Insert(i.children, index, child)
	child.parent = i
	child.oldParent = i

	if index <= i.beforeStableIndex {
		i.beforeStableIndex = index - 1
	}
	if index > i.afterStableIndex {
		i.afterStableIndex = index + 1
	} else {
		i.afterStableIndex++
	}

	i.fit.onInsert(&child.fit)
	i.rt.addInstance(child)
	i.markChildVisibilityDirty()
	child.markVisibilityDirty()
}

// removeInstanceWithIndex detaches child and stamps its neighbours so the
// gap gets a change interval.
func (i *Instance) removeInstanceWithIndex(child *Instance, index int) {
	d := i.host.Debug()
	d.Assert(index >= 0 && index < len(i.children) && i.children[index] == child, "children",
		"%v is not child %d of %v", child, index, i)

	frame := i.host.FrameID()
	child.stitchChangeFrame = frame
	i.stitchChangeOnChildren = frame
	if index-1 >= 0 {
		i.children[index-1].stitchChangeAfter = frame
	}
	if index+1 < len(i.children) {
		i.children[index+1].stitchChangeBefore = frame
	}

	i.children = slices.Delete(i.children, index, index+1)
	child.parent = nil
	child.oldParent = i

	if index <= i.beforeStableIndex {
		i.beforeStableIndex = index - 1
	}
	if index >= i.afterStableIndex {
		i.afterStableIndex = index
	} else {
		i.afterStableIndex--
	}

	i.fit.onRemove(&child.fit)
	i.rt.removeInstance(child)
}

// replaceInstanceWithIndex swaps child for replacement at index.
func (i *Instance) replaceInstanceWithIndex(child, replacement *Instance, index int) {
	i.removeInstanceWithIndex(child, index)
	i.insertInstance(replacement, index)
}

// updateIncompatibleChildInstance queues child for disposal and puts a
// fresh stateless instance for the same trail in its place.
func (i *Instance) updateIncompatibleChildInstance(child *Instance, index int) *Instance {
	i.host.MarkInstanceRootForDisposal(child)
	replacement := New(i.host, child.trail, false, false)
	i.replaceInstanceWithIndex(child, replacement, index)
	// the slot keeps its place in the parent's list
	replacement.stitchChangeFrame = i.host.FrameID()
	replacement.stitchChangeIncluded = child.stitchChangeIncluded
	replacement.stitchChangeBefore = child.stitchChangeBefore
	replacement.stitchChangeAfter = child.stitchChangeAfter
	return replacement
}

// reorderInstances rebuilds children[minIndex..maxIndex] from the node's
// new child order, treating the whole range as removed and re-added.
func (i *Instance) reorderInstances(minIndex, maxIndex int) {
	frame := i.host.FrameID()
	i.children = slices.Delete(i.children, minIndex, maxIndex+1)
	for k := minIndex; k <= maxIndex; k++ {
		child := i.findChildInstanceOnNode(i.node.ChildAt(k))
		i.host.Debug().Assert(child != nil, "children", "no instance for reordered child %d of %v", k, i)
		i.children = slices.Insert(i.children, k, child)
		child.stitchChangeFrame = frame
		if k > minIndex {
			child.stitchChangeBefore = frame
		}
		if k < maxIndex {
			child.stitchChangeAfter = frame
		}
	}
	if minIndex-1 >= 0 {
		i.children[minIndex-1].stitchChangeAfter = frame
	}
	if maxIndex+1 < len(i.children) {
		i.children[maxIndex+1].stitchChangeBefore = frame
	}
	i.stitchChangeOnChildren = frame
	i.beforeStableIndex = min(i.beforeStableIndex, minIndex-1)
	i.afterStableIndex = max(i.afterStableIndex, maxIndex+1)
	i.markChildVisibilityDirty()
}
