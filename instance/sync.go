package instance

import (
	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/drawable"
	"github.com/gogpu/scenesync/trail"
)

// BaseSyncTree synchronizes the root instance of a display and clears the
// per-pass results no parent will consume.
func (i *Instance) BaseSyncTree() {
	d := i.host.Debug()
	d.Assert(i.isDisplayRoot, "sync", "BaseSyncTree on non-root %v", i)

	scenesync.Logger().Debug("sync tree", "frame", uint64(i.host.FrameID()), "root", i.String())
	ok := i.SyncTree()
	d.Assert(ok, "sync", "display root %v reported an incompatible change", i)
	i.cleanSyncTreeResults()
}

// SyncTree reconciles the instance with its node. It returns false when
// the render state changed incompatibly; the caller then disposes the
// instance and syncs a fresh one for the same trail instead.
//
// SyncTree may run at most once per frame.
func (i *Instance) SyncTree() bool {
	frame := i.host.FrameID()
	d := i.host.Debug()
	d.Assert(i.syncFrame != frame, "sync", "%v synced twice in frame %d", i, frame)
	i.syncFrame = frame

	wasStateless := i.stateless
	if wasStateless ||
		(i.parent != nil && i.parent.cascadingStateChange) ||
		i.renderStateDirtyFrame == frame {
		i.updateRenderingState()
	} else {
		i.groupChanged = false
		i.cascadingStateChange = false
		i.anyStateChange = false
		i.incompatibleStateChange = false
		if d.SlowAssertions {
			i.updateRenderingState()
			d.AssertSlow(!i.anyStateChange, "sync", "pruned %v would have changed render state", i)
		}
	}

	if !wasStateless && i.incompatibleStateChange {
		scenesync.Logger().Debug("incompatible state change", "instance", i.String())
		return false
	}

	i.stateless = false
	if wasStateless {
		i.attachNodeListeners()
		if i.state.IsTransformed {
			i.host.MarkTransformRootDirty(i, true)
		}
	}

	if i.state.IsSharedCanvasCachePlaceholder {
		i.sharedSyncTree()
	} else if wasStateless || i.skipPruningFrame == frame || i.anyStateChange {
		i.prepareChildInstances(wasStateless)

		oldFirst, oldLast := i.firstInnerDrawable, i.lastInnerDrawable
		selfChanged := i.updateSelfDrawable()
		i.localSyncTree(selfChanged)
		if d.SlowAssertions {
			i.auditChangeIntervals(oldFirst, oldLast)
		}
		i.groupSyncTree(wasStateless)
	}
	return true
}

// SyncShared syncs a shared canvas cache root once per frame. Placeholders
// call it while syncing; the display calls it for every registered shared
// instance so changes inside a shared subtree are picked up even when all
// placeholders were pruned.
func (i *Instance) SyncShared() {
	if i.syncFrame == i.host.FrameID() {
		return
	}
	i.SyncTree()
	i.cleanSyncTreeResults()
}

func (i *Instance) sharedSyncTree() {
	i.ensureSharedCacheInitialized()
	i.sharedCacheInstance.SyncShared()

	r := i.state.SharedCacheRenderer
	if i.sharedCacheDrawable == nil || i.sharedCacheDrawable.Renderer() != r {
		if i.sharedCacheDrawable != nil {
			drawable.MarkForDisposal(i.sharedCacheDrawable, i.host)
		}
		i.sharedCacheDrawable = drawable.NewSharedCanvasCache(i, r)
		i.sharedCacheDrawable.SetFittable(i.fit.ancestorsFittable)
		i.firstDrawable = i.sharedCacheDrawable
		i.lastDrawable = i.sharedCacheDrawable
		i.firstInnerDrawable = i.sharedCacheDrawable
		i.lastInnerDrawable = i.sharedCacheDrawable
		ci := drawable.NewChangeInterval(nil, nil, i.host)
		i.firstChangeInterval = ci
		i.lastChangeInterval = ci
	}
}

func (i *Instance) ensureSharedCacheInitialized() {
	if i.sharedCacheInstance != nil {
		return
	}
	id := i.node.ID()
	shared, ok := i.host.SharedCanvasInstance(id)
	if !ok {
		shared = New(i.host, trail.New(i.node), false, true)
		i.host.SetSharedCanvasInstance(id, shared)
		i.host.MarkTransformRootDirty(shared, true)
	}
	shared.externalReferenceCount++
	i.sharedCacheInstance = shared
	if i.state.IsTransformed {
		i.host.MarkTransformRootDirty(i, true)
	}
}

// prepareChildInstances disposes children removed for good and, on the
// first pass, creates an instance for every child node.
func (i *Instance) prepareChildInstances(wasStateless bool) {
	for len(i.removalCheckList) > 0 {
		n := len(i.removalCheckList) - 1
		r := i.removalCheckList[n]
		i.removalCheckList[n] = removal{}
		i.removalCheckList = i.removalCheckList[:n]

		if r.inst.handle == r.handle && r.inst.addRemoveCounter == -1 {
			r.inst.addRemoveCounter = 0
			i.host.MarkInstanceRootForDisposal(r.inst)
		}
	}

	if wasStateless {
		for k, child := range i.node.Children() {
			i.appendInstance(New(i.host, i.trail.Copy().AddDescendant(child, k), false, false))
		}
	}
}

// updateSelfDrawable makes the self drawable match the self renderer and
// reports whether it was replaced.
func (i *Instance) updateSelfDrawable() bool {
	if !i.node.IsPainted() {
		if i.selfDrawable == nil {
			return false
		}
		drawable.MarkForDisposal(i.selfDrawable, i.host)
		i.selfDrawable = nil
		return true
	}
	r := i.state.SelfRenderer
	if i.selfDrawable != nil && i.selfDrawable.Renderer()&r != 0 {
		return false
	}
	if i.selfDrawable != nil {
		drawable.MarkForDisposal(i.selfDrawable, i.host)
	}
	i.selfDrawable = drawable.NewSelfDrawable(i, r, i.fit.ancestorsFittable)
	i.selfDrawable.SetVisible(i.selfVisible)
	return true
}

// localSyncTree syncs the children and assembles the drawable list of the
// subtree, chaining the change intervals of self and children.
func (i *Instance) localSyncTree(selfChanged bool) {
	frame := i.host.FrameID()
	d := i.host.Debug()
	d.Assert(i.firstChangeInterval == nil && i.lastChangeInterval == nil,
		"sync", "%v entered localSyncTree with pending intervals", i)

	var firstDrawable, currentDrawable drawable.Drawable
	if i.selfDrawable != nil {
		firstDrawable = i.selfDrawable
		currentDrawable = i.selfDrawable
	}

	var current *drawable.ChangeInterval
	var lastUnchanged drawable.Drawable
	if selfChanged {
		current = drawable.NewChangeInterval(nil, nil, i.host)
		i.firstChangeInterval = current
	} else if i.selfDrawable != nil {
		lastUnchanged = i.selfDrawable
	}

	// gapPending is set by a stamped gap whose next included neighbour
	// has not been reached yet
	gapPending := false
	participated := false
	for k := 0; k < len(i.children); k++ {
		child := i.children[k]
		if !child.SyncTree() {
			child = i.updateIncompatibleChildInstance(child, k)
			child.SyncTree()
		}

		include := child.ShouldIncludeInParentDrawables()
		if include && child.firstDrawable != nil {
			if currentDrawable != nil {
				drawable.Connect(currentDrawable, child.firstDrawable, i.host)
			} else {
				firstDrawable = child.firstDrawable
			}
			currentDrawable = child.lastDrawable
		}

		wasIncluded := child.stitchChangeIncluded
		child.stitchChangeIncluded = include
		participates := wasIncluded || include

		if child.stitchChangeFrame == frame {
			ci := drawable.NewChangeInterval(nil, nil, i.host)
			child.firstChangeInterval = ci
			child.lastChangeInterval = ci
		} else {
			d.Assert(wasIncluded == include, "sync",
				"%v changed inclusion without a stitch change", child)
		}

		// an excluded child's own intervals cover nothing in this list
		childFirst := child.firstChangeInterval
		if !participates {
			childFirst = nil
		}
		isBeforeOpen := current != nil && current.After == nil
		isAfterOpen := childFirst != nil && childFirst.Before == nil
		if (child.stitchChangeBefore == frame || gapPending) && !isBeforeOpen && !isAfterOpen {
			bridge := drawable.NewChangeInterval(lastUnchanged, nil, i.host)
			if current != nil {
				current.Next = bridge
			}
			current = bridge
			if i.firstChangeInterval == nil {
				i.firstChangeInterval = bridge
			}
			isBeforeOpen = true
		}

		if participates {
			participated = true
			gapPending = false
			switch {
			case isBeforeOpen && isAfterOpen:
				// glue from both sides: current absorbs the child's first interval
				current.After = childFirst.After
				current.Next = childFirst.Next
				if child.lastChangeInterval != childFirst {
					current = child.lastChangeInterval
				}
			case isBeforeOpen && childFirst != nil:
				current.After = child.firstDrawable
				current.Next = childFirst
				current = child.lastChangeInterval
			case isBeforeOpen:
				current.After = child.firstDrawable
			case childFirst != nil:
				if i.firstChangeInterval == nil {
					i.firstChangeInterval = childFirst
				}
				if isAfterOpen {
					d.Assert(current == nil || lastUnchanged != nil, "sync",
						"%v has an open interval without an unchanged drawable", i)
					childFirst.Before = lastUnchanged
				}
				if current != nil {
					current.Next = childFirst
				}
				current = child.lastChangeInterval
			}

			switch {
			case current != nil && current.After == nil:
				lastUnchanged = nil
			case child.lastDrawable != nil && include:
				lastUnchanged = child.lastDrawable
			}
		}

		if child.stitchChangeAfter == frame {
			gapPending = true
		}

		child.cleanSyncTreeResults()
	}

	if gapPending && !(current != nil && current.After == nil) {
		bridge := drawable.NewChangeInterval(lastUnchanged, nil, i.host)
		if current != nil {
			current.Next = bridge
		}
		current = bridge
		if i.firstChangeInterval == nil {
			i.firstChangeInterval = bridge
		}
	}

	d.Assert((firstDrawable == nil) == (currentDrawable == nil), "sync",
		"%v drawable range has one open end", i)

	i.firstDrawable = firstDrawable
	i.firstInnerDrawable = firstDrawable
	i.lastDrawable = currentDrawable
	i.lastInnerDrawable = currentDrawable
	i.lastChangeInterval = current
	if i.firstChangeInterval == nil {
		i.lastChangeInterval = nil
	}

	if i.firstChangeInterval == nil && !participated && i.stitchChangeOnChildren == frame {
		ci := drawable.NewChangeInterval(lastUnchanged, nil, i.host)
		i.firstChangeInterval = ci
		i.lastChangeInterval = ci
	}

	d.Assert((i.firstChangeInterval == nil) == (i.lastChangeInterval == nil), "sync",
		"%v change interval chain has one open end", i)
}

// groupSyncTree collapses the subtree into a group drawable when the
// render state asks for one and stitches it.
func (i *Instance) groupSyncTree(wasStateless bool) {
	s := i.state
	groupRenderer := s.GroupRenderer
	i.host.Debug().Assert(countGroups(s) == boolToInt(groupRenderer != 0), "sync",
		"%v group kinds disagree with group renderer %v", i, groupRenderer)

	groupChanged := (groupRenderer != 0) != (i.groupDrawable != nil) ||
		(!wasStateless && i.groupChanged) ||
		(i.groupDrawable != nil && i.groupDrawable.Renderer() != groupRenderer)

	if groupChanged {
		if i.groupDrawable != nil {
			drawable.MarkForDisposal(i.groupDrawable, i.host)
			i.groupDrawable = nil
		}
		ci := drawable.NewChangeInterval(nil, nil, i.host)
		i.firstChangeInterval = ci
		i.lastChangeInterval = ci
	}

	if groupRenderer != 0 {
		if i.firstDrawable != nil {
			drawable.DisconnectBefore(i.firstDrawable, i.host)
			drawable.DisconnectAfter(i.lastDrawable, i.host)
		}

		debug := i.host.Debug()
		switch {
		case s.IsBackbone:
			if groupChanged {
				i.groupDrawable = drawable.NewBackbone(i, groupRenderer, i.isDisplayRoot, debug)
				if s.IsTransformed {
					i.host.MarkTransformRootDirty(i, true)
				}
			}
		case s.IsInstanceCanvasCache:
			if groupChanged {
				i.groupDrawable = drawable.NewInlineCanvasCache(i, groupRenderer, i.host.Bitmaps(), debug)
			}
		case s.IsSharedCanvasCacheSelf:
			if groupChanged {
				i.groupDrawable = drawable.NewCanvasBlock(i, groupRenderer, i.host.Bitmaps(), debug)
			}
		}
		if i.firstChangeInterval != nil {
			i.stitch()
		}
		i.groupDrawable.SetFittable(i.fit.ancestorsFittable)
		if s.IsVisibilityApplied {
			i.groupDrawable.SetVisible(i.relativeVisible)
		}

		i.firstDrawable = i.groupDrawable
		i.lastDrawable = i.groupDrawable
	}

	switch {
	case groupChanged:
		ci := drawable.NewChangeInterval(nil, nil, i.host)
		i.firstChangeInterval = ci
		i.lastChangeInterval = ci
	case groupRenderer != 0:
		i.firstChangeInterval = nil
		i.lastChangeInterval = nil
	}
}

type stitcher interface {
	Stitch(first, last drawable.Drawable, firstInterval, lastInterval *drawable.ChangeInterval)
}

func (i *Instance) stitch() {
	s, ok := i.groupDrawable.(stitcher)
	if !ok {
		return
	}
	s.Stitch(i.firstDrawable, i.lastDrawable, i.firstChangeInterval, i.lastChangeInterval)
}
