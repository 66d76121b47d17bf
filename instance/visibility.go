package instance

// UpdateVisibility recomputes the visibility of i from its parent's and
// descends into children that are dirty, or into all of them when
// updateFullSubtree is set. Change emitters fire only on transitions,
// after the subtree has been updated.
func (i *Instance) UpdateVisibility(parentVisible, parentVoicingVisible, parentRelativeVisible, updateFullSubtree bool) {
	if i.visibilityDirty {
		updateFullSubtree = true
	}

	nodeVisible := i.node.IsVisible()
	wasVisible := i.visible
	wasRelativeVisible := i.relativeVisible
	wasSelfVisible := i.selfVisible
	couldVoice := i.visible && i.voicingVisible

	i.visible = parentVisible && nodeVisible
	i.voicingVisible = parentVoicingVisible && i.node.VoicingVisibleProperty().Value()
	i.relativeVisible = parentRelativeVisible && nodeVisible
	i.selfVisible = i.state.IsVisibilityApplied || i.relativeVisible

	childRelative := i.relativeVisible
	if i.state.IsVisibilityApplied {
		childRelative = true
	}
	for _, c := range i.children {
		if updateFullSubtree || c.visibilityDirty || c.childVisibilityDirty {
			c.UpdateVisibility(i.visible, i.voicingVisible, childRelative, updateFullSubtree)
		}
	}

	i.visibilityDirty = false
	i.childVisibilityDirty = false
	i.applyVisibility()

	if i.visible != wasVisible {
		i.VisibleChange.Emit(i.visible)
	}
	if i.relativeVisible != wasRelativeVisible {
		i.RelativeVisibleChange.Emit(i.relativeVisible)
	}
	if i.selfVisible != wasSelfVisible {
		i.SelfVisibleChange.Emit(i.selfVisible)
	}
	if canVoice := i.CanVoice(); canVoice != couldVoice {
		i.CanVoiceChange.Emit(canVoice)
	}
}

// applyVisibility pushes the computed flags to the drawables.
func (i *Instance) applyVisibility() {
	if i.selfDrawable != nil {
		i.selfDrawable.SetVisible(i.selfVisible)
	}
	if i.groupDrawable != nil && i.state.IsVisibilityApplied {
		i.groupDrawable.SetVisible(i.relativeVisible)
	}
	if i.sharedCacheDrawable != nil {
		i.sharedCacheDrawable.SetVisible(i.relativeVisible)
	}
}

// markVisibilityDirty flags i for UpdateVisibility.
func (i *Instance) markVisibilityDirty() {
	if i.visibilityDirty {
		return
	}
	i.visibilityDirty = true
	if i.parent != nil {
		i.parent.markChildVisibilityDirty()
	}
}

// markChildVisibilityDirty flags that a descendant needs UpdateVisibility.
func (i *Instance) markChildVisibilityDirty() {
	for p := i; p != nil && !p.childVisibilityDirty; p = p.parent {
		p.childVisibilityDirty = true
	}
}

// IsVisible reports global visibility.
func (i *Instance) IsVisible() bool { return i.visible }

// IsRelativeVisible reports visibility relative to the nearest
// visibility root.
func (i *Instance) IsRelativeVisible() bool { return i.relativeVisible }

// IsSelfVisible reports whether the self drawable is shown.
func (i *Instance) IsSelfVisible() bool { return i.selfVisible }

// IsVoicingVisible reports global voicing visibility.
func (i *Instance) IsVoicingVisible() bool { return i.voicingVisible }

// CanVoice reports whether the instance is visible and voicing visible.
func (i *Instance) CanVoice() bool { return i.visible && i.voicingVisible }

// IsVisibilityDirty reports whether the instance awaits UpdateVisibility.
func (i *Instance) IsVisibilityDirty() bool { return i.visibilityDirty }

// IsChildVisibilityDirty reports whether a descendant awaits it.
func (i *Instance) IsChildVisibilityDirty() bool { return i.childVisibilityDirty }
