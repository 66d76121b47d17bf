package instance

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/drawable"
	"github.com/gogpu/scenesync/renderer"
)

func auditErr(i *Instance, format string, args ...any) error {
	return &scenesync.InvariantError{Scope: "audit", Msg: i.String() + ": " + fmt.Sprintf(format, args...)}
}

// Audit checks the structural invariants of the subtree after a pass and
// returns every violation found.
func (i *Instance) Audit() error {
	var errs []error
	i.audit(&errs)
	return errors.Join(errs...)
}

func (i *Instance) audit(errs *[]error) {
	add := func(format string, args ...any) { *errs = append(*errs, auditErr(i, format, args...)) }
	s := i.state

	if i.disposed {
		add("disposed instance still in the tree")
		return
	}
	if countGroups(s) != boolToInt(s.GroupRenderer != 0) {
		add("group kinds %d disagree with group renderer %v", countGroups(s), s.GroupRenderer)
	}
	if (i.firstDrawable == nil) != (i.lastDrawable == nil) {
		add("drawable range has one open end")
	}
	if (i.firstInnerDrawable == nil) != (i.lastInnerDrawable == nil) {
		add("inner drawable range has one open end")
	}
	if (i.firstChangeInterval == nil) != (i.lastChangeInterval == nil) {
		add("change interval chain has one open end")
	}
	if i.stateless && len(i.children) > 0 {
		add("stateless instance has %d children", len(i.children))
	}
	if i.addRemoveCounter != 0 {
		add("add/remove counter is %d", i.addRemoveCounter)
	}
	if !i.rt.audit() {
		add("cached trail matrix is stale")
	}
	if !i.fit.audit() {
		add("fittability counters are inconsistent")
	}
	if !i.stateless && !s.IsSharedCanvasCachePlaceholder {
		nodes := i.node.Children()
		if len(nodes) != len(i.children) {
			add("%d child instances for %d child nodes", len(i.children), len(nodes))
		} else {
			for k, c := range i.children {
				if c.node != nodes[k] {
					add("child %d instances %v, node has %v", k, c.node, nodes[k])
				}
			}
		}
		i.auditDrawableRange(add)
	}

	for _, c := range i.children {
		if c.parent != i {
			add("child %v has parent %v", c, c.parent)
		}
		c.audit(errs)
	}
}

// auditDrawableRange checks that the inner range is the self drawable
// followed by the ranges of included children.
func (i *Instance) auditDrawableRange(add func(string, ...any)) {
	var want []drawable.Drawable
	if i.selfDrawable != nil {
		want = append(want, i.selfDrawable)
	}
	for _, c := range i.children {
		if c.ShouldIncludeInParentDrawables() && c.firstDrawable != nil {
			want = append(want, drawable.Walk(c.firstDrawable, c.lastDrawable)...)
		}
	}
	got := drawable.Walk(i.firstInnerDrawable, i.lastInnerDrawable)
	if !slices.Equal(got, want) {
		add("inner drawable range has %d drawables, expected %d", len(got), len(want))
	}
	if i.state.GroupRenderer != 0 {
		if i.firstDrawable != i.groupDrawable || i.lastDrawable != i.groupDrawable {
			add("group instance range does not collapse to its group drawable")
		}
	}
}

// AuditVisibility checks the visibility flags against the nodes, given
// the parent's global visibility.
func (i *Instance) AuditVisibility(parentVisible bool) error {
	var errs []error
	i.auditVisibility(parentVisible, &errs)
	return errors.Join(errs...)
}

func (i *Instance) auditVisibility(parentVisible bool, errs *[]error) {
	visible := parentVisible && i.node.IsVisible()
	if i.visible != visible {
		*errs = append(*errs, auditErr(i, "visible is %t, expected %t", i.visible, visible))
	}
	if i.visibilityDirty || i.childVisibilityDirty {
		*errs = append(*errs, auditErr(i, "visibility still dirty"))
	}
	if i.selfDrawable != nil && i.selfDrawable.IsVisible() != i.selfVisible {
		*errs = append(*errs, auditErr(i, "self drawable visibility %t, expected %t",
			i.selfDrawable.IsVisible(), i.selfVisible))
	}
	for _, c := range i.children {
		c.auditVisibility(i.visible, errs)
	}
}

// auditChangeIntervals checks that the drawables outside the change
// intervals kept their links since the last committed frame.
func (i *Instance) auditChangeIntervals(oldFirst, oldLast drawable.Drawable) {
	d := i.host.Debug()
	first, last := i.firstChangeInterval, i.lastChangeInterval

	checkBetween := func(a, b drawable.Drawable) {
		if a == nil || b == nil {
			return
		}
		for a != b {
			l := a.Links()
			d.AssertSlow(l.Next == l.OldNext, "change intervals",
				"%v: drawable #%d relinked outside any change interval", i, a.ID())
			if l.Next == nil {
				d.AssertSlow(false, "change intervals", "%v: unchanged run ended before #%d", i, b.ID())
				return
			}
			a = l.Next
		}
	}

	if first == nil || first.Before != nil {
		d.AssertSlow(oldFirst == i.firstInnerDrawable, "change intervals",
			"%v: first drawable changed without an open interval", i)
	}
	if last == nil || last.After != nil {
		d.AssertSlow(oldLast == i.lastInnerDrawable, "change intervals",
			"%v: last drawable changed without an open interval", i)
	}
	if first == nil {
		checkBetween(oldFirst, oldLast)
		return
	}
	if first.Before != nil {
		checkBetween(oldFirst, first.Before)
	}
	if last.After != nil {
		checkBetween(last.After, oldLast)
	}
	for ci := first; ci != nil && ci.Next != nil; ci = ci.Next {
		next := ci.Next
		d.AssertSlow(ci.After != nil && next.Before != nil, "change intervals",
			"%v: chained intervals %v and %v have open inner ends", i, ci, next)
		checkBetween(ci.After, next.Before)
	}
}

// StateString describes the render state for diagnostics.
func (i *Instance) StateString() string {
	s := i.state
	var b strings.Builder
	fmt.Fprintf(&b, "S[%s", i)
	if i.stateless {
		b.WriteString(" stateless")
	}
	fmt.Fprintf(&b, " pref:%s", renderer.OrderString(s.PreferredRenderers))
	flags := []struct {
		on   bool
		name string
	}{
		{s.IsUnderCanvasCache, "underCanvasCache"},
		{s.IsBackbone, "backbone"},
		{s.IsTransformed, "transformed"},
		{s.IsVisibilityApplied, "visApplied"},
		{s.IsInstanceCanvasCache, "instanceCache"},
		{s.IsSharedCanvasCacheSelf, "sharedSelf"},
		{s.IsSharedCanvasCachePlaceholder, "sharedPlaceholder"},
		{s.AppliesInlineEffects, "inlineEffects"},
	}
	for _, f := range flags {
		if f.on {
			b.WriteString(" " + f.name)
		}
	}
	if s.SelfRenderer != 0 {
		fmt.Fprintf(&b, " self:%s", s.SelfRenderer)
	}
	if s.GroupRenderer != 0 {
		fmt.Fprintf(&b, " group:%s", s.GroupRenderer)
	}
	if s.SharedCacheRenderer != 0 {
		fmt.Fprintf(&b, " shared:%s", s.SharedCacheRenderer)
	}
	b.WriteString("]")
	return b.String()
}
