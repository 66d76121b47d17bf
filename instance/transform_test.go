package instance

import (
	"strings"
	"testing"

	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/renderer"
)

func TestTrailMatrixFollowsTransformChanges(t *testing.T) {
	x := painted("x", renderer.Canvas)
	g := group("g", x)
	g.SetTransform(gg.Translate(5, 0))
	h := newTestHost(t, group("root", g))
	h.sync()

	ig := childOf(t, h.base, g)
	ix := childOf(t, ig, x)
	if m := ix.TrailMatrix(); m.C != 5 || m.F != 0 {
		t.Fatalf("trail matrix = %+v, want translation (5, 0)", m)
	}

	g.Translate(3, 2)
	if m := ix.TrailMatrix(); m.C != 8 || m.F != 2 {
		t.Errorf("trail matrix after move = %+v, want translation (8, 2)", m)
	}
	if m := ix.ParentTrailMatrix(); m.C != 8 {
		t.Errorf("parent trail matrix = %+v", m)
	}
	h.sync()
}

func TestRelativeMatrixStopsAtTransformRoot(t *testing.T) {
	x := painted("x", renderer.Canvas)
	x.SetTransform(gg.Translate(1, 0))
	layer := group("layer", x)
	layer.SetHints(node.Hints{CSSTransform: true})
	layer.SetTransform(gg.Translate(10, 0))
	root := group("root", layer)
	root.SetTransform(gg.Translate(100, 0))
	h := newTestHost(t, root)
	h.sync()

	il := childOf(t, h.base, layer)
	ix := childOf(t, il, x)
	if ix.TransformRoot() != il {
		t.Fatalf("transform root = %v, want %v", ix.TransformRoot(), il)
	}
	if il.TransformRoot() != h.base {
		t.Errorf("layer transform root = %v, want the display root", il.TransformRoot())
	}
	if m := ix.RelativeMatrix(); m.C != 1 {
		t.Errorf("relative matrix = %+v, want translation 1", m)
	}
	if m := ix.TrailMatrix(); m.C != 111 {
		t.Errorf("trail matrix = %+v, want translation 111", m)
	}
	if len(h.transforms) != 2 {
		t.Errorf("transform roots = %d, want 2", len(h.transforms))
	}
}

func TestTransformRootMarkedOncePerInstance(t *testing.T) {
	x := painted("x", renderer.Canvas)
	layer := group("layer", x)
	layer.SetHints(node.Hints{CSSTransform: true})
	h := newTestHost(t, group("root", layer))
	h.sync()
	marks := h.transformMarks

	tests := []struct {
		name   string
		mutate func()
	}{
		{"idle frame", func() {}},
		{"child moved", func() { x.Translate(2, 0) }},
		{"child effects", func() { x.SetOpacity(0.5) }},
		{"layer effects", func() { layer.SetOpacity(0.5) }},
	}
	for _, tt := range tests {
		tt.mutate()
		h.sync()
		if h.transformMarks != marks {
			t.Errorf("%s: transform root marks = %d, want %d", tt.name, h.transformMarks, marks)
		}
	}
}

func TestFittabilityPropagates(t *testing.T) {
	x := painted("x", renderer.Canvas)
	g := group("g", x)
	g.SetHints(node.Hints{PreventFit: true})
	h := newTestHost(t, group("root", g))
	h.sync()

	ig := childOf(t, h.base, g)
	ix := childOf(t, ig, x)
	if ig.IsFittable() || ix.IsFittable() {
		t.Fatal("PreventFit did not reach the subtree")
	}
	if ix.SelfDrawable().IsFittable() {
		t.Error("self drawable below PreventFit is fittable")
	}
	if !h.base.IsFittable() {
		t.Error("root lost fittability from a descendant hint")
	}
	if h.base.fit.subtreeUnfittableCount != 1 {
		t.Errorf("root unfittable count = %d, want 1", h.base.fit.subtreeUnfittableCount)
	}

	g.SetHints(node.Hints{})
	h.sync()
	if !ix.IsFittable() || !ix.SelfDrawable().IsFittable() {
		t.Error("fittability not restored after the hint was cleared")
	}
	if h.base.fit.subtreeUnfittableCount != 0 {
		t.Errorf("root unfittable count = %d, want 0", h.base.fit.subtreeUnfittableCount)
	}
}

func TestStateString(t *testing.T) {
	x := painted("x", renderer.Canvas)
	g := group("g", x)
	g.SetHints(node.Hints{CanvasCache: true})
	h := newTestHost(t, group("root", g))
	h.sync()

	s := childOf(t, h.base, g).StateString()
	for _, want := range []string{"instanceCache", "underCanvasCache", "group:canvas"} {
		if !strings.Contains(s, want) {
			t.Errorf("StateString() = %q, missing %q", s, want)
		}
	}
	if s := h.base.StateString(); !strings.Contains(s, "backbone") || !strings.Contains(s, "transformed") {
		t.Errorf("root StateString() = %q", s)
	}
}

func TestAuditReportsBrokenCounter(t *testing.T) {
	a := painted("a", renderer.Canvas)
	h := newTestHost(t, group("root", a))
	h.sync()

	ia := childOf(t, h.base, a)
	ia.addRemoveCounter = 2
	if err := h.base.Audit(); err == nil {
		t.Error("Audit accepted a non-zero add/remove counter")
	}
	ia.addRemoveCounter = 0
	if err := h.base.Audit(); err != nil {
		t.Errorf("Audit: %v", err)
	}
}
