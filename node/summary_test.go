package node

import (
	"testing"

	"github.com/gogpu/scenesync/renderer"
)

func painted(supported renderer.Bitmask) *Node {
	n := New()
	n.SetPainter(nopPainter{}, supported)
	return n
}

func TestSummaryExclusivity(t *testing.T) {
	tests := []struct {
		name       string
		leaves     []renderer.Bitmask
		preferred  renderer.Bitmask
		wantSVG    bool
		wantCanvas bool
	}{
		{"empty subtree", nil, 0, true, true},
		{"svg and canvas leaves default order", []renderer.Bitmask{renderer.SVG | renderer.Canvas}, 0, true, false},
		{"canvas preferred", []renderer.Bitmask{renderer.SVG | renderer.Canvas}, renderer.CreateOrder(renderer.Canvas), false, true},
		{"mixed capabilities", []renderer.Bitmask{renderer.SVG, renderer.Canvas}, 0, false, false},
		{"canvas only", []renderer.Bitmask{renderer.Canvas, renderer.Canvas | renderer.DOM}, 0, false, true},
		{"dom preferred steals", []renderer.Bitmask{renderer.Canvas, renderer.Canvas | renderer.DOM}, renderer.CreateOrder(renderer.DOM), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := New()
			for _, l := range tt.leaves {
				if err := root.AddChild(painted(l)); err != nil {
					t.Fatal(err)
				}
			}
			s := root.RendererSummary()
			if got := s.IsSubtreeRenderedExclusivelySVG(tt.preferred); got != tt.wantSVG {
				t.Errorf("exclusively SVG = %v, want %v", got, tt.wantSVG)
			}
			if got := s.IsSubtreeRenderedExclusivelyCanvas(tt.preferred); got != tt.wantCanvas {
				t.Errorf("exclusively Canvas = %v, want %v", got, tt.wantCanvas)
			}
		})
	}
}

func TestSummaryInvalidatesAncestors(t *testing.T) {
	root, mid, leaf := New(), New(), painted(renderer.Canvas|renderer.SVG)
	_ = root.AddChild(mid)
	_ = mid.AddChild(leaf)

	if !root.RendererSummary().IsSingleCanvasSupported() {
		t.Fatal("expected canvas support")
	}

	refreshed := 0
	root.InstanceRefresh.AddListener(func(struct{}) { refreshed++ })
	leaf.SetPainter(nopPainter{}, renderer.SVG)

	if refreshed != 1 {
		t.Errorf("root refreshes = %d, want 1", refreshed)
	}
	if root.RendererSummary().IsSingleCanvasSupported() {
		t.Error("root summary not recomputed after leaf change")
	}
	if root.RendererSummary().IsNotPainted() {
		t.Error("root subtree is painted")
	}
}

func TestSummaryBoundsValid(t *testing.T) {
	root, leaf := New(), painted(renderer.Canvas)
	_ = root.AddChild(leaf)
	if !root.RendererSummary().AreBoundsValid() {
		t.Fatal("bounds should start valid")
	}
	leaf.SetBoundsValid(false)
	if root.RendererSummary().AreBoundsValid() {
		t.Error("invalid leaf bounds should propagate")
	}
}

func TestSummarySharedChild(t *testing.T) {
	a, b, shared := New(), New(), painted(renderer.SVG|renderer.Canvas)
	_ = a.AddChild(shared)
	_ = b.AddChild(shared)
	_ = a.RendererSummary()
	_ = b.RendererSummary()

	shared.SetPainter(nopPainter{}, renderer.DOM)
	if a.RendererSummary().IsSingleCanvasSupported() || b.RendererSummary().IsSingleCanvasSupported() {
		t.Error("both parents should see the new capability")
	}
}
