package node

import "github.com/gogpu/scenesync/renderer"

// Summary caches what the renderers can do for a whole subtree. It is
// recomputed lazily after any capability change in the subtree.
type Summary struct {
	valid       bool
	fully       renderer.Bitmask
	containing  renderer.Bitmask
	boundsValid bool
}

// fallbackOrder is the order a painted node falls back to after its
// preference list.
var fallbackOrder = [...]renderer.Bitmask{renderer.SVG, renderer.Canvas, renderer.DOM, renderer.WebGL}

// RendererSummary returns the up-to-date subtree summary.
func (n *Node) RendererSummary() *Summary {
	if !n.summary.valid {
		n.computeSummary()
	}
	return &n.summary
}

func (n *Node) computeSummary() {
	s := Summary{
		valid:       true,
		fully:       renderer.RendererArea,
		boundsValid: n.boundsValid,
	}
	if n.painter != nil {
		s.fully &= n.supported
		s.containing |= n.supported
	}
	for _, c := range n.children {
		cs := c.RendererSummary()
		s.fully &= cs.fully
		s.containing |= cs.containing
		s.boundsValid = s.boundsValid && cs.boundsValid
	}
	n.summary = s
}

// invalidateSummary marks n and every ancestor dirty and asks their
// instances to refresh render state. An already invalid node has invalid
// ancestors, so the walk stops there.
func (n *Node) invalidateSummary() {
	if !n.summary.valid {
		n.InstanceRefresh.Emit(struct{}{})
		return
	}
	n.summary.valid = false
	n.InstanceRefresh.Emit(struct{}{})
	for _, p := range n.parents {
		p.invalidateSummary()
	}
}

// IsSubtreeFullyCompatible reports whether every painted node in the
// subtree supports all renderers in r.
func (s *Summary) IsSubtreeFullyCompatible(r renderer.Bitmask) bool {
	return s.fully&r == r
}

// IsSubtreeContainingCompatible reports whether some painted node in the
// subtree supports a renderer in r.
func (s *Summary) IsSubtreeContainingCompatible(r renderer.Bitmask) bool {
	return s.containing&r != 0
}

// IsNotPainted reports whether nothing in the subtree paints.
func (s *Summary) IsNotPainted() bool {
	return s.containing == 0
}

// IsSingleCanvasSupported reports whether the whole subtree can be drawn
// into one canvas.
func (s *Summary) IsSingleCanvasSupported() bool {
	return s.IsSubtreeFullyCompatible(renderer.Canvas)
}

// AreBoundsValid reports whether all bounds in the subtree are reliable.
func (s *Summary) AreBoundsValid() bool {
	return s.boundsValid
}

// IsSubtreeRenderedExclusivelySVG reports whether, given the preference
// order, every painted node in the subtree would end up drawn with SVG.
func (s *Summary) IsSubtreeRenderedExclusivelySVG(preferred renderer.Bitmask) bool {
	return s.renderedExclusively(renderer.SVG, preferred)
}

// IsSubtreeRenderedExclusivelyCanvas is the Canvas counterpart of
// IsSubtreeRenderedExclusivelySVG.
func (s *Summary) IsSubtreeRenderedExclusivelyCanvas(preferred renderer.Bitmask) bool {
	return s.renderedExclusively(renderer.Canvas, preferred)
}

func (s *Summary) renderedExclusively(target, preferred renderer.Bitmask) bool {
	if !s.IsSubtreeFullyCompatible(target) {
		return false
	}
	// Walk the effective order a painted node would use. If a renderer
	// ahead of target is supported anywhere, that node won't use target.
	for i := 0; i < renderer.NumActiveRenderers; i++ {
		r := renderer.Order(preferred, i)
		if r == 0 {
			break
		}
		if r == target {
			return true
		}
		if s.IsSubtreeContainingCompatible(r) {
			return false
		}
	}
	for _, r := range fallbackOrder {
		if r == target {
			return true
		}
		if s.IsSubtreeContainingCompatible(r) {
			return false
		}
	}
	return false
}
