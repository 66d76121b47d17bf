package instance

import (
	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/renderer"
)

// updateRenderingState infers the render state from the node's hints and
// effects, the parent's cascading state and the subtree renderer summary,
// then derives which kind of change happened.
func (i *Instance) updateRenderingState() {
	old := i.state
	n := i.node
	hints := n.Hints()
	summary := n.RendererSummary()

	s := RenderState{}
	if i.parent != nil {
		ps := i.parent.state
		s.PreferredRenderers = ps.PreferredRenderers
		s.IsUnderCanvasCache = ps.IsUnderCanvasCache
	}
	s.IsUnderCanvasCache = s.IsUnderCanvasCache || i.isSharedCanvasCacheRoot
	if r := n.Renderer(); r != 0 {
		s.PreferredRenderers = renderer.PushOrder(s.PreferredRenderers, r)
	}

	hasClip := n.HasClipArea()
	hasFilters := n.Opacity() != 1 || hints.UsesOpacity || len(n.Filters()) > 0
	needsEffects := hasClip || hasFilters
	svgFilters, canvasFilters := true, true
	for _, f := range n.Filters() {
		svgFilters = svgFilters && f.Renderers&renderer.SVG != 0
		canvasFilters = canvasFilters && f.Renderers&renderer.Canvas != 0
	}
	svgCanHandle := svgFilters && summary.IsSubtreeRenderedExclusivelySVG(s.PreferredRenderers)
	canvasCanHandle := canvasFilters && summary.IsSubtreeRenderedExclusivelyCanvas(s.PreferredRenderers)

	backboneRequired := i.isDisplayRoot || (!s.IsUnderCanvasCache && (hints.CSSTransform || hints.LayerSplit))
	effectsNeedLayer := !backboneRequired && needsEffects && !svgCanHandle && !canvasCanHandle
	useBackbone := backboneRequired
	if effectsNeedLayer {
		useBackbone = !s.IsUnderCanvasCache
	}
	wantsCache := hints.CanvasCache ||
		(needsEffects && canvasCanHandle && !svgCanHandle && !s.IsUnderCanvasCache)

	cacheRenderer := renderer.Canvas
	if i.host.IsWebGLAllowed() {
		cacheRenderer = renderer.WebGL
	}

	switch {
	case useBackbone:
		s.IsBackbone = true
		s.IsVisibilityApplied = true
		s.IsTransformed = i.isDisplayRoot || hints.CSSTransform
		s.GroupRenderer = renderer.DOM
	case wantsCache && summary.IsSingleCanvasSupported():
		if hints.SingleCache {
			if i.isSharedCanvasCacheRoot {
				s.IsSharedCanvasCacheSelf = true
				s.GroupRenderer = cacheRenderer
			} else {
				i.host.Debug().Assert(summary.AreBoundsValid(), "render state",
					"shared canvas cache on %v requires valid bounds", n)
				s.IsSharedCanvasCachePlaceholder = true
				s.SharedCacheRenderer = cacheRenderer
			}
		} else {
			s.IsInstanceCanvasCache = true
			s.IsUnderCanvasCache = true
			s.GroupRenderer = cacheRenderer
		}
	default:
		if wantsCache && hints.CanvasCache && i.stateless {
			scenesync.Logger().Warn("canvas cache hint ignored: subtree is not canvas renderable",
				"node", n.String())
		}
		s.AppliesInlineEffects = needsEffects
	}

	if n.IsPainted() {
		if s.IsUnderCanvasCache {
			s.SelfRenderer = renderer.Canvas
		} else {
			supported := n.RendererBitmask()
			if !i.host.IsWebGLAllowed() {
				supported = renderer.WithoutWebGL(supported)
			}
			s.SelfRenderer = renderer.SelectSelf(supported, s.PreferredRenderers)
		}
	}

	i.state = s
	i.groupChanged = old.IsBackbone != s.IsBackbone ||
		old.IsInstanceCanvasCache != s.IsInstanceCanvasCache ||
		old.IsSharedCanvasCacheSelf != s.IsSharedCanvasCacheSelf
	i.cascadingStateChange = old.IsUnderCanvasCache != s.IsUnderCanvasCache ||
		old.PreferredRenderers != s.PreferredRenderers
	i.anyStateChange = old != s
	i.incompatibleStateChange = old.IsTransformed != s.IsTransformed ||
		old.IsSharedCanvasCachePlaceholder != s.IsSharedCanvasCachePlaceholder

	if !i.stateless && old.AppliesInlineEffects != s.AppliesInlineEffects {
		i.stitchChangeFrame = i.host.FrameID()
	}
	i.fit.checkSelf()

	d := i.host.Debug()
	d.Assert(countGroups(s) == boolToInt(s.GroupRenderer != 0), "render state",
		"%v has %d group kinds for group renderer %v", i, countGroups(s), s.GroupRenderer)
}

func countGroups(s RenderState) int {
	return boolToInt(s.IsBackbone) + boolToInt(s.IsInstanceCanvasCache) + boolToInt(s.IsSharedCanvasCacheSelf)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
