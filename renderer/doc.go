// Package renderer implements the bitmask algebra used to pick a rendering
// technology for a scene-graph instance.
//
// A renderer is a single bit ([Canvas], [SVG], [DOM], [WebGL]). Capability
// sets are plain unions of those bits. Preference orders pack up to four
// renderers into 4-bit slots, slot 0 being the most preferred:
//
//	pref := renderer.CreateOrder(renderer.Canvas, renderer.SVG)
//	pref = renderer.PushOrder(pref, renderer.WebGL) // WebGL, Canvas, SVG
//	r := renderer.SelectSelf(renderer.SVG|renderer.Canvas, pref) // Canvas
package renderer
