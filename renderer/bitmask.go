package renderer

import (
	"fmt"
	"strings"
)

// Bitmask is either a renderer, a set of renderers, or a packed
// preference order, depending on context.
type Bitmask uint32

// Renderer bits.
const (
	Canvas Bitmask = 0x1
	SVG    Bitmask = 0x2
	DOM    Bitmask = 0x4
	WebGL  Bitmask = 0x8

	// RendererArea masks all renderer bits.
	RendererArea Bitmask = 0xF
)

const (
	// NumActiveRenderers is the number of slots in an order bitmask.
	NumActiveRenderers = 4

	// BitsPerRenderer is the width of one order slot.
	BitsPerRenderer = 4

	slotMask Bitmask = 0xF
)

// All renderers in fallback order.
var fallback = [...]Bitmask{SVG, Canvas, DOM, WebGL}

// IsRenderer reports whether b is exactly one renderer bit.
func IsRenderer(b Bitmask) bool {
	return b == Canvas || b == SVG || b == DOM || b == WebGL
}

// CreateOrder packs renderers into an order bitmask, most preferred first.
// Zero entries are skipped; more than four renderers panic.
func CreateOrder(renderers ...Bitmask) Bitmask {
	var order Bitmask
	slot := 0
	for _, r := range renderers {
		if r == 0 {
			continue
		}
		if slot >= NumActiveRenderers {
			panic("renderer: too many renderers for an order bitmask")
		}
		order |= r << (BitsPerRenderer * slot)
		slot++
	}
	return order
}

// Order returns the renderer in slot n of an order bitmask, or 0.
func Order(order Bitmask, n int) Bitmask {
	if n < 0 || n >= NumActiveRenderers {
		return 0
	}
	return (order >> (BitsPerRenderer * n)) & slotMask
}

// PushOrder moves r to the front of an order bitmask. Renderers ahead of
// r's old slot shift back by one; the rest keep their position, so
// relative preference among the others is stable.
func PushOrder(order, r Bitmask) Bitmask {
	if !IsRenderer(r) {
		panic(fmt.Sprintf("renderer: PushOrder with invalid renderer %#x", uint32(r)))
	}
	toInsert := r
	for i := 0; i < NumActiveRenderers; i++ {
		shift := BitsPerRenderer * i
		current := (order >> shift) & slotMask
		order = order&^(slotMask<<shift) | toInsert<<shift
		if current == r || current == 0 {
			return order
		}
		toInsert = current
	}
	panic("renderer: PushOrder overflow")
}

// SelectSelf picks the renderer for a painted node: the first renderer of
// the preference order that the node supports, otherwise the first
// supported of SVG, Canvas, DOM, WebGL. Returns 0 if nothing matches.
func SelectSelf(supported, preferred Bitmask) Bitmask {
	for i := 0; i < NumActiveRenderers; i++ {
		if r := supported & Order(preferred, i); r != 0 {
			return r
		}
	}
	for _, r := range fallback {
		if supported&r != 0 {
			return r
		}
	}
	return 0
}

// WithoutWebGL clears the WebGL bit.
func WithoutWebGL(b Bitmask) Bitmask {
	return b &^ WebGL
}

// Name returns the lowercase name of a single renderer.
func (b Bitmask) Name() string {
	switch b {
	case Canvas:
		return "canvas"
	case SVG:
		return "svg"
	case DOM:
		return "dom"
	case WebGL:
		return "webgl"
	case 0:
		return "none"
	default:
		return fmt.Sprintf("%#x", uint32(b))
	}
}

// String lists the renderer bits of b, e.g. "svg|canvas".
func (b Bitmask) String() string {
	if b&RendererArea == 0 {
		return "none"
	}
	parts := make([]string, 0, 4)
	for _, r := range [...]Bitmask{Canvas, SVG, DOM, WebGL} {
		if b&r != 0 {
			parts = append(parts, r.Name())
		}
	}
	return strings.Join(parts, "|")
}

// OrderString formats an order bitmask, e.g. "[webgl canvas svg]".
func OrderString(order Bitmask) string {
	parts := make([]string, 0, NumActiveRenderers)
	for i := 0; i < NumActiveRenderers; i++ {
		r := Order(order, i)
		if r == 0 {
			break
		}
		parts = append(parts, r.Name())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Parse converts a renderer name to its bit.
func Parse(name string) (Bitmask, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "canvas":
		return Canvas, nil
	case "svg":
		return SVG, nil
	case "dom":
		return DOM, nil
	case "webgl":
		return WebGL, nil
	case "", "none":
		return 0, nil
	}
	return 0, fmt.Errorf("renderer: unknown renderer %q", name)
}
