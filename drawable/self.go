package drawable

import (
	"github.com/gogpu/gg"

	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/renderer"
)

// Owner is the instance a drawable draws for.
type Owner interface {
	// Node returns the node being drawn.
	Node() *node.Node
	// TrailMatrix is the transform from the trail root to the node.
	TrailMatrix() gg.Matrix
	// InlineOpacity is the opacity applied directly to this instance's
	// self drawable, i.e. the product of opacities up to the nearest group.
	InlineOpacity() float64
	// GroupOpacity is the opacity a group drawable of this instance applies.
	GroupOpacity() float64
}

// SelfDrawable paints a single node occurrence with one renderer.
type SelfDrawable struct {
	Base
	owner Owner
}

// NewSelfDrawable creates the self drawable for owner using renderer r.
func NewSelfDrawable(owner Owner, r renderer.Bitmask, fittable bool) *SelfDrawable {
	d := &SelfDrawable{owner: owner}
	d.init(r)
	d.fittable = fittable
	return d
}

// Owner returns the instance the drawable belongs to.
func (d *SelfDrawable) Owner() Owner { return d.owner }

// Dispose releases the drawable.
func (d *SelfDrawable) Dispose() {
	d.Base.Dispose()
	d.owner = nil
}

// PaintCanvas rasterizes the node with gg. Non-canvas renderers are drawn
// the same way, which gives a software preview of the whole list.
func (d *SelfDrawable) PaintCanvas(dc *gg.Context) {
	if d.disposed || !d.visible || d.owner == nil {
		return
	}
	p := d.owner.Node().Painter()
	if p == nil {
		return
	}
	opacity := d.owner.InlineOpacity()
	if opacity <= 0 {
		return
	}

	dc.Push()
	defer dc.Pop()
	dc.Transform(d.owner.TrailMatrix())
	if opacity < 1 {
		dc.PushLayer(gg.BlendNormal, opacity)
		defer dc.PopLayer()
	}
	p.PaintCanvas(dc)
}
