package drawable

import (
	"image"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/renderer"
)

// Backbone is a DOM-style layer holding a stitched child list. It applies
// the owner's group opacity and clip area unless it is the display root.
type Backbone struct {
	Container
	owner       Owner
	displayRoot bool
}

// NewBackbone creates a backbone for owner.
func NewBackbone(owner Owner, r renderer.Bitmask, displayRoot bool, debug scenesync.DebugConfig) *Backbone {
	b := &Backbone{owner: owner, displayRoot: displayRoot}
	b.initContainer(b, r, debug)
	return b
}

// Owner returns the instance the backbone belongs to.
func (b *Backbone) Owner() Owner { return b.owner }

// IsDisplayRoot reports whether the backbone is the root of a display.
func (b *Backbone) IsDisplayRoot() bool { return b.displayRoot }

// PaintCanvas rasterizes the children.
func (b *Backbone) PaintCanvas(dc *gg.Context) {
	if b.disposed || !b.visible {
		return
	}
	opacity := 1.0
	if !b.displayRoot {
		opacity = b.owner.GroupOpacity()
	}
	if opacity <= 0 {
		return
	}

	dc.Push()
	defer dc.Pop()
	if opacity < 1 {
		dc.PushLayer(gg.BlendNormal, opacity)
		defer dc.PopLayer()
	}
	if !b.displayRoot {
		clipTo(dc, b.owner)
	}
	b.paintChildren(dc)
	b.dirty = false
}

// Dispose releases the backbone.
func (b *Backbone) Dispose() {
	b.Container.Dispose()
	b.owner = nil
}

// InlineCanvasCache renders its children once into a bitmap and composites
// the bitmap while nothing below changes.
type InlineCanvasCache struct {
	Container
	owner   Owner
	bitmaps *BitmapCache
	renders int
}

// NewInlineCanvasCache creates a canvas cache for owner storing its output
// in bitmaps. A nil bitmaps gives the drawable a private cache.
func NewInlineCanvasCache(owner Owner, r renderer.Bitmask, bitmaps *BitmapCache, debug scenesync.DebugConfig) *InlineCanvasCache {
	if bitmaps == nil {
		bitmaps = NewBitmapCache(0)
	}
	c := &InlineCanvasCache{owner: owner, bitmaps: bitmaps}
	c.initContainer(c, r, debug)
	return c
}

// Owner returns the instance the cache belongs to.
func (c *InlineCanvasCache) Owner() Owner { return c.owner }

// Renders returns how many times the children were rasterized.
func (c *InlineCanvasCache) Renders() int { return c.renders }

// PaintCanvas composites the cached bitmap, refreshing it first if stale.
func (c *InlineCanvasCache) PaintCanvas(dc *gg.Context) {
	if c.disposed || !c.visible {
		return
	}
	opacity := c.owner.GroupOpacity()
	if opacity <= 0 {
		return
	}
	_, buf := rasterize(&c.Container, c.bitmaps, c.owner, dc.Width(), dc.Height(), &c.renders)
	if buf == nil {
		return
	}
	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.DrawImageEx(buf, gg.DrawImageOptions{Opacity: opacity, BlendMode: gg.BlendNormal})
}

// Dispose releases the cache and its bitmap.
func (c *InlineCanvasCache) Dispose() {
	c.bitmaps.Invalidate(c.id)
	c.Container.Dispose()
	c.owner = nil
}

// CanvasBlock is the root group of a shared canvas cache. It is never
// linked into a display list; placeholders composite its bitmap instead.
type CanvasBlock struct {
	Container
	owner   Owner
	bitmaps *BitmapCache
	renders int
}

// NewCanvasBlock creates the shared root block for owner.
func NewCanvasBlock(owner Owner, r renderer.Bitmask, bitmaps *BitmapCache, debug scenesync.DebugConfig) *CanvasBlock {
	if bitmaps == nil {
		bitmaps = NewBitmapCache(0)
	}
	c := &CanvasBlock{owner: owner, bitmaps: bitmaps}
	c.initContainer(c, r, debug)
	return c
}

// Owner returns the shared instance.
func (c *CanvasBlock) Owner() Owner { return c.owner }

// Renders returns how many times the block was rasterized.
func (c *CanvasBlock) Renders() int { return c.renders }

// Raster returns the block's output at the given size in the node's parent
// coordinate frame.
func (c *CanvasBlock) Raster(w, h int) *image.RGBA {
	if c.disposed {
		return nil
	}
	img, _ := rasterize(&c.Container, c.bitmaps, c.owner, w, h, &c.renders)
	return img
}

// PaintCanvas composites the block untransformed.
func (c *CanvasBlock) PaintCanvas(dc *gg.Context) {
	if c.disposed || !c.visible {
		return
	}
	_, buf := rasterize(&c.Container, c.bitmaps, c.owner, dc.Width(), dc.Height(), &c.renders)
	if buf != nil {
		dc.DrawImage(buf, 0, 0)
	}
}

// Dispose releases the block and its bitmap.
func (c *CanvasBlock) Dispose() {
	c.bitmaps.Invalidate(c.id)
	c.Container.Dispose()
	c.owner = nil
}

// SharedOwner is the placeholder instance of a shared canvas cache.
type SharedOwner interface {
	Owner
	// ParentTrailMatrix is the transform from the trail root to the
	// placeholder node's parent.
	ParentTrailMatrix() gg.Matrix
	// SharedBlock returns the block of the shared instance, if ready.
	SharedBlock() *CanvasBlock
}

// SharedCanvasCache stands in the display list for one occurrence of a
// shared canvas cache.
type SharedCanvasCache struct {
	Base
	owner   SharedOwner
	scratch *image.RGBA
}

// NewSharedCanvasCache creates the placeholder drawable for owner.
func NewSharedCanvasCache(owner SharedOwner, r renderer.Bitmask) *SharedCanvasCache {
	d := &SharedCanvasCache{owner: owner}
	d.init(r)
	return d
}

// Owner returns the placeholder instance.
func (d *SharedCanvasCache) Owner() SharedOwner { return d.owner }

// PaintCanvas draws the shared bitmap under the placeholder's parent
// transform.
func (d *SharedCanvasCache) PaintCanvas(dc *gg.Context) {
	if d.disposed || !d.visible || d.owner == nil {
		return
	}
	block := d.owner.SharedBlock()
	if block == nil {
		return
	}
	opacity := d.owner.GroupOpacity()
	if opacity <= 0 {
		return
	}
	w, h := dc.Width(), dc.Height()
	src := block.Raster(w, h)
	if src == nil {
		return
	}

	if d.scratch == nil || d.scratch.Bounds().Dx() != w || d.scratch.Bounds().Dy() != h {
		d.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		draw.Draw(d.scratch, d.scratch.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
	m := d.owner.ParentTrailMatrix()
	draw.ApproxBiLinear.Transform(d.scratch, f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}, src, src.Bounds(), draw.Over, nil)

	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.DrawImageEx(gg.ImageBufFromImage(d.scratch), gg.DrawImageOptions{Opacity: opacity, BlendMode: gg.BlendNormal})
}

// Dispose releases the placeholder drawable.
func (d *SharedCanvasCache) Dispose() {
	d.Base.Dispose()
	d.owner = nil
	d.scratch = nil
}

// rasterize renders c's children into a w×h bitmap, reusing the cached one
// while c is clean.
func rasterize(c *Container, bitmaps *BitmapCache, owner Owner, w, h int, renders *int) (*image.RGBA, *gg.ImageBuf) {
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	if !c.dirty {
		if img, buf, ok := bitmaps.Get(c.id); ok && img.Bounds().Dx() == w && img.Bounds().Dy() == h {
			return img, buf
		}
	}

	off := gg.NewContext(w, h)
	defer func() { _ = off.Close() }()
	clipTo(off, owner)
	c.paintChildren(off)

	img, ok := off.Image().(*image.RGBA)
	if !ok {
		img = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(img, img.Bounds(), off.Image(), image.Point{}, draw.Src)
	}
	buf := bitmaps.Put(c.id, img)
	c.dirty = false
	*renders++
	return img, buf
}

// clipTo restricts dc to the owner node's clip area, if any, leaving the
// current transform unchanged.
func clipTo(dc *gg.Context, owner Owner) {
	if owner == nil {
		return
	}
	n := owner.Node()
	if n == nil || !n.HasClipArea() {
		return
	}
	clipRect(dc, owner.TrailMatrix(), n.ClipArea())
}

func clipRect(dc *gg.Context, m gg.Matrix, r *node.Rect) {
	dc.Transform(m)
	dc.ClipRect(r.X, r.Y, r.W, r.H)
	dc.Transform(m.Invert())
}
