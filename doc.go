// Package scenesync keeps a retained-mode scene graph and its rendering
// instance tree in sync, one animation frame at a time.
//
// # Overview
//
// A scene graph is a DAG of [node.Node] values. Every occurrence of a node
// (identified by a [trail.Trail] from the root) gets an [instance.Instance]
// that decides which rendering technology draws it (Canvas, SVG, DOM,
// WebGL, or a cached composite) and owns the drawables for it. The
// instances stitch their drawables into one ordered linked list that a
// renderer walks once per frame.
//
// # Quick Start
//
//	root := node.New()
//	box := node.New()
//	box.SetPainter(myPainter, renderer.Canvas|renderer.SVG)
//	_ = root.AddChild(box)
//
//	d := display.New(root, display.WithSize(640, 480))
//	stats, _ := d.UpdateDisplay() // once per frame
//
//	dc := gg.NewContext(640, 480)
//	_ = d.Paint(dc)
//
// # Architecture
//
//   - renderer: bitmask algebra for renderer preferences and capabilities
//   - node, trail: the scene graph and paths into it
//   - drawable: drawables, change intervals and stitching
//   - instance: the synchronization engine
//   - display: the per-frame driver
//
// # Frames
//
// All work is single threaded and frame synchronous. Node mutations only
// stamp frame ids and queue bookkeeping; the next UpdateDisplay does the
// work. Separate displays may live on separate goroutines.
package scenesync

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
