package display

import (
	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/drawable"
	"github.com/gogpu/scenesync/instance"
)

// Option configures a Display during creation.
//
// Example:
//
//	d := display.New(root,
//		display.WithSize(800, 600),
//		display.WithDebug(scenesync.DebugConfig{Assertions: true}),
//	)
type Option func(*options)

type options struct {
	width, height int
	webgl         bool
	debug         scenesync.DebugConfig
	branchLimit   int
	bitmapMB      int
	metrics       bool
}

func defaultOptions() options {
	return options{
		width:       DefaultWidth,
		height:      DefaultHeight,
		branchLimit: instance.DefaultBranchCacheLimit,
		bitmapMB:    drawable.DefaultBitmapCacheMB,
	}
}

// Default canvas size used by Paint and SavePNG.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
)

// WithSize sets the canvas size used by Paint and SavePNG.
// Non-positive values keep the default.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
		if height > 0 {
			o.height = height
		}
	}
}

// WithWebGL allows render state inference to pick WebGL drawables.
func WithWebGL(allowed bool) Option {
	return func(o *options) {
		o.webgl = allowed
	}
}

// WithDebug enables invariant assertions. With Assertions set the display
// also audits the instance tree after every frame.
func WithDebug(cfg scenesync.DebugConfig) Option {
	return func(o *options) {
		o.debug = cfg
	}
}

// WithBranchCacheLimit bounds the memo of branch indices between
// instances.
func WithBranchCacheLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.branchLimit = n
		}
	}
}

// WithBitmapCacheMB bounds the memory of canvas cache bitmaps.
func WithBitmapCacheMB(mb int) Option {
	return func(o *options) {
		if mb > 0 {
			o.bitmapMB = mb
		}
	}
}

// WithMetrics records frame metrics with the default prometheus registry.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}
