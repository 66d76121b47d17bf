package instance

import (
	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/drawable"
	"github.com/gogpu/scenesync/node"
)

// FrameID numbers display frames. Stamps compare against the id of the
// frame being prepared; zero never matches a frame.
type FrameID uint64

// Host is the display an instance tree belongs to.
type Host interface {
	drawable.Tracker

	// FrameID returns the id of the frame being prepared.
	FrameID() FrameID
	// Debug returns the assertion configuration.
	Debug() scenesync.DebugConfig
	// IsWebGLAllowed reports whether WebGL drawables may be created.
	IsWebGLAllowed() bool
	// Arena returns the instance allocator.
	Arena() *Arena
	// Bitmaps returns the bitmap cache of canvas cache drawables.
	Bitmaps() *drawable.BitmapCache

	// MarkInstanceRootForDisposal queues a detached subtree for disposal
	// at the end of the frame.
	MarkInstanceRootForDisposal(i *Instance)
	// MarkTransformRootDirty records that i roots an independent transform.
	MarkTransformRootDirty(i *Instance, passTransform bool)

	// SharedCanvasInstance returns the shared cache instance of a node.
	SharedCanvasInstance(id node.ID) (*Instance, bool)
	// SetSharedCanvasInstance registers the shared cache instance of a node.
	SetSharedCanvasInstance(id node.ID, i *Instance)
	// DeleteSharedCanvasInstance drops the registration of a node.
	DeleteSharedCanvasInstance(id node.ID)
}
