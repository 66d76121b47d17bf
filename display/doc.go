// Package display drives the instance tree of a scene graph frame by
// frame.
//
// A Display owns the root instance, the instance arena and the queues of
// deferred work a sync pass schedules: drawable links to commit, change
// intervals and drawables to dispose, detached instance subtrees and
// transform roots. UpdateDisplay runs one frame:
//
//	d := display.New(root, display.WithSize(640, 480))
//	defer d.Dispose()
//
//	for range frames {
//		mutate(root)
//		stats, err := d.UpdateDisplay()
//		...
//	}
//
// Paint renders the current drawable list to a gg.Context in software,
// which is enough to inspect the result of a frame.
package display
