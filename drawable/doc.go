// Package drawable defines the drawables produced by instance
// synchronization, the change intervals describing which runs of the
// drawable list changed during a frame, and the group drawables that
// stitch those runs into their containers.
//
// # Linked list
//
// Drawables form a doubly linked list. During a sync pass the pending links
// (Links.Next, Links.Previous) are rewritten with [Connect],
// [DisconnectBefore] and [DisconnectAfter]; the links of the previous frame
// stay available in Links.OldNext and Links.OldPrevious until the frame
// driver calls [UpdateLinks]. Change intervals are only meaningful while
// both views exist.
//
// # Stitching
//
// Group drawables ([Backbone], [InlineCanvasCache], [CanvasBlock]) embed a
// [Container]. Its Stitch method copies unchanged runs from the previous
// child order and re-walks only the runs covered by change intervals.
package drawable
