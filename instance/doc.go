// Package instance keeps a tree of instances in sync with a scene graph.
//
// An Instance exists for every occurrence of a node, identified by its
// trail. Once per frame the display calls BaseSyncTree on the root
// instance, which
//
//   - infers render state (renderers, backbones, canvas caches),
//   - reconciles child instances with the node's children,
//   - assembles the drawable linked list of the subtree, and
//   - records change intervals so group drawables restitch only the runs
//     that actually changed.
//
// Node mutations between frames only stamp frame ids on the affected
// instances. Subtrees without stamps are pruned and cost nothing.
//
// The package is single-threaded. All methods must be called from the
// goroutine driving the display.
package instance
