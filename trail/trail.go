// Package trail identifies one occurrence of a node in a scene graph by the
// path of nodes leading to it from a root.
package trail

import (
	"strconv"
	"strings"

	"github.com/gogpu/scenesync/node"
)

// Trail is an ordered path of nodes from a root. The child index of each
// step is recorded alongside it. Once SetImmutable is called the trail can
// be shared freely as an identity key.
type Trail struct {
	nodes     []*node.Node
	indices   []int
	immutable bool
}

// New creates a trail containing only root.
func New(root *node.Node) *Trail {
	return &Trail{nodes: []*node.Node{root}}
}

// Copy returns a mutable copy.
func (t *Trail) Copy() *Trail {
	return &Trail{
		nodes:   append([]*node.Node(nil), t.nodes...),
		indices: append([]int(nil), t.indices...),
	}
}

// AddDescendant appends a child reached through child index index and
// returns t for chaining.
func (t *Trail) AddDescendant(n *node.Node, index int) *Trail {
	if t.immutable {
		panic("trail: AddDescendant on an immutable trail")
	}
	t.nodes = append(t.nodes, n)
	t.indices = append(t.indices, index)
	return t
}

// SetImmutable freezes the trail and returns it.
func (t *Trail) SetImmutable() *Trail {
	t.immutable = true
	return t
}

// IsImmutable reports whether the trail is frozen.
func (t *Trail) IsImmutable() bool { return t.immutable }

// Len returns the number of nodes.
func (t *Trail) Len() int { return len(t.nodes) }

// NodeAt returns the i-th node from the root.
func (t *Trail) NodeAt(i int) *node.Node { return t.nodes[i] }

// IndexAt returns the child index used to reach NodeAt(i); i must be >= 1.
func (t *Trail) IndexAt(i int) int { return t.indices[i-1] }

// RootNode returns the first node.
func (t *Trail) RootNode() *node.Node { return t.nodes[0] }

// LastNode returns the node this trail identifies.
func (t *Trail) LastNode() *node.Node { return t.nodes[len(t.nodes)-1] }

// Nodes returns the nodes from root to leaf. The slice must not be
// modified.
func (t *Trail) Nodes() []*node.Node { return t.nodes }

// BranchIndexTo returns the first index at which t and other differ. If one
// is a prefix of the other, the shorter length is returned.
func (t *Trail) BranchIndexTo(other *Trail) int {
	n := min(len(t.nodes), len(other.nodes))
	for i := 0; i < n; i++ {
		if t.nodes[i] != other.nodes[i] {
			return i
		}
	}
	return n
}

// Equals reports whether both trails visit the same nodes.
func (t *Trail) Equals(other *Trail) bool {
	return len(t.nodes) == len(other.nodes) && t.BranchIndexTo(other) == len(t.nodes)
}

// IsExtensionOf reports whether other is a (not necessarily strict)
// prefix of t.
func (t *Trail) IsExtensionOf(other *Trail) bool {
	return len(other.nodes) <= len(t.nodes) && t.BranchIndexTo(other) == len(other.nodes)
}

// UniqueID is a stable string key built from the node ids.
func (t *Trail) UniqueID() string {
	var b strings.Builder
	for i, n := range t.nodes {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.FormatUint(uint64(n.ID()), 10))
	}
	return b.String()
}

func (t *Trail) String() string {
	parts := make([]string, len(t.nodes))
	for i, n := range t.nodes {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
