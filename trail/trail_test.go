package trail

import (
	"testing"

	"github.com/gogpu/scenesync/node"
)

func TestBranchIndex(t *testing.T) {
	root, a, b, c := node.New(), node.New(), node.New(), node.New()

	ta := New(root).AddDescendant(a, 0).AddDescendant(c, 0)
	tb := New(root).AddDescendant(b, 1).AddDescendant(c, 0)
	tPrefix := New(root).AddDescendant(a, 0)

	tests := []struct {
		name string
		x, y *Trail
		want int
	}{
		{"siblings", ta, tb, 1},
		{"prefix", ta, tPrefix, 2},
		{"self", ta, ta, 3},
	}
	for _, tt := range tests {
		if got := tt.x.BranchIndexTo(tt.y); got != tt.want {
			t.Errorf("%s: BranchIndexTo = %d, want %d", tt.name, got, tt.want)
		}
	}
	if !ta.IsExtensionOf(tPrefix) || tPrefix.IsExtensionOf(ta) {
		t.Error("IsExtensionOf mismatch")
	}
	if ta.Equals(tb) || !ta.Equals(ta.Copy()) {
		t.Error("Equals mismatch")
	}
}

func TestImmutable(t *testing.T) {
	root, child := node.New(), node.New()
	tr := New(root).SetImmutable()

	cp := tr.Copy().AddDescendant(child, 3)
	if cp.LastNode() != child || cp.IndexAt(1) != 3 || tr.Len() != 1 {
		t.Fatal("copy should be independent and mutable")
	}

	defer func() {
		if recover() == nil {
			t.Error("mutating an immutable trail should panic")
		}
	}()
	tr.AddDescendant(child, 0)
}

func TestUniqueID(t *testing.T) {
	root, child := node.New(), node.New()
	a := New(root).AddDescendant(child, 0)
	b := New(root).AddDescendant(child, 5)
	if a.UniqueID() != b.UniqueID() {
		t.Error("unique id should depend on nodes only")
	}
	if a.UniqueID() == New(root).UniqueID() {
		t.Error("different trails should have different ids")
	}
}
