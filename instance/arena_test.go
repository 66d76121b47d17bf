package instance

import (
	"testing"

	"github.com/gogpu/scenesync/renderer"
)

func TestArenaReusesReleasedSlots(t *testing.T) {
	a, b := painted("a", renderer.Canvas), painted("b", renderer.Canvas)
	root := group("root", a, b)
	h := newTestHost(t, root)
	h.sync()

	before := h.arena.Stats()
	if before.Live != 3 || before.Free != 0 {
		t.Fatalf("stats = %+v, want 3 live", before)
	}
	old := childOf(t, h.base, b).Handle()

	mustRemove(t, root, b)
	h.sync()
	if st := h.arena.Stats(); st.Live != 2 || st.Free != 1 || st.Freed != 1 {
		t.Fatalf("stats after removal = %+v", st)
	}

	c := painted("c", renderer.Canvas)
	mustInsert(t, root, 1, c)
	h.sync()

	ic := childOf(t, h.base, c)
	if ic.Handle().Index != old.Index || ic.Handle().Gen != old.Gen+1 {
		t.Errorf("handle = %+v, want slot %d generation %d", ic.Handle(), old.Index, old.Gen+1)
	}
	if h.arena.IsLive(old) {
		t.Error("stale handle resolves after reuse")
	}
	if got, ok := h.arena.Resolve(ic.Handle()); !ok || got != ic {
		t.Error("live handle does not resolve")
	}
	if st := h.arena.Stats(); st.Reused != 1 {
		t.Errorf("reused = %d, want 1", st.Reused)
	}
}

func TestBranchIndexMemo(t *testing.T) {
	x := painted("x", renderer.Canvas)
	g := group("g", x)
	b := painted("b", renderer.Canvas)
	root := group("root", g, b)
	h := newTestHost(t, root)
	h.sync()

	ix := childOf(t, childOf(t, h.base, g), x)
	ib := childOf(t, h.base, b)

	if got := ix.BranchIndexTo(ib); got != 1 {
		t.Errorf("branch index = %d, want 1", got)
	}
	if got := ib.BranchIndexTo(ix); got != 1 {
		t.Errorf("reverse branch index = %d, want 1", got)
	}
	if got := ix.BranchIndexTo(h.base); got != 1 {
		t.Errorf("branch index to root = %d, want 1", got)
	}
	st := h.arena.Stats()
	if st.BranchMisses != 2 || st.BranchHits != 1 || st.BranchEntries != 2 {
		t.Errorf("memo stats = %+v, want 2 misses, 1 hit, 2 entries", st)
	}

	mustRemove(t, root, b)
	h.sync()
	if st := h.arena.Stats(); st.BranchEntries != 1 || st.BranchSwept != 1 {
		t.Errorf("memo after removal = %+v, want the stale pair swept", st)
	}
}

func TestArenaSweepWithoutReleasesIsNoop(t *testing.T) {
	a := NewArena(8)
	if n := a.Sweep(); n != 0 {
		t.Errorf("Sweep = %d, want 0", n)
	}
	if _, ok := a.Resolve(Handle{Index: 3, Gen: 1}); ok {
		t.Error("out of range handle resolved")
	}
}
