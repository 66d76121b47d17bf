package instance

import (
	"github.com/gogpu/scenesync/internal/memo"
)

// DefaultBranchCacheLimit is the default soft limit of the branch index
// memo.
const DefaultBranchCacheLimit = 4096

// Handle addresses an instance slot in an Arena. Gen changes every time
// the slot is recycled, so a stale handle never matches a live instance.
type Handle struct {
	Index int32
	Gen   uint32
}

type arenaSlot struct {
	inst *Instance
	gen  uint32
	live bool
}

type branchKey struct {
	a, b Handle
}

// Arena allocates instances from a free list and owns the branch index
// memo between pairs of live instances. Entries of recycled instances are
// swept in bulk.
type Arena struct {
	slots []arenaSlot
	free  []int32

	branch     *memo.Memo[branchKey, int]
	freedSince int

	allocated uint64
	reused    uint64
	freed     uint64
	swept     uint64
}

// ArenaStats is a snapshot of arena counters.
type ArenaStats struct {
	Live          int
	Free          int
	Allocated     uint64
	Reused        uint64
	Freed         uint64
	BranchEntries int
	BranchHits    uint64
	BranchMisses  uint64
	BranchSwept   uint64
}

// NewArena creates an arena whose branch memo holds about branchLimit
// entries. A non-positive limit selects DefaultBranchCacheLimit.
func NewArena(branchLimit int) *Arena {
	if branchLimit <= 0 {
		branchLimit = DefaultBranchCacheLimit
	}
	return &Arena{branch: memo.New[branchKey, int](branchLimit)}
}

func (a *Arena) alloc() *Instance {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.gen++
		s.live = true
		s.inst.reset()
		s.inst.handle = Handle{Index: idx, Gen: s.gen}
		a.reused++
		return s.inst
	}
	idx := int32(len(a.slots))
	inst := &Instance{handle: Handle{Index: idx, Gen: 1}}
	a.slots = append(a.slots, arenaSlot{inst: inst, gen: 1, live: true})
	a.allocated++
	return inst
}

func (a *Arena) release(i *Instance) {
	if !a.IsLive(i.handle) {
		return
	}
	a.slots[i.handle.Index].live = false
	a.free = append(a.free, i.handle.Index)
	a.freed++
	a.freedSince++
}

// IsLive reports whether h addresses a live instance.
func (a *Arena) IsLive(h Handle) bool {
	if h.Index < 0 || int(h.Index) >= len(a.slots) {
		return false
	}
	s := a.slots[h.Index]
	return s.live && s.gen == h.Gen
}

// Resolve returns the live instance addressed by h.
func (a *Arena) Resolve(h Handle) (*Instance, bool) {
	if !a.IsLive(h) {
		return nil, false
	}
	return a.slots[h.Index].inst, true
}

// BranchIndex returns the first index at which the trails of x and y
// differ, memoized per pair.
func (a *Arena) BranchIndex(x, y *Instance) int {
	k := branchKey{a: x.handle, b: y.handle}
	if y.handle.Index < x.handle.Index {
		k.a, k.b = k.b, k.a
	}
	return a.branch.GetOrCreate(k, func() int {
		return x.trail.BranchIndexTo(y.trail)
	})
}

// Sweep drops memo entries referring to recycled instances and returns
// how many were removed.
func (a *Arena) Sweep() int {
	if a.freedSince == 0 {
		return 0
	}
	a.freedSince = 0
	n := a.branch.DeleteFunc(func(k branchKey, _ int) bool {
		return !a.IsLive(k.a) || !a.IsLive(k.b)
	})
	a.swept += uint64(n)
	return n
}

// Stats returns the current counters.
func (a *Arena) Stats() ArenaStats {
	ms := a.branch.Stats()
	return ArenaStats{
		Live:          len(a.slots) - len(a.free),
		Free:          len(a.free),
		Allocated:     a.allocated,
		Reused:        a.reused,
		Freed:         a.freed,
		BranchEntries: ms.Len,
		BranchHits:    ms.Hits,
		BranchMisses:  ms.Misses,
		BranchSwept:   a.swept,
	}
}
