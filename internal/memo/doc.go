// Package memo provides a small soft-limited LRU map for per-frame
// memoization inside the sync engine.
//
// A Memo is not safe for concurrent use. The sync pass that owns it is
// single-threaded, so the map skips locking entirely.
//
//	m := memo.New[pairKey, int](4096)
//	idx := m.GetOrCreate(key, func() int { return compute() })
//	m.DeleteFunc(func(k pairKey, _ int) bool { return stale(k) })
package memo
