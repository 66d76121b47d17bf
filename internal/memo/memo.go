package memo

import (
	"maps"
	"slices"
)

// Memo is an LRU map with a soft limit. When the limit is exceeded the
// least recently used quarter of the entries is dropped.
type Memo[K comparable, V any] struct {
	entries   map[K]*entry[V]
	softLimit int
	tick      int64

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry[V any] struct {
	value V
	atime int64
}

// Stats contains memo statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a memo with the given soft limit. Zero means unlimited.
func New[K comparable, V any](softLimit int) *Memo[K, V] {
	return &Memo[K, V]{
		entries:   make(map[K]*entry[V]),
		softLimit: softLimit,
	}
}

// Get returns the value for key.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	e, ok := m.entries[key]
	if !ok {
		m.misses++
		var zero V
		return zero, false
	}
	m.tick++
	e.atime = m.tick
	m.hits++
	return e.value, true
}

// Set stores value under key.
func (m *Memo[K, V]) Set(key K, value V) {
	m.tick++
	m.entries[key] = &entry[V]{value: value, atime: m.tick}
	if m.softLimit > 0 && len(m.entries) > m.softLimit {
		m.evictOldest()
	}
}

// GetOrCreate returns the value for key, computing and storing it with
// create on a miss.
func (m *Memo[K, V]) GetOrCreate(key K, create func() V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	v := create()
	m.Set(key, v)
	return v
}

// Delete removes key and reports whether it was present.
func (m *Memo[K, V]) Delete(key K) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	return true
}

// DeleteFunc removes every entry for which del returns true and returns
// the number removed.
func (m *Memo[K, V]) DeleteFunc(del func(K, V) bool) int {
	n := 0
	for k, e := range m.entries {
		if del(k, e.value) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Clear removes all entries.
func (m *Memo[K, V]) Clear() {
	clear(m.entries)
	m.tick = 0
}

// Len returns the number of entries.
func (m *Memo[K, V]) Len() int { return len(m.entries) }

// Stats returns memo statistics.
func (m *Memo[K, V]) Stats() Stats {
	return Stats{
		Len:       len(m.entries),
		Capacity:  m.softLimit,
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
	}
}

func (m *Memo[K, V]) evictOldest() {
	target := max(m.softLimit*3/4, 1)
	toEvict := len(m.entries) - target
	if toEvict <= 0 {
		return
	}
	keys := slices.SortedFunc(maps.Keys(m.entries), func(a, b K) int {
		ta, tb := m.entries[a].atime, m.entries[b].atime
		switch {
		case ta < tb:
			return -1
		case ta > tb:
			return 1
		}
		return 0
	})
	for _, k := range keys[:toEvict] {
		delete(m.entries, k)
	}
	m.evictions += uint64(toEvict)
}
