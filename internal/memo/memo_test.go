package memo

import "testing"

func TestMemoGetSet(t *testing.T) {
	m := New[string, int](0)
	if _, ok := m.Get("a"); ok {
		t.Fatal("empty memo hit")
	}
	m.Set("a", 1)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	st := m.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Len != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMemoGetOrCreate(t *testing.T) {
	m := New[int, int](0)
	calls := 0
	create := func() int { calls++; return 42 }
	for range 3 {
		if v := m.GetOrCreate(7, create); v != 42 {
			t.Fatalf("GetOrCreate = %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestMemoEvictsOldest(t *testing.T) {
	m := New[int, int](4)
	for i := range 4 {
		m.Set(i, i)
	}
	// touch 0 so it survives
	m.Get(0)
	m.Set(4, 4)

	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
	for _, k := range []int{0, 4} {
		if _, ok := m.Get(k); !ok {
			t.Errorf("recent key %d evicted", k)
		}
	}
	if _, ok := m.Get(1); ok {
		t.Error("oldest key 1 survived")
	}
	if got := m.Stats().Evictions; got != 2 {
		t.Errorf("Evictions = %d, want 2", got)
	}
}

func TestMemoDelete(t *testing.T) {
	m := New[int, string](0)
	for i := range 10 {
		m.Set(i, "v")
	}
	if !m.Delete(3) || m.Delete(3) {
		t.Error("Delete should report presence once")
	}
	n := m.DeleteFunc(func(k int, _ string) bool { return k%2 == 0 })
	if n != 5 || m.Len() != 4 {
		t.Errorf("DeleteFunc removed %d, Len = %d", n, m.Len())
	}
	m.Clear()
	if m.Len() != 0 {
		t.Error("Clear left entries")
	}
}
