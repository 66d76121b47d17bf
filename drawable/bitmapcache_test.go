package drawable

import (
	"image"
	"testing"
)

func square(n int) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, n, n)) }

func TestBitmapCachePutGet(t *testing.T) {
	c := NewBitmapCache(1)
	if buf := c.Put(1, square(10)); buf == nil {
		t.Fatal("Put returned nil buffer")
	}
	img, buf, ok := c.Get(1)
	if !ok || img == nil || buf == nil {
		t.Fatal("Get missed a stored bitmap")
	}
	if _, _, ok := c.Get(2); ok {
		t.Error("Get hit an absent id")
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Entries != 1 || st.Size != 400 {
		t.Errorf("stats = %+v", st)
	}
}

func TestBitmapCacheEvictsLeastRecent(t *testing.T) {
	c := NewBitmapCache(1)
	c.Put(1, square(300))
	c.Put(2, square(300))
	c.Get(1)
	c.Put(3, square(300))

	if _, _, ok := c.Get(2); ok {
		t.Error("least recently used bitmap not evicted")
	}
	if _, _, ok := c.Get(1); !ok {
		t.Error("recently used bitmap evicted")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestBitmapCacheOversized(t *testing.T) {
	c := NewBitmapCache(1)
	if buf := c.Put(1, square(600)); buf == nil {
		t.Error("oversized Put should still return a buffer")
	}
	if c.Stats().Entries != 0 {
		t.Error("oversized bitmap was cached")
	}
	if c.Put(2, nil) != nil {
		t.Error("nil image should return nil")
	}
}

func TestBitmapCacheReplaceAndInvalidate(t *testing.T) {
	c := NewBitmapCache(0)
	if c.Stats().MaxSize != DefaultBitmapCacheMB*bytesPerMB {
		t.Error("default budget not applied")
	}
	c.Put(1, square(10))
	c.Put(1, square(20))
	if st := c.Stats(); st.Entries != 1 || st.Size != 1600 {
		t.Errorf("after replace stats = %+v", st)
	}
	c.Invalidate(1)
	c.Invalidate(1)
	c.Put(2, square(1))
	c.Put(3, square(1))
	c.InvalidateAll()
	if st := c.Stats(); st.Entries != 0 || st.Size != 0 || st.Evictions != 3 {
		t.Errorf("after invalidate stats = %+v", st)
	}
}
