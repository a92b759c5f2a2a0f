package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache[int], *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newCache[int](ttl, clk.Now)
	t.Cleanup(c.Close)
	return c, clk
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok")
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestExpiry(t *testing.T) {
	c, clk := newTestCache(t, time.Minute)
	c.Set("a", 1)
	clk.Advance(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("Get after TTL should miss")
	}
}

func TestGetSlidesExpiry(t *testing.T) {
	c, clk := newTestCache(t, time.Minute)
	c.Set("a", 1)
	for i := 0; i < 5; i++ {
		clk.Advance(45 * time.Second)
		if _, ok := c.Get("a"); !ok {
			t.Fatalf("Get %d missed; access should extend lifetime", i)
		}
	}
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	c.Set("a", 1)
	if !c.Delete("a") {
		t.Error("Delete(a) = false")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true")
	}
}

func TestSizeSkipsExpired(t *testing.T) {
	c, clk := newTestCache(t, time.Minute)
	c.Set("old", 1)
	clk.Advance(30 * time.Second)
	c.Set("new", 2)
	clk.Advance(45 * time.Second)

	// "old" has expired but has not been swept yet.
	if got := c.Size(); got != 1 {
		t.Errorf("Size = %d, want 1", got)
	}
	c.removeExpired()
	if got := c.Size(); got != 1 {
		t.Errorf("Size after sweep = %d, want 1", got)
	}
}

func TestRemoveExpiredCallsOnEvict(t *testing.T) {
	c, clk := newTestCache(t, time.Minute)
	var evicted []string
	c.OnEvict(func(key string, v int) { evicted = append(evicted, key) })

	c.Set("old", 1)
	clk.Advance(30 * time.Second)
	c.Set("new", 2)
	clk.Advance(45 * time.Second)

	c.removeExpired()
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Errorf("evicted = %v, want [old]", evicted)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestJanitor(t *testing.T) {
	c := New[string](10 * time.Millisecond)
	defer c.Close()
	done := make(chan string, 1)
	c.OnEvict(func(key string, _ string) { done <- key })
	c.Set("k", "v")

	select {
	case key := <-done:
		if key != "k" {
			t.Errorf("evicted %q, want k", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never evicted the entry")
	}
	c.Close() // second Close must not panic
}
