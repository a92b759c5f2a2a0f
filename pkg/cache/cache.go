// Package cache provides a generic TTL cache with sliding expiry.
package cache

import (
	"sync"
	"time"
)

// item wraps a cached value with its expiration time
type item[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is a thread-safe map whose entries expire after ttl without access.
type Cache[T any] struct {
	items   map[string]item[T]
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	onEvict func(key string, value T)
	stop    chan struct{}
	once    sync.Once
}

// New creates a cache with the specified TTL and starts a janitor that
// sweeps expired entries every ttl. Call Close to stop it.
func New[T any](ttl time.Duration) *Cache[T] {
	return newCache[T](ttl, time.Now)
}

// newCache sets every field before the janitor starts reading them.
func newCache[T any](ttl time.Duration, now func() time.Time) *Cache[T] {
	c := &Cache[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
		now:   now,
		stop:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// OnEvict registers fn to be called (outside the lock) for every entry
// removed by expiry.
func (c *Cache[T]) OnEvict(fn func(key string, value T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get retrieves a value and extends its lifetime. It returns false if the
// key is missing or expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, exists := c.items[key]
	now := c.now()
	if !exists || now.After(it.expiresAt) {
		var zero T
		return zero, false
	}
	it.expiresAt = now.Add(c.ttl)
	c.items[key] = it
	return it.value, true
}

// Set stores a value with the cache's TTL
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes a key and reports whether it was present.
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	delete(c.items, key)
	return ok
}

// Size returns the number of live items. Expired items awaiting the next
// sweep are not counted.
func (c *Cache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	n := 0
	for _, it := range c.items {
		if !now.After(it.expiresAt) {
			n++
		}
	}
	return n
}

// Close stops the background cleanup goroutine. It is safe to call twice.
func (c *Cache[T]) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanup runs periodically to remove expired items
func (c *Cache[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[T]) removeExpired() {
	type evicted struct {
		key   string
		value T
	}
	var gone []evicted

	c.mu.Lock()
	now := c.now()
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, key)
			gone = append(gone, evicted{key, it.value})
		}
	}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, e := range gone {
			fn(e.key, e.value)
		}
	}
}
