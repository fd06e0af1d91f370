// Package cache implements the process-wide versioned query cache.
//
// Every logical resource (a room's message list, the notification list,
// the unread count) lives under a string key. Invalidating a key bumps a
// monotonic version and wakes watchers; a fetch result stamped with an
// older version than the key's current one is discarded instead of
// overwriting. This makes concurrent re-fetches safe: when two
// invalidations race and their responses resolve out of order, the entry
// always ends up reflecting the chronologically latest fetch.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key builders for the logical resources the client caches.

// RoomMessagesKey returns the cache key for a room's message list.
func RoomMessagesKey(roomID int64) string {
	return fmt.Sprintf("room:%d:messages", roomID)
}

const (
	// NotificationListKey is the cache key for the notification list.
	NotificationListKey = "notifications:list"
	// UnreadCountKey is the cache key for the unread badge count.
	UnreadCountKey = "notifications:unread"
)

// Entry is a cached value together with the key version it was fetched
// under.
type Entry struct {
	Value     any
	Version   uint64
	FetchedAt time.Time
}

// Cache is a bounded, versioned store shared by all client surfaces.
// All methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, Entry]
	// versions outlives LRU eviction: an evicted entry must not reset a
	// key's version or a stale in-flight fetch could win again.
	versions map[string]uint64
	watchers map[string][]chan struct{}
}

// DefaultSize bounds the number of cached resources. Each chat room the
// user has open contributes one entry; 256 is far beyond any realistic
// session.
const DefaultSize = 256

// New creates a cache holding at most size entries.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("create entry store: %w", err)
	}
	return &Cache{
		entries:  entries,
		versions: make(map[string]uint64),
		watchers: make(map[string][]chan struct{}),
	}, nil
}

// Version returns the current version of a key. A fetcher reads this
// before making the network call and passes it back to Store.
func (c *Cache) Version(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[key]
}

// Invalidate bumps the key's version and wakes all watchers. The stored
// entry is kept (stale-but-available) until a fresher fetch replaces it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions[key]++

	for _, ch := range c.watchers[key] {
		close(ch)
	}
	delete(c.watchers, key)
}

// Store records a fetched value if the key has not been invalidated
// since the fetch started. Returns false when the value was discarded as
// stale; the caller should re-fetch at the current version.
func (c *Cache) Store(key string, version uint64, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version < c.versions[key] {
		return false
	}
	c.entries.Add(key, Entry{
		Value:     value,
		Version:   version,
		FetchedAt: time.Now(),
	})
	return true
}

// Get returns the stored value and whether it is fresh (fetched at the
// key's current version). A stale value is still returned so surfaces
// can render last-known state while a re-fetch is in flight.
func (c *Cache) Get(key string) (value any, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false, false
	}
	return entry.Value, entry.Version == c.versions[key], true
}

// Watch returns a channel that is closed on the key's next invalidation.
// One-shot: call again after each wakeup.
func (c *Cache) Watch(key string) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan struct{})
	c.watchers[key] = append(c.watchers[key], ch)
	return ch
}
