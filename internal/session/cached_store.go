package session

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a cached entry may answer Get before the
// backing store is read again.
const DefaultCacheTTL = 2 * time.Second

type cachedEntry struct {
	state    State
	loadedAt time.Time
}

// CachedStore fronts another Store with a short-lived read cache. Writes go
// to the backing store first and the cache is only updated after they
// succeed. Entries older than the TTL are reloaded, so writes made by other
// processes become visible within one TTL.
type CachedStore struct {
	backing Store
	ttl     time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedEntry
}

// NewCachedStore wraps backing. A non-positive ttl uses DefaultCacheTTL.
func NewCachedStore(backing Store, ttl time.Duration) *CachedStore {
	if backing == nil {
		panic("session: backing store cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{backing: backing, ttl: ttl, now: time.Now, entries: make(map[string]cachedEntry)}
}

func (c *CachedStore) Get(ctx context.Context, userID string) (*State, error) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.loadedAt) < c.ttl {
		st := e.state
		return &st, nil
	}

	loaded, err := c.backing.Get(ctx, userID)
	if err != nil || loaded == nil {
		c.Invalidate(userID)
		return loaded, err
	}
	c.mu.Lock()
	c.entries[userID] = cachedEntry{state: *loaded, loadedAt: c.now()}
	c.mu.Unlock()
	return loaded, nil
}

// Save writes through. A cached entry is patched in place but keeps its load
// time, so it still expires on schedule.
func (c *CachedStore) Save(ctx context.Context, userID string, patch Patch) error {
	if err := c.backing.Save(ctx, userID, patch); err != nil {
		c.Invalidate(userID)
		return err
	}
	c.mu.Lock()
	if e, ok := c.entries[userID]; ok {
		patch.Apply(&e.state)
		c.entries[userID] = e
	}
	c.mu.Unlock()
	return nil
}

func (c *CachedStore) Clear(ctx context.Context, userID string) error {
	return c.Save(ctx, userID, ClearPatch())
}

func (c *CachedStore) ListPaused(ctx context.Context) ([]string, error) {
	return c.backing.ListPaused(ctx)
}

// Invalidate drops the cached entry so the next Get reloads it.
func (c *CachedStore) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
