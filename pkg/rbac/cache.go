package rbac

import "sync"

// DecisionCache memoizes final grant/deny decisions per (user, permission)
type DecisionCache interface {
	// Get returns a stored decision and whether one was found
	Get(userID, permission string) (bool, bool)

	// Set stores a decision, overwriting any previous entry for the key
	Set(userID, permission string, granted bool)

	// Clear removes all entries
	Clear()

	// Len returns the number of entries
	Len() int
}

type cacheKey struct {
	userID     string
	permission string
}

// MemoryCache is a process-lifetime DecisionCache. Entries never expire on their own.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]bool
}

// NewMemoryCache creates an empty decision cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[cacheKey]bool),
	}
}

// Get returns a stored decision and whether one was found
func (c *MemoryCache) Get(userID, permission string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	granted, ok := c.entries[cacheKey{userID: userID, permission: permission}]
	return granted, ok
}

// Set stores a decision
func (c *MemoryCache) Set(userID, permission string, granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{userID: userID, permission: permission}] = granted
}

// Clear removes all entries
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]bool)
}

// Len returns the number of entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
