package controlplane

import (
	"sync"
	"time"

	"github.com/teamfolio/rebound/policy"
)

type cacheEntry struct {
	policy    policy.Policy
	expiresAt time.Time
	found     bool // false marks a negative entry (policy known missing)
}

// PolicyCache is a thread-safe policy cache with TTL support.
type PolicyCache struct {
	mu      sync.RWMutex
	entries map[policy.Key]cacheEntry
	nowFn   func() time.Time
}

// NewPolicyCache creates a new, empty PolicyCache.
func NewPolicyCache() *PolicyCache {
	return &PolicyCache{
		entries: make(map[policy.Key]cacheEntry),
	}
}

// Get retrieves a policy from the cache. foundInCache is true for any live
// entry, including negative ones; isNegative distinguishes "cached missing"
// from a real hit.
func (c *PolicyCache) Get(key policy.Key) (pol policy.Policy, foundInCache bool, isNegative bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return policy.Policy{}, false, false
	}
	if c.now().After(entry.expiresAt) {
		return policy.Policy{}, false, false
	}

	return entry.policy, true, !entry.found
}

// Set adds or updates a policy in the cache.
func (c *PolicyCache) Set(key policy.Key, pol policy.Policy, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		policy:    pol,
		expiresAt: c.now().Add(ttl),
		found:     true,
	}
}

// SetMissing records a negative cache entry.
func (c *PolicyCache) SetMissing(key policy.Key, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		expiresAt: c.now().Add(ttl),
		found:     false,
	}
}

// Invalidate removes an entry from the cache.
func (c *PolicyCache) Invalidate(key policy.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *PolicyCache) now() time.Time {
	if c.nowFn != nil {
		return c.nowFn()
	}
	return time.Now()
}
