package policy

import (
	"container/list"
	"sync"
	"time"

	"github.com/upb/agent-cost-control/models"
)

// cacheEntry represents a single cache entry with TTL.
// A nil policy records that the customer has none.
type cacheEntry struct {
	customerID string
	policy     *models.BudgetPolicy
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

func (e *cacheEntry) isExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.insertedAt) > ttl
}

// PolicyCache is an in-memory LRU cache with TTL for the active policy of
// each customer. Thread-safe implementation using sync.Mutex.
type PolicyCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry // Key: customer_id
	lruList *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	hits    uint64
	misses  uint64
	epoch   uint64 // bumped by Invalidate and Clear
}

// NewPolicyCache creates a new PolicyCache with specified max size and TTL
func NewPolicyCache(maxSize int, ttl time.Duration) *PolicyCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &PolicyCache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached active policy of a customer. ok is false on a miss
// or when the entry expired; a hit may carry a nil policy.
func (c *PolicyCache) Get(customerID string) (policy *models.BudgetPolicy, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[customerID]
	if !exists || entry.isExpired(c.now(), c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(customerID)
		}
		return nil, false
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++
	return entry.policy, true
}

// Set stores the active policy of a customer
func (c *PolicyCache) Set(customerID string, policy *models.BudgetPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(customerID, policy)
}

// set must be called with lock held
func (c *PolicyCache) set(customerID string, policy *models.BudgetPolicy) {
	if entry, exists := c.entries[customerID]; exists {
		entry.policy = policy
		entry.insertedAt = c.now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		customerID: customerID,
		policy:     policy,
		insertedAt: c.now(),
	}
	entry.element = c.lruList.PushFront(customerID)
	c.entries[customerID] = entry
}

// Epoch returns the invalidation counter. Take it before reading the store
// and hand it to SetIfUnchanged.
func (c *PolicyCache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.epoch
}

// SetIfUnchanged stores the policy only when no invalidation happened since
// epoch was taken, so a read that raced a write cannot resurrect stale data.
func (c *PolicyCache) SetIfUnchanged(customerID string, policy *models.BudgetPolicy, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return false
	}
	c.set(customerID, policy)
	return true
}

// Invalidate removes the entry of a customer
func (c *PolicyCache) Invalidate(customerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.removeEntry(customerID)
}

// Clear removes all entries from the cache
func (c *PolicyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns cache statistics
func (c *PolicyCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

// removeEntry must be called with lock held
func (c *PolicyCache) removeEntry(customerID string) {
	if entry, exists := c.entries[customerID]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, customerID)
	}
}

// evictLRU must be called with lock held
func (c *PolicyCache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	customerID := back.Value.(string)
	c.lruList.Remove(back)
	delete(c.entries, customerID)
}

// CleanupExpired removes all expired entries and returns how many were dropped
func (c *PolicyCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for customerID, entry := range c.entries {
		if entry.isExpired(now, c.ttl) {
			c.removeEntry(customerID)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker periodically drops expired entries until stopCh is closed
func (c *PolicyCache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}
