package balance

import (
	"sync"

	"sudosos.org/internal/money"
	"sudosos.org/internal/obs"
)

// Cache holds derived balances keyed by user id. Entries are invalidated
// wholesale on writes, never incrementally updated. No lock is held across
// a recomputation: concurrent misses on the same cold key recompute in
// parallel, which is tolerable because the computation is pure.
type Cache struct {
	mu      sync.RWMutex
	entries map[int]money.Money
}

func NewCache() *Cache {
	return &Cache{entries: make(map[int]money.Money)}
}

// Get returns the cached value for key, or computes and stores it.
func (c *Cache) Get(key int, compute func() (money.Money, error)) (money.Money, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		obs.BalanceCacheHit()
		return v, nil
	}
	obs.BalanceCacheMiss()

	v, err := compute()
	if err != nil {
		return money.Money{}, err
	}
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops the entries for the given keys. Invalidating a cold key
// is a no-op.
func (c *Cache) Invalidate(keys []int) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
}
