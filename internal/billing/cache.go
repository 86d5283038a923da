package billing

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// statusCache memoizes plan status per organization. Entries live until an
// explicit refresh; concurrent readers for the same org share one in-flight
// fetch instead of issuing duplicates. The cache is bounded: when full, an
// arbitrary entry is evicted (it is a pure memoization layer, never a source
// of truth, so eviction only costs a refetch).
type statusCache struct {
	mu         sync.Mutex
	entries    map[string]PlanStatus
	maxEntries int
	group      singleflight.Group
}

func newStatusCache(maxEntries int) *statusCache {
	return &statusCache{
		entries:    make(map[string]PlanStatus),
		maxEntries: maxEntries,
	}
}

// get returns the cached status for orgID, fetching (at most once across
// concurrent callers) when absent or when refresh is set.
func (c *statusCache) get(orgID string, refresh bool, fetch func() (PlanStatus, error)) (PlanStatus, error) {
	if !refresh {
		c.mu.Lock()
		if st, ok := c.entries[orgID]; ok {
			c.mu.Unlock()
			return st, nil
		}
		c.mu.Unlock()
	} else {
		c.invalidate(orgID)
	}

	v, err, _ := c.group.Do(orgID, func() (any, error) {
		// Re-check under the flight: a racing caller may have filled it.
		c.mu.Lock()
		if st, ok := c.entries[orgID]; ok && !refresh {
			c.mu.Unlock()
			return st, nil
		}
		c.mu.Unlock()

		st, err := fetch()
		if err != nil {
			return PlanStatus{}, err
		}
		c.put(orgID, st)
		return st, nil
	})
	if err != nil {
		return PlanStatus{}, err
	}
	return v.(PlanStatus), nil
}

func (c *statusCache) put(orgID string, st PlanStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[orgID] = st
}

func (c *statusCache) invalidate(orgID string) {
	c.mu.Lock()
	delete(c.entries, orgID)
	c.mu.Unlock()
}
