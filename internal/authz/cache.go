// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package authz

import (
	"sync"
	"time"
)

// enforcementCache caches decisions per role, object and action.
type enforcementCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]cacheItem
	stopChan chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	allowed   bool
	expiresAt time.Time
}

const defaultCacheTTL = 5 * time.Minute

func newEnforcementCache(ttl time.Duration) *enforcementCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := &enforcementCache{
		ttl:      ttl,
		items:    make(map[string]cacheItem),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func cacheKey(role, object, action string) string {
	return role + "\x00" + object + "\x00" + action
}

func (c *enforcementCache) get(role, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[cacheKey(role, object, action)]
	if !found || time.Now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

func (c *enforcementCache) set(role, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[cacheKey(role, object, action)] = cacheItem{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *enforcementCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheItem)
}

func (c *enforcementCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// cleanup periodically removes expired items.
func (c *enforcementCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop is safe to call more than once.
func (c *enforcementCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
