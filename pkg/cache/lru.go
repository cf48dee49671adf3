// Package cache holds the query result cache the HTTP service consults
// before re-ranking a query against the loaded snapshot.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/parsisearch/jostoju/pkg/rank"
)

// entry is one cached query's scored result list.
type entry struct {
	key       string
	results   []rank.Result
	terms     []string
	expiresAt time.Time
	element   *list.Element
}

// ResultCache is a thread-safe LRU cache with TTL support, keyed by
// raw query text plus the ranking options used to score it — two
// requests for the same text under different weights must not collide.
type ResultCache struct {
	mu        sync.RWMutex
	capacity  int
	ttl       time.Duration
	items     map[string]*entry
	lruList   *list.List
	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a ResultCache holding at most capacity entries, each valid
// for ttl.
func New(capacity int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry),
		lruList:  list.New(),
	}
}

// Get retrieves a cached result list for key.
func (c *ResultCache) Get(key string) ([]rank.Result, []string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.removeElement(e)
		c.misses++
		return nil, nil, false
	}

	c.lruList.MoveToFront(e.element)
	c.hits++
	return e.results, e.terms, true
}

// Put stores a result list under key, evicting the least recently used
// entry if the cache is over capacity.
func (c *ResultCache) Put(key string, results []rank.Result, terms []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.items[key]; exists {
		e.results = results
		e.terms = terms
		e.expiresAt = time.Now().Add(c.ttl)
		c.lruList.MoveToFront(e.element)
		return
	}

	e := &entry{
		key:       key,
		results:   results,
		terms:     terms,
		expiresAt: time.Now().Add(c.ttl),
	}
	e.element = c.lruList.PushFront(e)
	c.items[key] = e

	if c.lruList.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *ResultCache) evictOldest() {
	oldest := c.lruList.Back()
	if oldest == nil {
		return
	}
	e := oldest.Value.(*entry)
	c.lruList.Remove(oldest)
	delete(c.items, e.key)
	c.evictions++
}

func (c *ResultCache) removeElement(e *entry) {
	c.lruList.Remove(e.element)
	delete(c.items, e.key)
}

// Clear removes all entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry)
	c.lruList = list.New()
}

// Size returns the current number of cached entries.
func (c *ResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats reports cache effectiveness for the /stats endpoint.
func (c *ResultCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"capacity":    c.capacity,
		"size":        len(c.items),
		"hits":        c.hits,
		"misses":      c.misses,
		"evictions":   c.evictions,
		"hit_rate":    fmt.Sprintf("%.2f%%", hitRate),
		"ttl_seconds": c.ttl.Seconds(),
	}
}

// Key derives a deterministic cache key from the raw query string and the
// ranking options applied to it, so the same text scored under different
// weights never collides.
func Key(rawQuery string, opts rank.Options) string {
	keyData := struct {
		Query string
		Opts  rank.Options
	}{Query: rawQuery, Opts: opts}

	jsonBytes, err := json.Marshal(keyData)
	if err != nil {
		return fmt.Sprintf("%s_%+v", rawQuery, opts)
	}

	hash := sha256.Sum256(jsonBytes)
	return fmt.Sprintf("%x", hash)
}

// CleanupExpired removes all expired entries; intended to be called
// periodically by a background goroutine rather than on every request.
func (c *ResultCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			c.lruList.Remove(e.element)
			delete(c.items, key)
			removed++
		}
	}
	return removed
}
