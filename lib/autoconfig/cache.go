package autoconfig

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultSuccessTTL = time.Hour
	DefaultFailureTTL = 15 * time.Minute
)

// Cache remembers discovery outcomes per domain. Failures are kept for a
// shorter time than successes so that a transient provider outage does not
// pin a negative answer for a whole hour. Expired entries are dropped lazily
// on read; there is no sweeper goroutine and no size bound.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	successTTL time.Duration
	failureTTL time.Duration

	now func() time.Time // replaced in tests
}

type cacheEntry struct {
	result  *Result
	expires time.Time
}

func NewCache(successTTL, failureTTL time.Duration) *Cache {
	if successTTL <= 0 {
		successTTL = DefaultSuccessTTL
	}
	if failureTTL <= 0 {
		failureTTL = DefaultFailureTTL
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		successTTL: successTTL,
		failureTTL: failureTTL,
		now:        time.Now,
	}
}

func cacheKey(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

func (c *Cache) get(domain string) *Result {
	key := cacheKey(domain)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		// drop it unless it was replaced meanwhile
		if e, ok := c.entries[key]; ok && e.expires.Equal(entry.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil
	}
	return entry.result
}

func (c *Cache) set(domain string, result *Result) {
	if result == nil {
		return
	}
	ttl := c.failureTTL
	if result.Success {
		ttl = c.successTTL
	}
	key := cacheKey(domain)
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Clear drops the entry for domain, or every entry when domain is empty.
func (c *Cache) Clear(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if domain == "" {
		c.entries = make(map[string]cacheEntry)
		return
	}
	delete(c.entries, cacheKey(domain))
}
