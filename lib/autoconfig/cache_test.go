package autoconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheTTL(t *testing.T) {
	cache := NewCache(time.Hour, 15*time.Minute)
	now := time.Unix(1700000000, 0)
	cache.now = func() time.Time { return now }

	ok := success(SourceKnownProvider, knownConfig("gmail.com"))
	bad := failure("no configuration could be discovered for broken.example")

	cache.set("gmail.com", ok)
	cache.set("broken.example", bad)

	assert.Same(t, ok, cache.get("gmail.com"))
	assert.Same(t, bad, cache.get("broken.example"))

	// failures expire after 15 minutes, successes stay for an hour
	now = now.Add(16 * time.Minute)
	assert.Nil(t, cache.get("broken.example"))
	assert.Same(t, ok, cache.get("gmail.com"))

	now = now.Add(45 * time.Minute)
	assert.Nil(t, cache.get("gmail.com"))

	// expired entries are dropped on read
	cache.mu.RLock()
	remaining := len(cache.entries)
	cache.mu.RUnlock()
	assert.Zero(t, remaining)
}

func TestCacheKeyNormalization(t *testing.T) {
	cache := NewCache(0, 0)
	ok := success(SourceKnownProvider, knownConfig("gmail.com"))

	cache.set(" GMAIL.com ", ok)
	assert.Same(t, ok, cache.get("gmail.com"))
	assert.Same(t, ok, cache.get("Gmail.COM"))
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(0, 0)
	first := success(SourceDNSSRV, genericFallback("first.example"))
	second := success(SourceDNSSRV, genericFallback("second.example"))

	cache.set("first.example", first)
	cache.set("second.example", second)

	cache.Clear("first.example")
	assert.Nil(t, cache.get("first.example"))
	assert.Same(t, second, cache.get("second.example"))

	cache.Clear("")
	assert.Nil(t, cache.get("second.example"))
}
