package scanner

import (
	"fmt"
	"sync"
	"time"
)

// EnrichmentCache is an in-process TTL cache shielding rate-limited external calls
// ⭐ SSOT: 보강 데이터 캐싱은 이 구조체에서만
// 만료는 조회 시점에 게으르게 처리 (백그라운드 타이머 없음)
type EnrichmentCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration

	// 관측용 카운터
	hits   int64
	misses int64

	now func() time.Time // 테스트에서 시계 주입
}

type cacheEntry struct {
	value    interface{}
	storedAt time.Time
}

// NewEnrichmentCache creates a cache with the given TTL
func NewEnrichmentCache(ttl time.Duration) *EnrichmentCache {
	return &EnrichmentCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value when the entry is still fresh
// 경계는 배타적: 저장 후 정확히 TTL이 지난 엔트리는 만료로 취급
func (c *EnrichmentCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.now().Sub(entry.storedAt) >= c.ttl {
		// 만료: 다음 조회를 위해 즉시 제거
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.value, true
}

// Put stores a value, resetting its TTL window
func (c *EnrichmentCache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:    value,
		storedAt: c.now(),
	}
}

// Len returns the number of entries, expired ones included
func (c *EnrichmentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear drops all entries
func (c *EnrichmentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

// Stats returns hit/miss counters
func (c *EnrichmentCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.hits, c.misses
}

// Cache key generators (협약: 종류:종목코드)

func execIntensityKey(code string) string {
	return fmt.Sprintf("exec:%s", code)
}

func programNetBuyKey(code string) string {
	return fmt.Sprintf("program:%s", code)
}
