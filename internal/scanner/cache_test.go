package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnrichmentCache_PutGet(t *testing.T) {
	c := NewEnrichmentCache(300 * time.Second)

	c.Put("exec:005930", 123.5)

	v, ok := c.Get("exec:005930")
	assert.True(t, ok)
	assert.Equal(t, 123.5, v)

	_, ok = c.Get("exec:000660")
	assert.False(t, ok)
}

func TestEnrichmentCache_ExpiryBoundary(t *testing.T) {
	c := NewEnrichmentCache(300 * time.Second)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("k", int64(42))

	// TTL 직전에는 유효
	now = now.Add(300*time.Second - time.Nanosecond)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	// 정확히 TTL 경과 시점은 만료
	now = now.Add(time.Nanosecond)
	_, ok = c.Get("k")
	assert.False(t, ok)

	// 만료 조회가 엔트리를 제거함
	assert.Zero(t, c.Len())
}

func TestEnrichmentCache_PutResetsTTL(t *testing.T) {
	c := NewEnrichmentCache(10 * time.Second)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("k", 1)
	now = now.Add(8 * time.Second)
	c.Put("k", 2)
	now = now.Add(8 * time.Second)

	// 두 번째 Put 기준으로 8초밖에 지나지 않음
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestEnrichmentCache_Stats(t *testing.T) {
	c := NewEnrichmentCache(time.Minute)

	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestEnrichmentCache_Clear(t *testing.T) {
	c := NewEnrichmentCache(time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
}
