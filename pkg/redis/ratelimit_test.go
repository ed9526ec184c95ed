package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minho/argos/pkg/config"
)

func newDisabledLimiter(t *testing.T) *RateLimiter {
	t.Helper()

	cfg := &config.Config{}
	cfg.Redis.Enabled = false

	client, err := New(cfg)
	require.NoError(t, err)

	return NewRateLimiter(client, "test")
}

func TestLocalFallbackAllowsBurst(t *testing.T) {
	limiter := newDisabledLimiter(t)
	cfg := RateLimitConfig{Key: "burst", Limit: 3, Window: time.Minute}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d within burst should pass", i)
	}

	allowed, _, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed, "request beyond burst should be denied")
}

func TestLocalFallbackIsolatesKeys(t *testing.T) {
	limiter := newDisabledLimiter(t)
	ctx := context.Background()

	a := RateLimitConfig{Key: "a", Limit: 1, Window: time.Minute}
	b := RateLimitConfig{Key: "b", Limit: 1, Window: time.Minute}

	allowed, _, err := limiter.Allow(ctx, a)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, a)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, err = limiter.Allow(ctx, b)
	require.NoError(t, err)
	assert.True(t, allowed, "exhausting one key must not affect another")
}

func TestLocalFallbackWaitHonorsContext(t *testing.T) {
	limiter := newDisabledLimiter(t)
	cfg := RateLimitConfig{Key: "wait", Limit: 1, Window: time.Hour}

	ctx := context.Background()
	require.NoError(t, limiter.Wait(ctx, cfg))

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(shortCtx, cfg)
	assert.Error(t, err, "second request cannot be served within the window")
}
