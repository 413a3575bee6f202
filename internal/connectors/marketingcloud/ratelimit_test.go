package marketingcloud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	require.NotNil(t, rl)
	assert.Equal(t, rate.Limit(DefaultRateLimit.RequestsPerSecond), rl.limiter.Limit())
	assert.Equal(t, DefaultRateLimit.BurstSize, rl.limiter.Burst())
}

func TestNewRateLimiterWithConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       RateLimitConfig
		wantLimit rate.Limit
		wantBurst int
	}{
		{name: "custom", cfg: RateLimitConfig{RequestsPerSecond: 2, BurstSize: 4}, wantLimit: 2, wantBurst: 4},
		{name: "zero rate disables limiting", cfg: RateLimitConfig{}, wantLimit: rate.Inf, wantBurst: 1},
		{name: "negative burst", cfg: RateLimitConfig{RequestsPerSecond: 1, BurstSize: -1}, wantLimit: 1, wantBurst: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiterWithConfig(tt.cfg)
			assert.Equal(t, tt.wantLimit, rl.limiter.Limit())
			assert.Equal(t, tt.wantBurst, rl.limiter.Burst())
		})
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter()
	assert.NoError(t, rl.Wait(context.Background()))
}

func TestRateLimiter_Wait_ContextCancelled(t *testing.T) {
	rl := NewRateLimiter()
	rl.Backoff(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiter_Backoff(t *testing.T) {
	rl := NewRateLimiterWithConfig(RateLimitConfig{})
	assert.True(t, rl.Allow())

	rl.Backoff(0)
	assert.False(t, rl.Allow())
	assert.WithinDuration(t, time.Now().Add(30*time.Second), rl.retryAt, time.Second)
}

func TestRateLimiter_BackoffElapses(t *testing.T) {
	rl := NewRateLimiterWithConfig(RateLimitConfig{})
	rl.Backoff(20 * time.Millisecond)

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.True(t, rl.Allow())
}
