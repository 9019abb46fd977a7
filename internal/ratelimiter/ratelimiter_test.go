package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow(t *testing.T) {
	limiter := New(10, 5)
	assert.False(t, limiter.Unlimited())

	for i := range 5 {
		require.True(t, limiter.Allow(), "submission %d should fit in the burst", i)
	}
	assert.False(t, limiter.Allow(), "bucket should be empty")

	// 10 per second refills one token every 100ms
	assert.Eventually(t, limiter.Allow, time.Second, 10*time.Millisecond)
}

func TestBurstRaisedToOne(t *testing.T) {
	limiter := New(1, 0)
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}

func TestWait(t *testing.T) {
	limiter := New(20, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestWaitContextCancelled(t *testing.T) {
	limiter := New(1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx))
}

func TestUnlimited(t *testing.T) {
	limiter := New(0, 0)
	assert.True(t, limiter.Unlimited())

	for i := range 1000 {
		require.True(t, limiter.Allow(), "submission %d", i)
	}
}

func TestTokens(t *testing.T) {
	limiter := New(1, 10)
	assert.InDelta(t, 10, limiter.Tokens(), 0.5)

	for range 4 {
		limiter.Allow()
	}
	assert.InDelta(t, 6, limiter.Tokens(), 0.5)
}

func BenchmarkAllow(b *testing.B) {
	limiter := New(1_000_000, 1_000_000)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow()
		}
	})
}
