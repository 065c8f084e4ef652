package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterIsolatesHosts(t *testing.T) {
	l := NewHostLimiter(0.001, 1)

	assert.True(t, l.Allow("http://a.example.com/x"))
	assert.False(t, l.Allow("http://a.example.com/y"), "burst of one is spent")
	assert.True(t, l.Allow("http://b.example.com/x"), "other host has its own bucket")
}

func TestHostLimiterZeroRateIsUnlimited(t *testing.T) {
	l := NewHostLimiter(0, 1)
	for i := 0; i < 50; i++ {
		require.True(t, l.Allow("http://example.com/"))
	}
}

func TestHostLimiterWaitHonoursContext(t *testing.T) {
	l := NewHostLimiter(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "http://example.com/"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "http://example.com/"))
}

func TestHostLimiterIgnoresUnparsableURL(t *testing.T) {
	l := NewHostLimiter(0.001, 1)
	assert.NoError(t, l.Wait(context.Background(), "::bad"))
	assert.True(t, l.Allow("::bad"))
}
