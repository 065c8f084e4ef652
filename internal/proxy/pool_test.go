package proxy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRotation(t *testing.T) {
	pool, err := NewPool([]string{"p1:8080", "http://p2:8080", "socks5://p3:1080"}, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "http://p1:8080", pool.Next())
	assert.Equal(t, "http://p2:8080", pool.Next())
	assert.Equal(t, "socks5://p3:1080", pool.Next())
	assert.Equal(t, "http://p1:8080", pool.Next())

	pool.MarkFailed("http://p2:8080")
	assert.Equal(t, "socks5://p3:1080", pool.Next(), "p2 is cooling down")
	assert.Equal(t, "http://p1:8080", pool.Next())

	pool.MarkHealthy("http://p2:8080")
	assert.Equal(t, "http://p2:8080", pool.Next())
}

func TestPoolCooldownExpires(t *testing.T) {
	pool, err := NewPool([]string{"http://a:1", "http://b:1"}, time.Minute)
	require.NoError(t, err)
	now := time.Now()
	pool.now = func() time.Time { return now }

	pool.MarkFailed("http://a:1")
	assert.Equal(t, "http://b:1", pool.Next())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, "http://a:1", pool.Next())
}

func TestPoolAllFailedStillReturnsProxy(t *testing.T) {
	pool, err := NewPool([]string{"http://a:1"}, time.Minute)
	require.NoError(t, err)
	pool.MarkFailed("http://a:1")
	assert.Equal(t, "http://a:1", pool.Next())
}

func TestPoolEmptyMeansDirect(t *testing.T) {
	pool, err := NewPool(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "", pool.Next())
	assert.Equal(t, 0, pool.Len())
}

func TestParseRejectsUnsupportedScheme(t *testing.T) {
	_, err := Parse("ftp://proxy:21")
	assert.Error(t, err)
}
