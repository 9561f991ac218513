package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRistretto(t *testing.T) *RistrettoCache {
	t.Helper()
	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c.(*RistrettoCache)
}

func TestRistrettoCache_SetAndGet(t *testing.T) {
	c := newTestRistretto(t)

	require.True(t, c.Set("key", "value", time.Hour))
	c.Wait()

	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, "value", got)
}

func TestRistrettoCache_GetMissing(t *testing.T) {
	c := newTestRistretto(t)

	_, found := c.Get("absent")
	assert.False(t, found)
}

func TestRistrettoCache_Delete(t *testing.T) {
	c := newTestRistretto(t)

	require.True(t, c.Set("key", "value", time.Hour))
	c.Wait()

	c.Delete("key")
	c.Wait()

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestRistrettoCache_TTLExpiry(t *testing.T) {
	c := newTestRistretto(t)

	require.True(t, c.Set("key", "value", 50*time.Millisecond))
	c.Wait()

	_, found := c.Get("key")
	require.True(t, found)

	time.Sleep(100 * time.Millisecond)

	_, found = c.Get("key")
	assert.False(t, found)
}

func TestRistrettoCache_Clear(t *testing.T) {
	c := newTestRistretto(t)

	require.True(t, c.Set("a", 1, time.Hour))
	require.True(t, c.Set("b", 2, time.Hour))
	c.Wait()

	c.Clear()

	_, foundA := c.Get("a")
	_, foundB := c.Get("b")
	assert.False(t, foundA)
	assert.False(t, foundB)
}

func TestRistrettoCache_StoresStructs(t *testing.T) {
	c := newTestRistretto(t)

	type meta struct {
		TickSize float64
	}

	require.True(t, c.Set("token", &meta{TickSize: 0.001}, time.Hour))
	c.Wait()

	got, found := c.Get("token")
	require.True(t, found)
	assert.Equal(t, 0.001, got.(*meta).TickSize)
}
