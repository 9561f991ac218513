package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReconnectManager() *ReconnectManager {
	return NewReconnectManager(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          8 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterPercent:     0,
	}, zap.NewNop())
}

func TestReconnectManager_SucceedsAfterFailures(t *testing.T) {
	rm := newTestReconnectManager()

	var attempts atomic.Int32
	err := rm.Reconnect(context.Background(), func(_ context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestReconnectManager_BackoffGrowsAndCaps(t *testing.T) {
	rm := newTestReconnectManager()

	assert.Equal(t, time.Millisecond, rm.nextBackoff())

	rm.incrementBackoff()
	assert.Equal(t, 2*time.Millisecond, rm.nextBackoff())

	rm.incrementBackoff()
	rm.incrementBackoff()
	rm.incrementBackoff()
	// 1 -> 2 -> 4 -> 8 -> capped at 8
	assert.Equal(t, 8*time.Millisecond, rm.nextBackoff())
}

func TestReconnectManager_ResetRestoresInitialDelay(t *testing.T) {
	rm := newTestReconnectManager()

	rm.incrementBackoff()
	rm.incrementBackoff()
	rm.Reset()

	assert.Equal(t, time.Millisecond, rm.nextBackoff())
}

func TestReconnectManager_JitterStaysWithinBounds(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.2,
	}, zap.NewNop())

	for range 50 {
		backoff := rm.nextBackoff()
		assert.GreaterOrEqual(t, backoff, 100*time.Millisecond)
		assert.LessOrEqual(t, backoff, 120*time.Millisecond)
	}
}

func TestReconnectManager_ContextCancelAborts(t *testing.T) {
	rm := newTestReconnectManager()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rm.Reconnect(ctx, func(_ context.Context) error {
		return errors.New("never succeeds")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
