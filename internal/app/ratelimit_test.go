package app

import (
	"testing"
	"time"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rl := NewRoomRateLimiter(5, 10*time.Second, clk)

	for i := 0; i < 5; i++ {
		require.True(t, rl.Allow(1, 7), "attempt %d", i+1)
		clk.Advance(100 * time.Millisecond)
	}
	require.False(t, rl.Allow(1, 7), "sixth within window")

	clk.Advance(10 * time.Second)
	require.True(t, rl.Allow(1, 7), "after the window slid")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rl := NewRoomRateLimiter(1, time.Minute, clk)

	require.True(t, rl.Allow(1, 1))
	require.False(t, rl.Allow(1, 1))
	require.True(t, rl.Allow(1, 2))
	require.True(t, rl.Allow(2, 1))
}

func TestRateLimiterSweep(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rl := NewRoomRateLimiter(2, time.Second, clk)
	require.True(t, rl.Allow(1, 1))
	require.True(t, rl.Allow(1, 2))

	require.Zero(t, rl.Sweep())
	clk.Advance(2 * time.Second)
	require.Equal(t, 2, rl.Sweep())

	rl.Reset()
	require.True(t, rl.Allow(1, 1))
}
