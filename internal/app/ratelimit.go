package app

import (
	"sync"
	"time"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/domain"
)

type limitKey struct {
	Room domain.RoomID
	User domain.UserID
}

// RoomRateLimiter is a sliding window counter per (room, user).
type RoomRateLimiter struct {
	mu       sync.Mutex
	history  map[limitKey][]time.Time
	limit    int
	interval time.Duration
	clock    clock.Clock
}

func NewRoomRateLimiter(limit int, interval time.Duration, clk clock.Clock) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[limitKey][]time.Time),
		limit:    limit,
		interval: interval,
		clock:    clk,
	}
}

// Allow records an attempt and reports whether it fits the window.
// Rejected attempts are not recorded.
func (rl *RoomRateLimiter) Allow(room domain.RoomID, uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	windowStart := now.Add(-rl.interval)
	key := limitKey{Room: room, User: uid}

	attempts := rl.history[key]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		return false
	}
	rl.history[key] = append(fresh, now)
	return true
}

// Sweep drops keys whose attempts all fell out of the window.
func (rl *RoomRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	windowStart := rl.clock.Now().Add(-rl.interval)
	removed := 0
	for k, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, k)
			removed++
		}
	}
	return removed
}

func (rl *RoomRateLimiter) Reset() {
	rl.mu.Lock()
	rl.history = make(map[limitKey][]time.Time)
	rl.mu.Unlock()
}
