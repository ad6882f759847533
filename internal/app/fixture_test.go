package app

import (
	"testing"
	"time"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/dkeye/Conf/internal/store"
	"github.com/dkeye/Conf/internal/testutil"
)

type fixture struct {
	st    *store.Store
	clk   *clock.FakeClock
	owner *domain.User
	room  *domain.Room

	presence *Presence
	events   *EventLog
	state    *RoomState
	chat     *ChatGateway
	mod      *Moderation
	keys     *KeyDistributor
}

func newFixture(t *testing.T, mutate ...func(*domain.Room)) *fixture {
	t.Helper()
	st := testutil.NewStore(t)
	clk := clock.Fake(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	owner := testutil.MustUser(t, st, "alice")
	room := testutil.MustRoom(t, st, "standup", owner.ID, mutate...)
	return &fixture{
		st:       st,
		clk:      clk,
		owner:    owner,
		room:     room,
		presence: &Presence{Rooms: st, Users: st, Members: st, Clock: clk, TTL: 45 * time.Second},
		events:   &EventLog{Store: st, Clock: clk},
		state:    &RoomState{Rooms: st, Members: st},
		chat: &ChatGateway{
			Rooms: st, Users: st, Messages: st, Clock: clk,
			Limiter:  NewRoomRateLimiter(5, 10*time.Second, clk),
			Denylist: []string{"shit"},
		},
		mod:  &Moderation{Rooms: st, Members: st, Clock: clk},
		keys: &KeyDistributor{Rooms: st, Users: st, Members: st, Keys: st, Clock: clk},
	}
}

// join admits a fresh user as guest.
func (f *fixture) join(t *testing.T, nickname string) *domain.User {
	t.Helper()
	u := testutil.MustUser(t, f.st, nickname)
	if _, _, err := f.presence.Join(t.Context(), f.room.Slug, u.ID, ""); err != nil {
		t.Fatalf("join %s: %v", nickname, err)
	}
	return u
}
