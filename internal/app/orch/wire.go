package orch

import (
	"time"

	"github.com/dkeye/Conf/internal/app"
	"github.com/dkeye/Conf/internal/auth"
	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/core"
)

// Storage is everything the services persist through.
type Storage interface {
	core.RoomStore
	core.UserStore
	core.MembershipStore
	core.EventStore
	core.MessageStore
	core.KeyStore
}

type Options struct {
	Store  Storage
	Auth   auth.Verifier
	Clock  clock.Clock
	Policy app.Policy

	PresenceTTL    time.Duration
	ChatRateLimit  int
	ChatRateWindow time.Duration
	ChatMaxLen     int
	Denylist       []string
	HistoryMax     int
	SyncDefault    int
	SyncMax        int
}

func New(opts Options) *Orchestrator {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	limit, window := opts.ChatRateLimit, opts.ChatRateWindow
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	st := opts.Store
	return &Orchestrator{
		Auth:    opts.Auth,
		Rooms:   st,
		Members: st,
		Presence: &app.Presence{
			Rooms: st, Users: st, Members: st, Clock: clk, TTL: opts.PresenceTTL,
		},
		Events: &app.EventLog{
			Store: st, Clock: clk, DefaultLimit: opts.SyncDefault, MaxLimit: opts.SyncMax,
		},
		State: &app.RoomState{Rooms: st, Members: st},
		Chat: &app.ChatGateway{
			Rooms:      st,
			Users:      st,
			Messages:   st,
			Limiter:    app.NewRoomRateLimiter(limit, window, clk),
			Clock:      clk,
			MaxLen:     opts.ChatMaxLen,
			Denylist:   opts.Denylist,
			HistoryMax: opts.HistoryMax,
		},
		Moderation: &app.Moderation{Rooms: st, Members: st, Clock: clk},
		Keys:       &app.KeyDistributor{Rooms: st, Users: st, Members: st, Keys: st, Clock: clk},
		Hub:        app.NewHub(opts.Policy),
	}
}
