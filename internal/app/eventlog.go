package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
)

const (
	DefaultSyncLimit = 200
	MaxSyncLimit     = 500
)

// EventLog appends typed payloads to the global log and replays them per room.
type EventLog struct {
	Store        core.EventStore
	Clock        clock.Clock
	DefaultLimit int
	MaxLimit     int
}

func (l *EventLog) Append(ctx context.Context, room domain.RoomID, p domain.Payload) (domain.Event, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return domain.Event{}, fmt.Errorf("encode %s: %w", p.EventType(), err)
	}
	ev := domain.Event{
		RoomID:    room,
		Type:      p.EventType(),
		Payload:   string(body),
		CreatedAt: l.Clock.Now(),
	}
	if err := l.Store.AppendEvent(ctx, &ev); err != nil {
		return domain.Event{}, fmt.Errorf("append %s: %w", ev.Type, err)
	}
	return ev, nil
}

// ListAfter returns the room's events with seq > after in ascending order.
// limit is clamped to [1, MaxLimit]; non-positive means the default.
func (l *EventLog) ListAfter(ctx context.Context, room domain.RoomID, after int64, limit int) ([]domain.Event, error) {
	return l.Store.EventsAfter(ctx, room, max(after, 0), l.clamp(limit))
}

// NextSeq is one past the highest seq ever assigned.
func (l *EventLog) NextSeq(ctx context.Context) (int64, error) {
	last, err := l.Store.LastSeq(ctx)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (l *EventLog) clamp(limit int) int {
	def, hi := l.DefaultLimit, l.MaxLimit
	if hi <= 0 {
		hi = MaxSyncLimit
	}
	if def <= 0 {
		def = DefaultSyncLimit
	}
	if limit <= 0 {
		limit = def
	}
	return min(limit, hi)
}
