package store

import (
	"context"

	"github.com/dkeye/Conf/internal/domain"
)

// AppendEvent assigns ev.Seq from the autoincrement key.
func (s *Store) AppendEvent(ctx context.Context, ev *domain.Event) error {
	return s.conn(ctx).Create(ev).Error
}

func (s *Store) EventsAfter(ctx context.Context, room domain.RoomID, after int64, limit int) ([]domain.Event, error) {
	var out []domain.Event
	err := s.conn(ctx).
		Where("room_id = ? AND id > ?", room, after).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LastSeq is the highest sequence number across all rooms, 0 when empty.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.conn(ctx).Model(&domain.Event{}).Select("COALESCE(MAX(id), 0)").Scan(&seq).Error
	return seq, err
}
