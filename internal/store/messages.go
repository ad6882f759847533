package store

import (
	"context"

	"github.com/dkeye/Conf/internal/domain"
)

func (s *Store) CreateMessage(ctx context.Context, m *domain.Message) error {
	return s.conn(ctx).Create(m).Error
}

// MessagesBefore returns up to limit messages older than beforeID,
// newest first. beforeID <= 0 starts from the latest.
func (s *Store) MessagesBefore(ctx context.Context, room domain.RoomID, beforeID int64, limit int) ([]domain.Message, error) {
	q := s.conn(ctx).Where("room_id = ?", room)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var out []domain.Message
	if err := q.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteMessage(ctx context.Context, room domain.RoomID, id int64) (bool, error) {
	res := s.conn(ctx).Where("room_id = ? AND id = ?", room, id).Delete(&domain.Message{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
