package store

import (
	"context"

	"github.com/dkeye/Conf/internal/domain"
	"gorm.io/gorm"
)

// CreateRoomKey stores the key record and all its shares atomically.
func (s *Store) CreateRoomKey(ctx context.Context, key *domain.RoomKey, shares []domain.RoomKeyShare) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(key).Error; err != nil {
			return err
		}
		if len(shares) == 0 {
			return nil
		}
		for i := range shares {
			shares[i].RoomKeyID = key.ID
		}
		return tx.Create(&shares).Error
	})
}

func (s *Store) LatestShare(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.RoomKeyShare, error) {
	var sh domain.RoomKeyShare
	err := s.conn(ctx).
		Where("room_id = ? AND user_id = ?", room, user).
		Order("id DESC").
		First(&sh).Error
	if err != nil {
		return nil, notFound(err, domain.ErrKeyNotFound)
	}
	return &sh, nil
}

func (s *Store) RoomKeyByID(ctx context.Context, id int64) (*domain.RoomKey, error) {
	var k domain.RoomKey
	if err := s.conn(ctx).Where("id = ?", id).First(&k).Error; err != nil {
		return nil, notFound(err, domain.ErrKeyNotFound)
	}
	return &k, nil
}
