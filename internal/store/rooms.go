package store

import (
	"context"

	"github.com/dkeye/Conf/internal/domain"
	"gorm.io/gorm"
)

func (s *Store) CreateRoom(ctx context.Context, r *domain.Room) error {
	return s.conn(ctx).Create(r).Error
}

func (s *Store) RoomBySlug(ctx context.Context, slug domain.RoomSlug) (*domain.Room, error) {
	var r domain.Room
	if err := s.conn(ctx).Where("slug = ?", slug).First(&r).Error; err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return &r, nil
}

func (s *Store) RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var r domain.Room
	if err := s.conn(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return &r, nil
}

// UpdateRoom runs mutate against a fresh copy inside a transaction.
func (s *Store) UpdateRoom(ctx context.Context, id domain.RoomID, mutate func(*domain.Room) error) (*domain.Room, error) {
	var r domain.Room
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			return notFound(err, domain.ErrRoomNotFound)
		}
		if err := mutate(&r); err != nil {
			return err
		}
		return tx.Save(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// EnsureRoom returns the room with r.Slug, creating it from r if missing.
func (s *Store) EnsureRoom(ctx context.Context, r *domain.Room) (*domain.Room, error) {
	var out domain.Room
	err := s.conn(ctx).Where("slug = ?", r.Slug).Attrs(*r).FirstOrCreate(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
