package store

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Conf/internal/domain"
	"gorm.io/gorm"
)

func (s *Store) FindMembership(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.Membership, error) {
	var m domain.Membership
	err := s.conn(ctx).Where("room_id = ? AND user_id = ?", room, user).First(&m).Error
	if err != nil {
		return nil, notFound(err, domain.ErrMembershipNotFound)
	}
	return &m, nil
}

func (s *Store) ActiveMembership(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.Membership, error) {
	var m domain.Membership
	err := s.conn(ctx).
		Where("room_id = ? AND user_id = ? AND status = ?", room, user, domain.StatusActive).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, domain.ErrMembershipNotFound)
	}
	return &m, nil
}

func (s *Store) JoinMembership(ctx context.Context, room domain.RoomID, user domain.UserID, role domain.Role, now time.Time) (*domain.Membership, error) {
	var m domain.Membership
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("room_id = ? AND user_id = ?", room, user).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			m = domain.Membership{
				RoomID:   room,
				UserID:   user,
				Role:     role,
				Status:   domain.StatusActive,
				JoinedAt: now,
				LastSeen: now,
			}
			return tx.Create(&m).Error
		}
		if err != nil {
			return err
		}
		if !m.IsActive() {
			m.Status = domain.StatusActive
			m.JoinedAt = now
			m.LeftAt = nil
		}
		m.LastSeen = now
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) UpdateActiveMembership(ctx context.Context, room domain.RoomID, user domain.UserID, mutate func(*domain.Membership) error) (*domain.Membership, error) {
	var m domain.Membership
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("room_id = ? AND user_id = ? AND status = ?", room, user, domain.StatusActive).
			First(&m).Error
		if err != nil {
			return notFound(err, domain.ErrMembershipNotFound)
		}
		if err := mutate(&m); err != nil {
			return err
		}
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMemberships(ctx context.Context, room domain.RoomID, activeOnly bool) ([]domain.Membership, error) {
	q := s.conn(ctx).Where("room_id = ?", room)
	if activeOnly {
		q = q.Where("status = ?", domain.StatusActive)
	}
	var out []domain.Membership
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
