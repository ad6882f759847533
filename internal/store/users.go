package store

import (
	"context"

	"github.com/dkeye/Conf/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	return s.conn(ctx).Create(u).Error
}

// EnsureUser returns the user with the nickname, creating it if needed.
func (s *Store) EnsureUser(ctx context.Context, nickname string) (*domain.User, error) {
	u, err := domain.NewUser(nickname)
	if err != nil {
		return nil, err
	}
	if err := s.conn(ctx).Where("nickname = ?", u.Nickname).FirstOrCreate(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var u domain.User
	if err := s.conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

func (s *Store) UsersByID(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*domain.User, error) {
	out := make(map[domain.UserID]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []domain.User
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (s *Store) SetPublicKey(ctx context.Context, id domain.UserID, key string) error {
	res := s.conn(ctx).Model(&domain.User{}).Where("id = ?", id).Update("public_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
