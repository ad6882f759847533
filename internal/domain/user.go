// Package domain contains the persistent entities of a room and the
// rules that do not depend on transport or storage.
package domain

import (
	"errors"
	"strings"
	"time"
)

const MaxNicknameLen = 80

var (
	ErrNicknameTooLong = errors.New("nickname too long")
	ErrNicknameEmpty   = errors.New("nickname empty")
)

type UserID int64

type User struct {
	ID        UserID    `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname  string    `gorm:"size:80;uniqueIndex;not null" json:"nickname"`
	PublicKey string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser avoids ad-hoc struct literals in adapters and seeds.
func NewUser(nickname string) (*User, error) {
	u := &User{}
	if err := u.SetNickname(nickname); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetNickname(nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) == 0 {
		return ErrNicknameEmpty
	}
	if len(nickname) > MaxNicknameLen {
		return ErrNicknameTooLong
	}
	u.Nickname = nickname
	return nil
}

func (u *User) HasPublicKey() bool { return strings.TrimSpace(u.PublicKey) != "" }
