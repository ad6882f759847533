package core

import (
	"context"
	"time"

	"github.com/dkeye/Conf/internal/domain"
)

// Store capabilities consumed by the services. Lookups of missing rows
// return the matching domain sentinel error.

type RoomStore interface {
	RoomBySlug(ctx context.Context, slug domain.RoomSlug) (*domain.Room, error)
	RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	UpdateRoom(ctx context.Context, id domain.RoomID, mutate func(*domain.Room) error) (*domain.Room, error)
}

type UserStore interface {
	UserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	UsersByID(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*domain.User, error)
	SetPublicKey(ctx context.Context, id domain.UserID, key string) error
}

type MembershipStore interface {
	// FindMembership returns the record regardless of status.
	FindMembership(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.Membership, error)
	ActiveMembership(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.Membership, error)
	// JoinMembership creates an active record with role, or reactivates
	// an existing one keeping its role. LastSeen is set to now.
	JoinMembership(ctx context.Context, room domain.RoomID, user domain.UserID, role domain.Role, now time.Time) (*domain.Membership, error)
	UpdateActiveMembership(ctx context.Context, room domain.RoomID, user domain.UserID, mutate func(*domain.Membership) error) (*domain.Membership, error)
	ListMemberships(ctx context.Context, room domain.RoomID, activeOnly bool) ([]domain.Membership, error)
}

type EventStore interface {
	AppendEvent(ctx context.Context, ev *domain.Event) error
	EventsAfter(ctx context.Context, room domain.RoomID, after int64, limit int) ([]domain.Event, error)
	LastSeq(ctx context.Context) (int64, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *domain.Message) error
	MessagesBefore(ctx context.Context, room domain.RoomID, beforeID int64, limit int) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, room domain.RoomID, id int64) (bool, error)
}

type KeyStore interface {
	CreateRoomKey(ctx context.Context, key *domain.RoomKey, shares []domain.RoomKeyShare) error
	LatestShare(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.RoomKeyShare, error)
	RoomKeyByID(ctx context.Context, id int64) (*domain.RoomKey, error)
}
