package testutil

import (
	"context"
	"testing"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/dkeye/Conf/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewStore opens a private in-memory database closed at test end.
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func MustUser(t testing.TB, s *store.Store, nickname string) *domain.User {
	t.Helper()
	u, err := s.EnsureUser(context.Background(), nickname)
	require.NoError(t, err)
	return u
}

// MustRoom creates a room owned by owner. mutate may set flags before insert.
func MustRoom(t testing.TB, s *store.Store, slug domain.RoomSlug, owner domain.UserID, mutate ...func(*domain.Room)) *domain.Room {
	t.Helper()
	r, err := domain.NewRoom(slug, string(slug), owner)
	require.NoError(t, err)
	for _, fn := range mutate {
		fn(r)
	}
	require.NoError(t, s.CreateRoom(context.Background(), r))
	return r
}
