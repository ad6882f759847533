package orch

import (
	"testing"
	"time"

	"github.com/dkeye/Conf/internal/auth"
	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/dkeye/Conf/internal/store"
	"github.com/dkeye/Conf/internal/testutil"
	"github.com/stretchr/testify/require"
)

type env struct {
	o      *Orchestrator
	st     *store.Store
	clk    *clock.FakeClock
	tokens *auth.Tokens
	owner  *domain.User
	room   *domain.Room
}

func newEnv(t *testing.T, mutate ...func(*domain.Room)) *env {
	t.Helper()
	st := testutil.NewStore(t)
	clk := clock.Fake(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	tokens := auth.NewTokens("test-secret-test-secret-test-sec", time.Hour)
	owner := testutil.MustUser(t, st, "alice")
	room := testutil.MustRoom(t, st, "standup", owner.ID, mutate...)
	o := New(Options{
		Store:    st,
		Auth:     tokens,
		Clock:    clk,
		Denylist: []string{"shit"},
	})
	return &env{o: o, st: st, clk: clk, tokens: tokens, owner: owner, room: room}
}

func (e *env) token(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := e.tokens.Issue(u.ID)
	require.NoError(t, err)
	return tok
}

// connect opens a session for u and discards its welcome frames.
func (e *env) connect(t *testing.T, u *domain.User) (*Session, *testutil.Conn) {
	t.Helper()
	conn := testutil.NewConn()
	s, err := e.o.Open(t.Context(), JoinRequest{Slug: e.room.Slug, Token: e.token(t, u)}, conn)
	require.NoError(t, err)
	conn.Reset()
	return s, conn
}

func (e *env) user(t *testing.T, nickname string) *domain.User {
	t.Helper()
	return testutil.MustUser(t, e.st, nickname)
}

func handle(t *testing.T, s *Session, msg string) bool {
	t.Helper()
	return s.Handle(t.Context(), []byte(msg))
}

func requireError(t *testing.T, c *testutil.Conn, r domain.Reason) {
	t.Helper()
	require.Equal(t, string(r), c.Last(t, "error")["reason"])
}
