package orch

import (
	"sync"
	"testing"

	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/dkeye/Conf/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestOpenSendsWelcome(t *testing.T) {
	e := newEnv(t)
	conn := testutil.NewConn()
	s, err := e.o.Open(t.Context(), JoinRequest{Slug: "standup", Token: e.token(t, e.owner)}, conn)
	require.NoError(t, err)
	require.Equal(t, core.SessionJoined, s.State())
	require.Equal(t, []string{"joined", "state.snapshot", "sync.info"}, conn.Types(t))

	joined := conn.Last(t, "joined")
	require.Equal(t, "owner", joined["role"])
	require.Equal(t, "standup", joined["room_slug"])
	require.EqualValues(t, e.owner.ID, joined["user_id"])
	require.Equal(t, string(s.ID), joined["session_id"])
	require.Equal(t, false, conn.Last(t, "state.snapshot")["mute_all"])
	require.EqualValues(t, 1, conn.Last(t, "sync.info")["next_seq"])

	bob := e.user(t, "bob")
	_, _ = e.connect(t, bob)
	ev := conn.Last(t, "member.joined")
	require.EqualValues(t, bob.ID, ev["user_id"])
	require.EqualValues(t, 2, ev["seq"])
	require.Equal(t, []domain.UserID{e.owner.ID, bob.ID}, e.o.Hub.Members(e.room.ID))
}

func TestOpenRefusals(t *testing.T) {
	e := newEnv(t, func(r *domain.Room) { r.IsLocked = true })
	bob := e.user(t, "bob")

	conn := testutil.NewConn()
	_, err := e.o.Open(t.Context(), JoinRequest{Slug: "standup", Token: "forged"}, conn)
	require.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = e.o.Open(t.Context(), JoinRequest{Slug: "standup", Token: e.token(t, bob)}, conn)
	require.ErrorIs(t, err, domain.ErrRoomLocked)

	_, err = e.o.Open(t.Context(), JoinRequest{Slug: "elsewhere", Token: e.token(t, bob)}, conn)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	require.Empty(t, conn.Sent())
	require.False(t, e.o.Hub.Connected(e.room.ID, bob.ID))

	// the creator is never locked out
	_, err = e.o.Open(t.Context(), JoinRequest{Slug: "standup", Token: e.token(t, e.owner)}, conn)
	require.NoError(t, err)
}

func TestCloseRecordsLeave(t *testing.T) {
	e := newEnv(t)
	_, alice := e.connect(t, e.owner)
	bob := e.user(t, "bob")
	s, bobConn := e.connect(t, bob)
	alice.Reset()

	s.Close(t.Context())
	s.Close(t.Context())
	require.Equal(t, core.SessionClosed, s.State())
	require.True(t, bobConn.Closed())
	require.Empty(t, bobConn.CloseReason(), "a clean leave is a normal close")
	require.Equal(t, []string{"member.left"}, alice.Types(t))
	require.False(t, e.o.Hub.Connected(e.room.ID, bob.ID))

	m, err := e.st.FindMembership(t.Context(), e.room.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusLeft, m.Status)
}

func TestSupersede(t *testing.T) {
	e := newEnv(t)
	_, alice := e.connect(t, e.owner)
	bob := e.user(t, "bob")
	old, oldConn := e.connect(t, bob)
	cur, curConn := e.connect(t, bob)

	requireError(t, oldConn, domain.ReasonSuperseded)
	require.True(t, oldConn.Closed())
	require.Equal(t, domain.ReasonSuperseded, oldConn.CloseReason())
	require.False(t, curConn.Closed())
	alice.Reset()

	old.Close(t.Context())
	require.Empty(t, alice.Types(t), "stale connection closes silently")
	require.True(t, e.o.Hub.Connected(e.room.ID, bob.ID))
	m, err := e.st.ActiveMembership(t.Context(), e.room.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, m.Status)

	require.False(t, handle(t, cur, `{"type":"chat.message","text":"still here"}`))
	require.Equal(t, "still here", alice.Last(t, "chat.message")["text"])

	cur.Close(t.Context())
	require.Equal(t, "member.left", alice.Types(t)[len(alice.Types(t))-1])
}

func TestSlowConsumerIsEvicted(t *testing.T) {
	e := newEnv(t)
	s, aliceConn := e.connect(t, e.owner)
	bob := e.user(t, "bob")
	bs, bobConn := e.connect(t, bob)

	bobConn.SetFull(true)
	handle(t, s, `{"type":"chat.message","text":"hello"}`)
	require.True(t, bobConn.Closed())
	require.Equal(t, domain.ReasonSlowConsumer, bobConn.CloseReason())
	require.False(t, e.o.Hub.Connected(e.room.ID, bob.ID))

	aliceConn.Reset()
	bs.Close(t.Context())
	left := aliceConn.Last(t, "member.left")
	require.EqualValues(t, bob.ID, left["user_id"])
}

func TestKickClosesConnection(t *testing.T) {
	e := newEnv(t)
	_, alice := e.connect(t, e.owner)
	bob := e.user(t, "bob")
	bs, bobConn := e.connect(t, bob)
	alice.Reset()

	ev, err := e.o.Kick(t.Context(), "standup", e.owner.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EventMemberKicked, ev.Type)
	requireError(t, bobConn, domain.ReasonKicked)
	require.True(t, bobConn.Closed())
	require.Equal(t, domain.ReasonKicked, bobConn.CloseReason())

	bs.Close(t.Context())
	require.Equal(t, []string{"member.kicked"}, alice.Types(t))
	kicked := alice.Last(t, "member.kicked")
	require.EqualValues(t, bob.ID, kicked["user_id"])
	require.EqualValues(t, e.owner.ID, kicked["by_user"])
}

func TestReconnectWhileOldSessionCloses(t *testing.T) {
	e := newEnv(t)
	_, _ = e.connect(t, e.owner)
	bob := e.user(t, "bob")

	for i := 0; i < 30; i++ {
		old, _ := e.connect(t, bob)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			old.Close(t.Context())
		}()
		cur, _ := e.connect(t, bob)
		wg.Wait()

		require.True(t, e.o.Hub.Connected(e.room.ID, bob.ID), "round %d", i)
		m, err := e.st.FindMembership(t.Context(), e.room.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusActive, m.Status, "round %d: live connection with a left membership", i)

		cur.Close(t.Context())
	}
}
