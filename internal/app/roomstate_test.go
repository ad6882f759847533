package app

import (
	"testing"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRoomStateSetters(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	snap, err := f.state.SetTopic(ctx, f.room.Slug, "  sprint review ")
	require.NoError(t, err)
	require.Equal(t, "sprint review", *snap.Topic)

	snap, err = f.state.SetTopic(ctx, f.room.Slug, "   ")
	require.NoError(t, err)
	require.Nil(t, snap.Topic)

	snap, err = f.state.SetLocked(ctx, f.room.Slug, true)
	require.NoError(t, err)
	require.True(t, snap.IsLocked)

	snap, err = f.state.SetMuteAll(ctx, f.room.Slug, true)
	require.NoError(t, err)
	require.True(t, snap.MuteAll)
	require.True(t, snap.IsLocked)

	snap, err = f.state.SetRecording(ctx, f.room.Slug, true)
	require.NoError(t, err)
	require.True(t, snap.RecordingActive)
	require.Empty(t, snap.RaisedHands)

	_, err = f.state.SetLocked(ctx, "missing", true)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomStateApplyPatch(t *testing.T) {
	f := newFixture(t)
	on := true
	snap, err := f.state.Apply(t.Context(), f.room.Slug, domain.StatePatch{SetTopic: true, Topic: "x", MuteAll: &on})
	require.NoError(t, err)
	require.Equal(t, "x", *snap.Topic)
	require.True(t, snap.MuteAll)
	require.False(t, snap.IsLocked)
}

func TestRoomStateHands(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	bob := f.join(t, "bob")
	carol := f.join(t, "carol")

	h, err := f.state.SetHand(ctx, f.room.Slug, bob.ID, true)
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{bob.ID}, h.RaisedHands)

	h, err = f.state.SetHand(ctx, f.room.Slug, carol.ID, true)
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{bob.ID, carol.ID}, h.RaisedHands)

	h, err = f.state.SetHand(ctx, f.room.Slug, bob.ID, false)
	require.NoError(t, err)
	require.Equal(t, domain.EventHandLowered, h.EventType())
	require.Equal(t, []domain.UserID{carol.ID}, h.RaisedHands)

	_, err = f.state.SetHand(ctx, f.room.Slug, f.owner.ID, true)
	require.ErrorIs(t, err, domain.ErrMembershipNotFound, "owner never joined")
}

func TestRoomStateMediaRespectsAdminLocks(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	bob := f.join(t, "bob")

	on, off := true, false
	upd, err := f.state.SetMedia(ctx, f.room.ID, bob.ID, &on, nil)
	require.NoError(t, err)
	require.True(t, upd.MicMuted)

	_, err = f.st.UpdateActiveMembership(ctx, f.room.ID, bob.ID, func(m *domain.Membership) error {
		m.AdminMuted = true
		m.AdminVideoOff = true
		return nil
	})
	require.NoError(t, err)

	_, err = f.state.SetMedia(ctx, f.room.ID, bob.ID, &off, nil)
	require.ErrorIs(t, err, domain.ErrMutedByAdmin)
	_, err = f.state.SetMedia(ctx, f.room.ID, bob.ID, nil, &off)
	require.ErrorIs(t, err, domain.ErrVideoOffByAdmin)
}
