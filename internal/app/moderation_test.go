package app

import (
	"testing"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/stretchr/testify/require"
)

// staff returns a room where bob is admin and carol is a guest.
func staff(t *testing.T) (f *fixture, bob, carol *domain.User) {
	t.Helper()
	f = newFixture(t)
	_, _, err := f.presence.Join(t.Context(), f.room.Slug, f.owner.ID, "")
	require.NoError(t, err)
	bob = f.join(t, "bob")
	carol = f.join(t, "carol")
	_, ev, err := f.mod.SetRole(t.Context(), f.room.Slug, f.owner.ID, bob.ID, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, ev.Role)
	return f, bob, carol
}

func TestModerationRoles(t *testing.T) {
	f, bob, carol := staff(t)
	ctx := t.Context()

	_, _, err := f.mod.SetRole(ctx, f.room.Slug, bob.ID, carol.ID, domain.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrForbidden, "only the owner manages roles")
	_, _, err = f.mod.SetRole(ctx, f.room.Slug, f.owner.ID, f.owner.ID, domain.RoleGuest)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, _, err = f.mod.SetRole(ctx, f.room.Slug, f.owner.ID, carol.ID, domain.RoleOwner)
	require.ErrorIs(t, err, domain.ErrBadPayload)
	_, _, err = f.mod.SetRole(ctx, f.room.Slug, 999, carol.ID, domain.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrNotAMember)

	_, _, err = f.mod.SetRole(ctx, f.room.Slug, f.owner.ID, bob.ID, domain.RoleGuest)
	require.NoError(t, err)
	m, err := f.st.ActiveMembership(ctx, f.room.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleGuest, m.Role)
}

func TestModerationRankRules(t *testing.T) {
	f, bob, carol := staff(t)
	ctx := t.Context()
	on := true

	_, _, err := f.mod.ForceMedia(ctx, f.room.Slug, bob.ID, f.owner.ID, &on, nil)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, _, err = f.mod.ForceMedia(ctx, f.room.Slug, carol.ID, bob.ID, &on, nil)
	require.ErrorIs(t, err, domain.ErrForbidden, "guests cannot moderate")

	_, ev, err := f.mod.ForceMedia(ctx, f.room.Slug, bob.ID, carol.ID, &on, &on)
	require.NoError(t, err)
	require.True(t, ev.AdminMuted)
	require.True(t, ev.AdminVideoOff)
	require.True(t, ev.MicMuted)
	require.True(t, ev.CamOff)

	_, _, err = f.mod.ForceMedia(ctx, f.room.Slug, bob.ID, carol.ID, nil, nil)
	require.ErrorIs(t, err, domain.ErrBadPayload)

	off := false
	_, ev, err = f.mod.ForceMedia(ctx, f.room.Slug, f.owner.ID, carol.ID, &off, nil)
	require.NoError(t, err)
	require.False(t, ev.AdminMuted)
	require.True(t, ev.MicMuted, "releasing the lock leaves the device as it was")
	require.True(t, ev.AdminVideoOff)

	_, sp, err := f.mod.SetCanSpeak(ctx, f.room.Slug, bob.ID, carol.ID, true)
	require.NoError(t, err)
	require.True(t, sp.CanSpeak)
	m, err := f.st.ActiveMembership(ctx, f.room.ID, carol.ID)
	require.NoError(t, err)
	require.True(t, m.CanSpeak)
}

func TestModerationKick(t *testing.T) {
	f, bob, carol := staff(t)
	ctx := t.Context()

	_, _, err := f.mod.Kick(ctx, f.room.Slug, bob.ID, bob.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, ev, err := f.mod.Kick(ctx, f.room.Slug, bob.ID, carol.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MemberKicked{UserID: carol.ID, ByUser: bob.ID}, ev)

	m, err := f.st.FindMembership(ctx, f.room.ID, carol.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusLeft, m.Status)
	require.NotNil(t, m.LeftAt)

	_, _, err = f.mod.Kick(ctx, f.room.Slug, bob.ID, carol.ID)
	require.ErrorIs(t, err, domain.ErrMembershipNotFound)
}
