package orch

import (
	"testing"

	"filippo.io/age"
	"github.com/dkeye/Conf/internal/app"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestParticipantsRequiresMembership(t *testing.T) {
	e := newEnv(t)
	_, _ = e.connect(t, e.owner)
	bob := e.user(t, "bob")
	bs, _ := e.connect(t, bob)
	carol := e.user(t, "carol")

	parts, err := e.o.Participants(t.Context(), "standup", e.owner.ID)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	require.Equal(t, "alice", parts[0].Nickname)
	require.Equal(t, app.ParticipantActive, parts[1].Status)

	_, err = e.o.Participants(t.Context(), "standup", carol.ID)
	require.ErrorIs(t, err, domain.ErrNotAMember)
	_, _, err = e.o.SyncAfter(t.Context(), "standup", carol.ID, 0, 0)
	require.ErrorIs(t, err, domain.ErrNotAMember)

	bs.Close(t.Context())
	parts, err = e.o.Participants(t.Context(), "standup", e.owner.ID)
	require.NoError(t, err)
	require.Equal(t, app.ParticipantLeft, parts[1].Status)
}

func TestDeleteMessage(t *testing.T) {
	e := newEnv(t)
	owner, alice := e.connect(t, e.owner)
	bob := e.user(t, "bob")
	_, _ = e.connect(t, bob)
	handle(t, owner, `{"type":"chat.message","text":"oops"}`)
	id := int64(alice.Last(t, "chat.message")["id"].(float64))

	_, err := e.o.DeleteMessage(t.Context(), "standup", bob.ID, id)
	require.ErrorIs(t, err, domain.ErrForbidden)

	ev, err := e.o.DeleteMessage(t.Context(), "standup", e.owner.ID, id)
	require.NoError(t, err)
	require.Equal(t, domain.EventChatDeleted, ev.Type)
	require.EqualValues(t, id, alice.Last(t, "chat.deleted")["id"])

	_, err = e.o.DeleteMessage(t.Context(), "standup", e.owner.ID, id)
	require.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestSetRolePublishes(t *testing.T) {
	e := newEnv(t)
	_, alice := e.connect(t, e.owner)
	bob := e.user(t, "bob")
	_, bobConn := e.connect(t, bob)

	ev, err := e.o.SetRole(t.Context(), "standup", e.owner.ID, bob.ID, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, domain.EventRoleChanged, ev.Type)
	require.Equal(t, "admin", bobConn.Last(t, "role.changed")["role"])
	require.Equal(t, "admin", alice.Last(t, "role.changed")["role"])

	_, err = e.o.SetRole(t.Context(), "standup", bob.ID, e.owner.ID, domain.RoleGuest)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInitRoomKeyPublishes(t *testing.T) {
	e := newEnv(t)
	_, _ = e.connect(t, e.owner)
	bob := e.user(t, "bob")
	_, bobConn := e.connect(t, bob)
	ident, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	_, err = e.o.Keys.RegisterPublicKey(t.Context(), bob.ID, ident.Recipient().String())
	require.NoError(t, err)

	_, err = e.o.InitRoomKey(t.Context(), "standup", bob.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	rot, err := e.o.InitRoomKey(t.Context(), "standup", e.owner.ID)
	require.NoError(t, err)
	require.Equal(t, 1, rot.DistributedCount)
	ev := bobConn.Last(t, "key.rotated")
	require.Equal(t, rot.Fingerprint, ev["fingerprint"])
	require.EqualValues(t, 1, ev["distributed_count"])
	require.NotContains(t, ev, "wrapped_key_b64")
}
