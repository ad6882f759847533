package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRoomValidatesSlug(t *testing.T) {
	for _, slug := range []RoomSlug{"", "-lead", "Upper", "has space", RoomSlug(fmt.Sprintf("%065d", 0))} {
		_, err := NewRoom(slug, "", 1)
		require.ErrorIs(t, err, ErrInvalidSlug, "slug %q", slug)
	}
	r, err := NewRoom("team-a_1", "  ", 7)
	require.NoError(t, err)
	require.Equal(t, "team-a_1", r.Title)
	require.True(t, r.IsCreator(7))
}

func TestInviteMatches(t *testing.T) {
	r := &Room{}
	require.True(t, r.InviteMatches("anything"))
	key := "s3cret"
	r.InviteKey = &key
	require.False(t, r.InviteMatches(""))
	require.False(t, r.InviteMatches("s3cre"))
	require.True(t, r.InviteMatches("s3cret"))
}

func TestCheckSpeak(t *testing.T) {
	guest := Membership{Role: RoleGuest}
	require.NoError(t, guest.CheckSpeak(false))
	require.ErrorIs(t, guest.CheckSpeak(true), ErrMuteAll)

	guest.CanSpeak = true
	require.NoError(t, guest.CheckSpeak(true))

	admin := Membership{Role: RoleAdmin}
	require.NoError(t, admin.CheckSpeak(true))
	admin.AdminMuted = true
	require.ErrorIs(t, admin.CheckSpeak(false), ErrMutedByAdmin)
}

func TestSetMediaHonoursLocks(t *testing.T) {
	on, off := true, false
	m := Membership{AdminMuted: true, MicMuted: true}
	require.ErrorIs(t, m.SetMedia(&off, nil), ErrMutedByAdmin)
	require.NoError(t, m.SetMedia(&on, &on))
	require.True(t, m.CamOff)

	m.AdminVideoOff = true
	require.ErrorIs(t, m.SetMedia(nil, &off), ErrVideoOffByAdmin)
}

func TestIsOnlineBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := Membership{Status: StatusActive, LastSeen: now}
	require.True(t, m.IsOnline(now.Add(45*time.Second), 45*time.Second))
	require.False(t, m.IsOnline(now.Add(46*time.Second), 45*time.Second))

	m.Leave(now)
	require.False(t, m.IsOnline(now, time.Minute))
	require.False(t, m.HandRaised)
	require.NotNil(t, m.LeftAt)
}

func TestReasonOf(t *testing.T) {
	require.Equal(t, ReasonRoomLocked, ReasonOf(fmt.Errorf("join: %w", ErrRoomLocked)))
	require.Equal(t, ReasonInternal, ReasonOf(errors.New("disk on fire")))
	require.Equal(t, ReasonInternal, ReasonOf(nil))
}

func TestEventTypeFollowsPayload(t *testing.T) {
	require.Equal(t, EventHandRaised, HandChanged{HandRaised: true}.EventType())
	require.Equal(t, EventHandLowered, HandChanged{}.EventType())
	require.Equal(t, EventRecStarted, RecordingChanged{RoomSnapshot: RoomSnapshot{RecordingActive: true}}.EventType())
	require.Equal(t, EventRecStopped, RecordingChanged{}.EventType())
}
