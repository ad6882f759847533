package app

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultPresenceTTL = 45 * time.Second

// Presence owns membership lifecycle: join, heartbeat, leave and the
// online view derived from LastSeen.
type Presence struct {
	Rooms   core.RoomStore
	Users   core.UserStore
	Members core.MembershipStore
	Clock   clock.Clock
	TTL     time.Duration
}

const (
	ParticipantActive  = "active"
	ParticipantOffline = "offline"
	ParticipantLeft    = "left"
)

// Participant is the read view of a membership with liveness resolved.
type Participant struct {
	MembershipID  int64         `json:"membership_id"`
	UserID        domain.UserID `json:"user_id"`
	Nickname      string        `json:"nickname"`
	Role          domain.Role   `json:"role"`
	Status        string        `json:"status"`
	LastSeen      time.Time     `json:"last_seen"`
	IsOnline      bool          `json:"is_online"`
	MicMuted      bool          `json:"mic_muted"`
	CamOff        bool          `json:"cam_off"`
	HandRaised    bool          `json:"hand_raised"`
	AdminMuted    bool          `json:"admin_muted"`
	AdminVideoOff bool          `json:"admin_video_off"`
	CanSpeak      bool          `json:"can_speak"`
}

func newParticipant(m domain.Membership, online bool) Participant {
	status := ParticipantLeft
	if m.IsActive() {
		status = ParticipantOffline
		if online {
			status = ParticipantActive
		}
	}
	return Participant{
		MembershipID:  m.ID,
		UserID:        m.UserID,
		Role:          m.Role,
		Status:        status,
		LastSeen:      m.LastSeen,
		IsOnline:      online,
		MicMuted:      m.MicMuted,
		CamOff:        m.CamOff,
		HandRaised:    m.HandRaised,
		AdminMuted:    m.AdminMuted,
		AdminVideoOff: m.AdminVideoOff,
		CanSpeak:      m.CanSpeak,
	}
}

// Join admits user into the room. The creator becomes owner; everybody
// else joins as guest and must pass the lock and invite checks. Joining
// twice refreshes LastSeen and keeps the role.
func (p *Presence) Join(ctx context.Context, slug domain.RoomSlug, user domain.UserID, inviteKey string) (*domain.Room, *domain.Membership, error) {
	room, err := p.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.Users.UserByID(ctx, user); err != nil {
		return nil, nil, err
	}

	creator := room.IsCreator(user)
	if !creator {
		prev, err := p.Members.FindMembership(ctx, room.ID, user)
		if err != nil && !errors.Is(err, domain.ErrMembershipNotFound) {
			return nil, nil, err
		}
		privileged := prev != nil && domain.IsPrivileged(prev.Role)
		if room.IsLocked && !privileged {
			return nil, nil, domain.ErrRoomLocked
		}
		if !privileged && !room.InviteMatches(inviteKey) {
			return nil, nil, domain.ErrInviteRequired
		}
	}

	role := domain.RoleGuest
	if creator {
		role = domain.RoleOwner
	}
	m, err := p.Members.JoinMembership(ctx, room.ID, user, role, p.Clock.Now())
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("module", "app.presence").Str("room", string(slug)).Int64("user", int64(user)).Str("role", string(m.Role)).Msg("joined")
	return room, m, nil
}

// Heartbeat refreshes LastSeen. A missing active membership in an
// existing room is a no-op and returns nil; an unknown room is
// ErrRoomNotFound.
func (p *Presence) Heartbeat(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.Membership, error) {
	now := p.Clock.Now()
	m, err := p.Members.UpdateActiveMembership(ctx, room, user, func(m *domain.Membership) error {
		m.LastSeen = now
		return nil
	})
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, p.roomExists(ctx, room)
	}
	return m, err
}

// Leave marks the membership left. A missing active membership in an
// existing room is a no-op and returns nil; an unknown room is
// ErrRoomNotFound.
func (p *Presence) Leave(ctx context.Context, room domain.RoomID, user domain.UserID) (*domain.Membership, error) {
	now := p.Clock.Now()
	m, err := p.Members.UpdateActiveMembership(ctx, room, user, func(m *domain.Membership) error {
		m.Leave(now)
		return nil
	})
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, p.roomExists(ctx, room)
	}
	if err == nil {
		log.Info().Str("module", "app.presence").Int64("room", int64(room)).Int64("user", int64(user)).Msg("left")
	}
	return m, err
}

func (p *Presence) roomExists(ctx context.Context, room domain.RoomID) error {
	_, err := p.Rooms.RoomByID(ctx, room)
	return err
}

func (p *Presence) IsOnline(m *domain.Membership) bool {
	return m.IsOnline(p.Clock.Now(), p.ttl())
}

// Participants lists every membership of the room, active or not.
func (p *Presence) Participants(ctx context.Context, slug domain.RoomSlug) ([]Participant, error) {
	room, err := p.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	ms, err := p.Members.ListMemberships(ctx, room.ID, false)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.UserID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.UserID)
	}
	users, err := p.Users.UsersByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	now, ttl := p.Clock.Now(), p.ttl()
	out := make([]Participant, 0, len(ms))
	for _, m := range ms {
		part := newParticipant(m, m.IsOnline(now, ttl))
		if u, ok := users[m.UserID]; ok {
			part.Nickname = u.Nickname
		}
		out = append(out, part)
	}
	return out, nil
}

func (p *Presence) ttl() time.Duration {
	if p.TTL <= 0 {
		return DefaultPresenceTTL
	}
	return p.TTL
}
