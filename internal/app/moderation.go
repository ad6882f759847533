package app

import (
	"context"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
)

// Moderation applies privileged actions of one member onto another.
// Owners can act on anyone but owners; admins only on guests.
type Moderation struct {
	Rooms   core.RoomStore
	Members core.MembershipStore
	Clock   clock.Clock
}

func outranks(actor, target domain.Role) bool {
	switch actor {
	case domain.RoleOwner:
		return target != domain.RoleOwner
	case domain.RoleAdmin:
		return target == domain.RoleGuest
	}
	return false
}

// authorize loads the room and checks that actor may act on target.
func (m *Moderation) authorize(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID, can func(domain.Role) bool) (*domain.Room, error) {
	room, err := m.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	am, err := m.Members.ActiveMembership(ctx, room.ID, actor)
	if err != nil {
		return nil, domain.ErrNotAMember
	}
	if !can(am.Role) {
		return nil, domain.ErrForbidden
	}
	tm, err := m.Members.ActiveMembership(ctx, room.ID, target)
	if err != nil {
		return nil, err
	}
	if actor != target && !outranks(am.Role, tm.Role) {
		return nil, domain.ErrForbidden
	}
	return room, nil
}

func (m *Moderation) SetRole(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID, role domain.Role) (*domain.Room, domain.RoleChanged, error) {
	if role != domain.RoleAdmin && role != domain.RoleGuest {
		return nil, domain.RoleChanged{}, domain.ErrBadPayload
	}
	if actor == target {
		return nil, domain.RoleChanged{}, domain.ErrForbidden
	}
	room, err := m.authorize(ctx, slug, actor, target, domain.CanManageRoles)
	if err != nil {
		return nil, domain.RoleChanged{}, err
	}
	if _, err := m.Members.UpdateActiveMembership(ctx, room.ID, target, func(tm *domain.Membership) error {
		tm.Role = role
		return nil
	}); err != nil {
		return nil, domain.RoleChanged{}, err
	}
	log.Info().Str("module", "app.moderation").Str("room", string(slug)).Int64("by", int64(actor)).Int64("user", int64(target)).Str("role", string(role)).Msg("role changed")
	return room, domain.RoleChanged{UserID: target, Role: role, ByUser: actor}, nil
}

// ForceMedia sets the admin locks; a locked device is also switched off.
func (m *Moderation) ForceMedia(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID, mute, videoOff *bool) (*domain.Room, domain.MediaForced, error) {
	if mute == nil && videoOff == nil {
		return nil, domain.MediaForced{}, domain.ErrBadPayload
	}
	room, err := m.authorize(ctx, slug, actor, target, domain.CanModerate)
	if err != nil {
		return nil, domain.MediaForced{}, err
	}
	tm, err := m.Members.UpdateActiveMembership(ctx, room.ID, target, func(tm *domain.Membership) error {
		if mute != nil {
			tm.AdminMuted = *mute
			if *mute {
				tm.MicMuted = true
			}
		}
		if videoOff != nil {
			tm.AdminVideoOff = *videoOff
			if *videoOff {
				tm.CamOff = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.MediaForced{}, err
	}
	return room, domain.MediaForced{
		UserID:        target,
		ByUser:        actor,
		AdminMuted:    tm.AdminMuted,
		AdminVideoOff: tm.AdminVideoOff,
		MicMuted:      tm.MicMuted,
		CamOff:        tm.CamOff,
	}, nil
}

// SetCanSpeak grants or revokes the exemption from mute-all.
func (m *Moderation) SetCanSpeak(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID, can bool) (*domain.Room, domain.SpeakChanged, error) {
	room, err := m.authorize(ctx, slug, actor, target, domain.CanModerate)
	if err != nil {
		return nil, domain.SpeakChanged{}, err
	}
	if _, err := m.Members.UpdateActiveMembership(ctx, room.ID, target, func(tm *domain.Membership) error {
		tm.CanSpeak = can
		return nil
	}); err != nil {
		return nil, domain.SpeakChanged{}, err
	}
	return room, domain.SpeakChanged{UserID: target, CanSpeak: can, ByUser: actor}, nil
}

// Kick marks the target's membership left. Closing its connection is
// up to the caller.
func (m *Moderation) Kick(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID) (*domain.Room, domain.MemberKicked, error) {
	if actor == target {
		return nil, domain.MemberKicked{}, domain.ErrForbidden
	}
	room, err := m.authorize(ctx, slug, actor, target, domain.CanModerate)
	if err != nil {
		return nil, domain.MemberKicked{}, err
	}
	now := m.Clock.Now()
	if _, err := m.Members.UpdateActiveMembership(ctx, room.ID, target, func(tm *domain.Membership) error {
		tm.Leave(now)
		return nil
	}); err != nil {
		return nil, domain.MemberKicked{}, err
	}
	log.Info().Str("module", "app.moderation").Str("room", string(slug)).Int64("by", int64(actor)).Int64("user", int64(target)).Msg("kicked")
	return room, domain.MemberKicked{UserID: target, ByUser: actor}, nil
}
