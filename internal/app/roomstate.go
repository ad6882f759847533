package app

import (
	"context"

	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
)

// RoomState reads and mutates room flags, hands and self-reported media.
// Every mutation returns the resulting view.
type RoomState struct {
	Rooms   core.RoomStore
	Members core.MembershipStore
}

func (s *RoomState) Snapshot(ctx context.Context, slug domain.RoomSlug) (domain.RoomSnapshot, error) {
	room, err := s.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return s.snapshotOf(ctx, room)
}

func (s *RoomState) snapshotOf(ctx context.Context, room *domain.Room) (domain.RoomSnapshot, error) {
	ms, err := s.Members.ListMemberships(ctx, room.ID, true)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	var raised []domain.UserID
	for _, m := range ms {
		if m.HandRaised {
			raised = append(raised, m.UserID)
		}
	}
	return room.Snapshot(raised), nil
}

func (s *RoomState) update(ctx context.Context, slug domain.RoomSlug, fn func(*domain.Room)) (domain.RoomSnapshot, error) {
	room, err := s.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	room, err = s.Rooms.UpdateRoom(ctx, room.ID, func(r *domain.Room) error {
		fn(r)
		return nil
	})
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return s.snapshotOf(ctx, room)
}

// SetTopic stores the trimmed topic; blank clears it.
func (s *RoomState) SetTopic(ctx context.Context, slug domain.RoomSlug, topic string) (domain.RoomSnapshot, error) {
	return s.update(ctx, slug, func(r *domain.Room) { r.SetTopic(topic) })
}

func (s *RoomState) SetLocked(ctx context.Context, slug domain.RoomSlug, locked bool) (domain.RoomSnapshot, error) {
	return s.update(ctx, slug, func(r *domain.Room) { r.IsLocked = locked })
}

func (s *RoomState) SetMuteAll(ctx context.Context, slug domain.RoomSlug, on bool) (domain.RoomSnapshot, error) {
	return s.update(ctx, slug, func(r *domain.Room) { r.MuteAll = on })
}

func (s *RoomState) SetRecording(ctx context.Context, slug domain.RoomSlug, active bool) (domain.RoomSnapshot, error) {
	return s.update(ctx, slug, func(r *domain.Room) { r.RecordingActive = active })
}

// Apply writes several flags in one transaction.
func (s *RoomState) Apply(ctx context.Context, slug domain.RoomSlug, p domain.StatePatch) (domain.RoomSnapshot, error) {
	return s.update(ctx, slug, func(r *domain.Room) { r.Apply(p) })
}

// SetHand raises or lowers the user's hand and returns the hand list.
func (s *RoomState) SetHand(ctx context.Context, slug domain.RoomSlug, user domain.UserID, raised bool) (domain.HandChanged, error) {
	room, err := s.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return domain.HandChanged{}, err
	}
	if _, err := s.Members.UpdateActiveMembership(ctx, room.ID, user, func(m *domain.Membership) error {
		m.HandRaised = raised
		return nil
	}); err != nil {
		return domain.HandChanged{}, err
	}
	snap, err := s.snapshotOf(ctx, room)
	if err != nil {
		return domain.HandChanged{}, err
	}
	return domain.HandChanged{UserID: user, HandRaised: raised, RaisedHands: snap.RaisedHands}, nil
}

// SetMedia records the user's own mic and camera flags.
func (s *RoomState) SetMedia(ctx context.Context, room domain.RoomID, user domain.UserID, mic, cam *bool) (domain.MediaUpdated, error) {
	m, err := s.Members.UpdateActiveMembership(ctx, room, user, func(m *domain.Membership) error {
		return m.SetMedia(mic, cam)
	})
	if err != nil {
		return domain.MediaUpdated{}, err
	}
	return domain.MediaUpdated{UserID: user, MicMuted: m.MicMuted, CamOff: m.CamOff}, nil
}
