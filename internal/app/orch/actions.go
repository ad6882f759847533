package orch

import (
	"context"

	"github.com/dkeye/Conf/internal/app"
	"github.com/dkeye/Conf/internal/domain"
)

// Actions below back the REST surface. Each one authorizes, mutates
// through its service and publishes the resulting fact.

func (o *Orchestrator) Participants(ctx context.Context, slug domain.RoomSlug, user domain.UserID) ([]app.Participant, error) {
	if _, err := o.member(ctx, slug, user); err != nil {
		return nil, err
	}
	return o.Presence.Participants(ctx, slug)
}

func (o *Orchestrator) Snapshot(ctx context.Context, slug domain.RoomSlug, user domain.UserID) (domain.RoomSnapshot, error) {
	if _, err := o.member(ctx, slug, user); err != nil {
		return domain.RoomSnapshot{}, err
	}
	return o.State.Snapshot(ctx, slug)
}

func (o *Orchestrator) History(ctx context.Context, slug domain.RoomSlug, user domain.UserID, limit int, beforeID int64) (domain.HistoryPage, error) {
	if _, err := o.member(ctx, slug, user); err != nil {
		return domain.HistoryPage{}, err
	}
	return o.Chat.History(ctx, slug, limit, beforeID)
}

func (o *Orchestrator) DeleteMessage(ctx context.Context, slug domain.RoomSlug, actor domain.UserID, id int64) (domain.Event, error) {
	room, m, err := o.memberOf(ctx, slug, actor)
	if err != nil {
		return domain.Event{}, err
	}
	if !domain.CanModerate(m.Role) {
		return domain.Event{}, domain.ErrForbidden
	}
	if err := o.Chat.Delete(ctx, slug, id); err != nil {
		return domain.Event{}, err
	}
	return o.Publish(ctx, room.ID, domain.ChatDeleted{ID: id, ByUser: actor})
}

func (o *Orchestrator) SetRole(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID, role domain.Role) (domain.Event, error) {
	room, p, err := o.Moderation.SetRole(ctx, slug, actor, target, role)
	if err != nil {
		return domain.Event{}, err
	}
	return o.Publish(ctx, room.ID, p)
}

func (o *Orchestrator) ForceMedia(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID, mute, videoOff *bool) (domain.Event, error) {
	room, p, err := o.Moderation.ForceMedia(ctx, slug, actor, target, mute, videoOff)
	if err != nil {
		return domain.Event{}, err
	}
	return o.Publish(ctx, room.ID, p)
}

func (o *Orchestrator) SetCanSpeak(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID, can bool) (domain.Event, error) {
	room, p, err := o.Moderation.SetCanSpeak(ctx, slug, actor, target, can)
	if err != nil {
		return domain.Event{}, err
	}
	return o.Publish(ctx, room.ID, p)
}

func (o *Orchestrator) InitRoomKey(ctx context.Context, slug domain.RoomSlug, actor domain.UserID) (domain.KeyRotated, error) {
	room, p, err := o.Keys.InitRoomKey(ctx, slug, actor)
	if err != nil {
		return domain.KeyRotated{}, err
	}
	_, err = o.Publish(ctx, room.ID, p)
	return p, err
}
