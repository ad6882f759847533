package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Conf/internal/app"
	"github.com/dkeye/Conf/internal/auth"
	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator wires the services together and drives realtime sessions.
// Every fact it produces is appended to the event log before it is
// broadcast, so the frame carries its seq.
type Orchestrator struct {
	Auth       auth.Verifier
	Rooms      core.RoomStore
	Members    core.MembershipStore
	Presence   *app.Presence
	Events     *app.EventLog
	State      *app.RoomState
	Chat       *app.ChatGateway
	Moderation *app.Moderation
	Keys       *app.KeyDistributor
	Hub        *app.Hub

	locks userLocks
}

// JoinRequest carries the connect parameters of a realtime session.
type JoinRequest struct {
	Slug      domain.RoomSlug
	Token     string
	InviteKey string
}

// Open authenticates, joins and registers a connection. On error the
// session never reached the hub and the caller closes the transport.
func (o *Orchestrator) Open(ctx context.Context, req JoinRequest, conn core.SignalConnection) (*Session, error) {
	s := newSession(o, conn)
	uid, err := o.Auth.Verify(req.Token)
	if err != nil {
		s.setState(core.SessionClosed)
		return nil, err
	}
	s.user = uid
	s.setState(core.SessionAuthenticated)

	unlock := o.locks.lock(uid)
	room, m, err := o.Presence.Join(ctx, req.Slug, uid, req.InviteKey)
	if err != nil {
		unlock()
		s.setState(core.SessionClosed)
		log.Info().Str("module", "orch").Str("sid", string(s.ID)).Str("room", string(req.Slug)).Int64("user", int64(uid)).Err(err).Msg("join refused")
		return nil, err
	}
	s.room = room.ID
	s.slug = room.Slug

	prev := o.Hub.Join(room.ID, uid, conn)
	unlock()
	if prev != nil {
		evict(prev, domain.ErrSuperseded)
		log.Info().Str("module", "orch").Str("sid", string(s.ID)).Str("room", string(room.Slug)).Int64("user", int64(uid)).Msg("superseded previous connection")
	}
	s.setState(core.SessionJoined)

	snap, err := o.State.Snapshot(ctx, room.Slug)
	if err != nil {
		return nil, o.abortOpen(ctx, s, err)
	}
	next, err := o.Events.NextSeq(ctx)
	if err != nil {
		return nil, o.abortOpen(ctx, s, err)
	}
	s.send(jsonFrame(joinedMsg{
		Type:      "joined",
		RoomSlug:  room.Slug,
		UserID:    uid,
		Role:      m.Role,
		SessionID: s.ID,
	}))
	s.send(jsonFrame(snapshotMsg{Type: "state.snapshot", RoomSnapshot: snap}))
	s.send(jsonFrame(syncInfoMsg{Type: "sync.info", NextSeq: next}))

	if _, err := o.Publish(ctx, room.ID, domain.MemberJoined{UserID: uid}, uid); err != nil {
		log.Error().Str("module", "orch").Str("sid", string(s.ID)).Err(err).Msg("publish member.joined")
	}
	log.Info().Str("module", "orch").Str("sid", string(s.ID)).Str("room", string(room.Slug)).Int64("user", int64(uid)).Str("role", string(m.Role)).Msg("session joined")
	return s, nil
}

func (o *Orchestrator) abortOpen(ctx context.Context, s *Session, err error) error {
	s.Close(ctx)
	return err
}

// Publish appends p to the log and broadcasts it with its seq.
func (o *Orchestrator) Publish(ctx context.Context, room domain.RoomID, p domain.Payload, exclude ...domain.UserID) (domain.Event, error) {
	ev, err := o.Events.Append(ctx, room, p)
	if err != nil {
		return domain.Event{}, err
	}
	f, err := eventFrame(ev)
	if err != nil {
		return ev, err
	}
	o.Hub.Broadcast(room, f, exclude...)
	return ev, nil
}

// Kick removes target from the room and closes its live connection.
func (o *Orchestrator) Kick(ctx context.Context, slug domain.RoomSlug, actor, target domain.UserID) (domain.Event, error) {
	room, p, err := o.Moderation.Kick(ctx, slug, actor, target)
	if err != nil {
		return domain.Event{}, err
	}
	if conn, ok := o.Hub.Kick(room.ID, target); ok {
		evict(conn, domain.ErrKicked)
	}
	return o.Publish(ctx, room.ID, p)
}

// evict sends a best-effort error frame and closes conn as a policy violation.
func evict(conn core.SignalConnection, err error) {
	r := domain.ReasonOf(err)
	_ = conn.TrySend(errorFrame(r))
	conn.CloseWith(r)
}

// SyncAfter returns the room's events after seq plus the next global seq.
func (o *Orchestrator) SyncAfter(ctx context.Context, slug domain.RoomSlug, user domain.UserID, after int64, limit int) ([]domain.Event, int64, error) {
	room, err := o.member(ctx, slug, user)
	if err != nil {
		return nil, 0, err
	}
	evs, err := o.Events.ListAfter(ctx, room.ID, after, limit)
	if err != nil {
		return nil, 0, err
	}
	next, err := o.Events.NextSeq(ctx)
	if err != nil {
		return nil, 0, err
	}
	return evs, next, nil
}

// member resolves the room and checks user holds an active membership.
func (o *Orchestrator) member(ctx context.Context, slug domain.RoomSlug, user domain.UserID) (*domain.Room, error) {
	room, _, err := o.memberOf(ctx, slug, user)
	return room, err
}

func (o *Orchestrator) memberOf(ctx context.Context, slug domain.RoomSlug, user domain.UserID) (*domain.Room, *domain.Membership, error) {
	room, err := o.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	m, err := o.Members.ActiveMembership(ctx, room.ID, user)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, nil, domain.ErrNotAMember
	}
	if err != nil {
		return nil, nil, err
	}
	return room, m, nil
}
