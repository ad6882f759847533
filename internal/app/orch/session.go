package orch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
)

// Session is one joined realtime connection. Handle is called from a
// single reader goroutine; Close may race with it and runs once.
type Session struct {
	ID   core.SessionID
	o    *Orchestrator
	conn core.SignalConnection

	room domain.RoomID
	slug domain.RoomSlug
	user domain.UserID

	state     atomic.Int32
	closeOnce sync.Once
}

func newSession(o *Orchestrator, conn core.SignalConnection) *Session {
	s := &Session{ID: core.NewSessionID(), o: o, conn: conn}
	s.setState(core.SessionConnecting)
	return s
}

func (s *Session) State() core.SessionState { return core.SessionState(s.state.Load()) }

func (s *Session) setState(st core.SessionState) { s.state.Store(int32(st)) }

func (s *Session) User() domain.UserID { return s.user }

func (s *Session) Room() domain.RoomSlug { return s.slug }

func (s *Session) send(f core.Frame) {
	if f == nil {
		return
	}
	if err := s.conn.TrySend(f); err != nil {
		log.Debug().Str("module", "orch").Str("sid", string(s.ID)).Err(err).Msg("send to self failed")
	}
}

func (s *Session) fail(err error) {
	r := domain.ReasonOf(err)
	if r == domain.ReasonInternal {
		log.Error().Str("module", "orch").Str("sid", string(s.ID)).Str("room", string(s.slug)).Int64("user", int64(s.user)).Err(err).Msg("handler failed")
	}
	s.send(errorFrame(r))
}

// Close runs cleanup exactly once. A connection that lost its hub entry
// to a newer one leaves presence and the log untouched; one that was
// evicted or dropped its transport is recorded as left.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		if s.State() != core.SessionJoined {
			s.setState(core.SessionClosed)
			s.conn.Close()
			return
		}
		s.setState(core.SessionClosing)
		ctx := context.WithoutCancel(ctx)
		o := s.o

		unlock := o.locks.lock(s.user)
		removed := o.Hub.Leave(s.room, s.user, s.conn)
		superseded := !removed && o.Hub.Connected(s.room, s.user)
		var left *domain.Membership
		if !superseded {
			m, err := o.Presence.Leave(ctx, s.room, s.user)
			if err != nil {
				log.Error().Str("module", "orch").Str("sid", string(s.ID)).Err(err).Msg("presence leave")
			}
			left = m
		}
		unlock()
		if left != nil {
			if _, err := o.Publish(ctx, s.room, domain.MemberLeft{UserID: s.user}); err != nil {
				log.Error().Str("module", "orch").Str("sid", string(s.ID)).Err(err).Msg("publish member.left")
			}
		}
		s.conn.Close()
		s.setState(core.SessionClosed)
		log.Info().Str("module", "orch").Str("sid", string(s.ID)).Str("room", string(s.slug)).Int64("user", int64(s.user)).Bool("superseded", superseded).Msg("session closed")
	})
}

// userLocks serializes a user's join against the cleanup of its previous
// connection, so the hub entry and the membership status move together.
type userLocks [64]sync.Mutex

func (l *userLocks) lock(user domain.UserID) (unlock func()) {
	mu := &l[uint64(user)%uint64(len(l))]
	mu.Lock()
	return mu.Unlock
}
