package app

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// PublishResult reports delivery stats of one fan-out.
type PublishResult struct {
	SendTo  int
	Dropped []domain.UserID
}

// hubRoom holds the live connections of one room. dead is set once the
// last member left; a dead room is replaced instead of reused.
type hubRoom struct {
	mu     sync.Mutex
	conns  map[domain.UserID]core.SignalConnection
	dead   atomic.Bool
	roomID domain.RoomID
}

// Hub tracks at most one live connection per (room, user) and fans frames
// out to them. It never holds a lock while sending.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*hubRoom
	policy Policy
}

func NewHub(policy Policy) *Hub {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Hub{rooms: make(map[domain.RoomID]*hubRoom), policy: policy}
}

func (h *Hub) lookup(room domain.RoomID) *hubRoom {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[room]
}

func (h *Hub) getOrCreate(room domain.RoomID) *hubRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[room]
	if !ok || r.dead.Load() {
		r = &hubRoom{conns: make(map[domain.UserID]core.SignalConnection), roomID: room}
		h.rooms[room] = r
		log.Debug().Str("module", "app.hub").Int64("room", int64(room)).Msg("room opened")
	}
	return r
}

// drop removes r from the map if it is still the registered instance.
func (h *Hub) drop(r *hubRoom) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[r.roomID] == r {
		delete(h.rooms, r.roomID)
		log.Debug().Str("module", "app.hub").Int64("room", int64(r.roomID)).Msg("room closed")
	}
}

// Join registers conn for user and returns the connection it replaced, if any.
// The caller owns closing the replaced connection.
func (h *Hub) Join(room domain.RoomID, user domain.UserID, conn core.SignalConnection) core.SignalConnection {
	for {
		r := h.getOrCreate(room)
		r.mu.Lock()
		if r.dead.Load() {
			r.mu.Unlock()
			continue
		}
		prev := r.conns[user]
		r.conns[user] = conn
		r.mu.Unlock()
		log.Info().Str("module", "app.hub").Int64("room", int64(room)).Int64("user", int64(user)).Bool("superseded", prev != nil).Msg("member connected")
		if prev == conn {
			return nil
		}
		return prev
	}
}

// Leave removes user only while conn is still its registered connection.
// It reports false when the entry was superseded or evicted meanwhile.
func (h *Hub) Leave(room domain.RoomID, user domain.UserID, conn core.SignalConnection) bool {
	r := h.lookup(room)
	if r == nil {
		return false
	}
	r.mu.Lock()
	cur, ok := r.conns[user]
	if !ok || cur != conn {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, user)
	empty := len(r.conns) == 0
	if empty {
		r.dead.Store(true)
	}
	r.mu.Unlock()
	if empty {
		h.drop(r)
	}
	log.Info().Str("module", "app.hub").Int64("room", int64(room)).Int64("user", int64(user)).Msg("member disconnected")
	return true
}

// Kick unregisters user and returns its connection for the caller to close.
func (h *Hub) Kick(room domain.RoomID, user domain.UserID) (core.SignalConnection, bool) {
	r := h.lookup(room)
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	conn, ok := r.conns[user]
	if ok {
		delete(r.conns, user)
	}
	empty := ok && len(r.conns) == 0
	if empty {
		r.dead.Store(true)
	}
	r.mu.Unlock()
	if empty {
		h.drop(r)
	}
	return conn, ok
}

// Connected reports whether user currently has a registered connection.
func (h *Hub) Connected(room domain.RoomID, user domain.UserID) bool {
	r := h.lookup(room)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[user]
	return ok
}

// Members lists connected users in ascending id order.
func (h *Hub) Members(room domain.RoomID) []domain.UserID {
	r := h.lookup(room)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	out := make([]domain.UserID, 0, len(r.conns))
	for uid := range r.conns {
		out = append(out, uid)
	}
	r.mu.Unlock()
	slices.Sort(out)
	return out
}

// SendTo delivers one frame to user. Backpressure goes through the policy.
func (h *Hub) SendTo(room domain.RoomID, user domain.UserID, f core.Frame) bool {
	r := h.lookup(room)
	if r == nil {
		return false
	}
	r.mu.Lock()
	conn, ok := r.conns[user]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if err := conn.TrySend(f); err != nil {
		h.onFailure(r, user, conn, err)
		return false
	}
	return true
}

type target struct {
	user domain.UserID
	conn core.SignalConnection
}

// Broadcast sends f to every connected member except the excluded ones.
func (h *Hub) Broadcast(room domain.RoomID, f core.Frame, exclude ...domain.UserID) PublishResult {
	res := PublishResult{}
	r := h.lookup(room)
	if r == nil {
		return res
	}
	r.mu.Lock()
	targets := make([]target, 0, len(r.conns))
	for uid, c := range r.conns {
		if slices.Contains(exclude, uid) {
			continue
		}
		targets = append(targets, target{user: uid, conn: c})
	}
	r.mu.Unlock()

	var (
		mu sync.Mutex
		wg conc.WaitGroup
	)
	for _, tg := range targets {
		wg.Go(func() {
			if err := tg.conn.TrySend(f); err != nil {
				mu.Lock()
				res.Dropped = append(res.Dropped, tg.user)
				mu.Unlock()
				h.onFailure(r, tg.user, tg.conn, err)
				return
			}
			mu.Lock()
			res.SendTo++
			mu.Unlock()
		})
	}
	wg.Wait()
	log.Debug().Str("module", "app.hub").Int64("room", int64(room)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (h *Hub) onFailure(r *hubRoom, user domain.UserID, conn core.SignalConnection, err error) {
	switch h.policy.OnBackPressure(r.roomID, user, err) {
	case KickMember:
		if h.Leave(r.roomID, user, conn) {
			log.Warn().Str("module", "app.hub").Int64("room", int64(r.roomID)).Int64("user", int64(user)).Err(err).Msg("evicted slow member")
		}
		conn.CloseWith(domain.ReasonOf(domain.ErrSlowConsumer))
	case DropFrame, NoAction:
		log.Debug().Str("module", "app.hub").Int64("room", int64(r.roomID)).Int64("user", int64(user)).Err(err).Msg("frame dropped")
	}
}
