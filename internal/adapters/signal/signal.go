package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Conf/internal/app/orch"
	"github.com/dkeye/Conf/internal/config"
	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type SignalWSController struct {
	Orch *orch.Orchestrator
	cfg  *config.Config
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	return &SignalWSController{Orch: o, cfg: cfg}
}

// WsSignalConn queues frames for the write pump. Close stops intake; the
// write pump flushes what is queued and then closes the socket with the
// code picked by the first close.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
	reason domain.Reason
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() { c.CloseWith("") }

// CloseWith with a non-empty reason makes the write pump end with 1008.
func (c *WsSignalConn) CloseWith(reason domain.Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.reason = reason
	close(c.send)
}

// closeMessage is the close frame matching how the connection was closed.
func (c *WsSignalConn) closeMessage() []byte {
	c.mu.RLock()
	reason := c.reason
	c.mu.RUnlock()
	if reason == "" {
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	}
	return websocket.FormatCloseMessage(websocket.ClosePolicyViolation, string(reason))
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades GET /ws/rooms/:slug and runs the session until
// either side goes away.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	req := orch.JoinRequest{
		Slug:      domain.RoomSlug(c.Param("slug")),
		Token:     c.GetString("auth_token"),
		InviteKey: c.Query("invite_key"),
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)
	conn := newWsSignalConn(ws, ctl.cfg.SendBuffer)

	sess, err := ctl.Orch.Open(ctx, req, conn)
	if err != nil {
		ctl.reject(ws, err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sess.ID)).Str("room", string(req.Slug)).Int64("user", int64(sess.User())).Msg("ws session open")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}

// reject sends the reason and closes with policy violation.
func (ctl *SignalWSController) reject(ws *websocket.Conn, err error) {
	reason := domain.ReasonOf(err)
	log.Info().Str("module", "signal").Str("reason", string(reason)).Err(err).Msg("ws session refused")
	deadline := time.Now().Add(ctl.cfg.WriteWait)
	_ = ws.SetWriteDeadline(deadline)
	if b, mErr := json.Marshal(map[string]string{"type": "error", "reason": string(reason)}); mErr == nil {
		_ = ws.WriteMessage(websocket.TextMessage, b)
	}
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, string(reason)), deadline)
	_ = ws.Close()
}
