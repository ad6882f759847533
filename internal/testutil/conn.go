package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/stretchr/testify/require"
)

// Conn is a core.SignalConnection that records frames in memory and
// republishes them on Frames for tests that wait.
type Conn struct {
	mu     sync.Mutex
	sent   []core.Frame
	closed bool
	reason domain.Reason
	full   bool

	Frames chan core.Frame
}

func NewConn() *Conn {
	return &Conn{Frames: make(chan core.Frame, 256)}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.sent = append(c.sent, f)
	select {
	case c.Frames <- f:
	default:
	}
	return nil
}

func (c *Conn) Close() { c.CloseWith("") }

func (c *Conn) CloseWith(reason domain.Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.reason = reason
}

// CloseReason is the reason given by the first CloseWith, empty for a
// normal close.
func (c *Conn) CloseReason() domain.Reason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// SetFull makes every following TrySend report backpressure.
func (c *Conn) SetFull(full bool) {
	c.mu.Lock()
	c.full = full
	c.mu.Unlock()
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) Sent() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.sent...)
}

// Messages decodes every recorded frame.
func (c *Conn) Messages(t testing.TB) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, f := range c.Sent() {
		out = append(out, Decode(t, f))
	}
	return out
}

// Types lists the "type" field of every recorded frame in order.
func (c *Conn) Types(t testing.TB) []string {
	t.Helper()
	var out []string
	for _, m := range c.Messages(t) {
		s, _ := m["type"].(string)
		out = append(out, s)
	}
	return out
}

// Last returns the last recorded frame of the given type.
func (c *Conn) Last(t testing.TB, typ string) map[string]any {
	t.Helper()
	msgs := c.Messages(t)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i]["type"] == typ {
			return msgs[i]
		}
	}
	t.Fatalf("no %q frame among %v", typ, c.Types(t))
	return nil
}

// Reset forgets recorded frames.
func (c *Conn) Reset() {
	c.mu.Lock()
	c.sent = nil
	c.mu.Unlock()
	for {
		select {
		case <-c.Frames:
		default:
			return
		}
	}
}

// Next waits for the next frame.
func (c *Conn) Next(t testing.TB) map[string]any {
	t.Helper()
	return Decode(t, RequireReceive(t, c.Frames, 2*time.Second, "waiting for frame"))
}

func Decode(t testing.TB, f []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(f, &m), string(f))
	return m
}
