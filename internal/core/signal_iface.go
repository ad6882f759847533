package core

import (
	"errors"

	"github.com/dkeye/Conf/internal/domain"
)

// Frame is one outbound text message, already serialized.
type Frame []byte

var (
	ErrBackpressure = errors.New("send buffer full")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts the realtime transport of one session.
// Owned by the adapter; TrySend never blocks and both closes are
// idempotent, the first one wins.
type SignalConnection interface {
	TrySend(Frame) error
	// Close ends the connection normally.
	Close()
	// CloseWith ends the connection as a policy violation carrying reason.
	CloseWith(reason domain.Reason)
}
