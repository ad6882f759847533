package core

import "github.com/google/uuid"

type SessionID string

func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// SessionState is the lifecycle of one realtime connection.
type SessionState int32

const (
	SessionConnecting SessionState = iota
	SessionAuthenticated
	SessionJoined
	SessionClosing
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionAuthenticated:
		return "authenticated"
	case SessionJoined:
		return "joined"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	}
	return "unknown"
}
