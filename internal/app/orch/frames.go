package orch

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
)

type errorMsg struct {
	Type   string        `json:"type"`
	Reason domain.Reason `json:"reason"`
}

type joinedMsg struct {
	Type      string          `json:"type"`
	RoomSlug  domain.RoomSlug `json:"room_slug"`
	UserID    domain.UserID   `json:"user_id"`
	Role      domain.Role     `json:"role"`
	SessionID core.SessionID  `json:"session_id"`
}

type snapshotMsg struct {
	Type string `json:"type"`
	domain.RoomSnapshot
}

type syncInfoMsg struct {
	Type    string `json:"type"`
	NextSeq int64  `json:"next_seq"`
}

type typingMsg struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"user_id"`
	IsTyping bool          `json:"is_typing"`
}

// SyncItem is the replay form of an event.
type SyncItem struct {
	Seq       int64            `json:"seq"`
	Type      domain.EventType `json:"type"`
	Payload   json.RawMessage  `json:"payload"`
	CreatedAt time.Time        `json:"created_at"`
}

type syncBatchMsg struct {
	Type    string     `json:"type"`
	Items   []SyncItem `json:"items"`
	NextSeq int64      `json:"next_seq"`
}

func SyncItems(evs []domain.Event) []SyncItem {
	out := make([]SyncItem, 0, len(evs))
	for _, ev := range evs {
		out = append(out, SyncItem{Seq: ev.Seq, Type: ev.Type, Payload: ev.RawPayload(), CreatedAt: ev.CreatedAt})
	}
	return out
}

func jsonFrame(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("marshal frame")
		return nil
	}
	return b
}

func errorFrame(r domain.Reason) core.Frame {
	return jsonFrame(errorMsg{Type: "error", Reason: r})
}

// eventFrame flattens the payload object next to type and seq.
func eventFrame(ev domain.Event) (core.Frame, error) {
	head, err := json.Marshal(struct {
		Type domain.EventType `json:"type"`
		Seq  int64            `json:"seq"`
	}{ev.Type, ev.Seq})
	if err != nil {
		return nil, err
	}
	body := bytes.TrimSpace(ev.RawPayload())
	if len(body) < 2 || body[0] != '{' || bytes.Equal(body, []byte("{}")) {
		return head, nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}
