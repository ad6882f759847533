package orch

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	msgOffer       = "offer"
	msgAnswer      = "answer"
	msgICE         = "ice"
	msgChat        = "chat.message"
	msgChatEnc     = "chat.message.enc"
	msgTyping      = "chat.typing"
	msgStateSet    = "state.set"
	msgHandRaise   = "hand.raise"
	msgHandLower   = "hand.lower"
	msgRecordStart = "record.start"
	msgRecordStop  = "record.stop"
	msgMediaSelf   = "media.self"
	msgSyncSub     = "sync.sub"
	msgPing        = "ping"
	msgLeave       = "leave"
)

// speechTypes carry audio negotiation or chat and obey the mute gates.
var speechTypes = map[string]bool{
	msgOffer:   true,
	msgAnswer:  true,
	msgICE:     true,
	msgChat:    true,
	msgChatEnc: true,
}

var privilegedTypes = map[string]bool{
	msgStateSet:    true,
	msgRecordStart: true,
	msgRecordStop:  true,
}

type envelope struct {
	Type string `json:"type"`
}

// Handle processes one inbound message. It returns true when the client
// asked to leave.
func (s *Session) Handle(ctx context.Context, data []byte) bool {
	o := s.o
	if _, err := o.Presence.Heartbeat(ctx, s.room, s.user); err != nil {
		log.Warn().Str("module", "orch").Str("sid", string(s.ID)).Err(err).Msg("heartbeat")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		s.fail(domain.ErrBadJSON)
		return false
	}
	switch env.Type {
	case msgLeave:
		return true
	case msgPing:
		s.send(jsonFrame(envelope{Type: "pong"}))
		return false
	}

	room, m, err := o.memberOf(ctx, s.slug, s.user)
	if err != nil {
		s.fail(err)
		return false
	}
	if speechTypes[env.Type] {
		if err := m.CheckSpeak(room.MuteAll); err != nil {
			s.fail(err)
			return false
		}
	}
	if privilegedTypes[env.Type] && !domain.CanMutateRoomState(m.Role) {
		s.fail(domain.ErrForbidden)
		return false
	}

	switch env.Type {
	case msgOffer, msgAnswer, msgICE:
		err = s.relaySignal(env.Type, data)
	case msgChat:
		err = s.handleChat(ctx, data)
	case msgChatEnc:
		err = s.handleChatEncrypted(ctx, data)
	case msgTyping:
		err = s.handleTyping(data)
	case msgStateSet:
		err = s.handleStateSet(ctx, data)
	case msgHandRaise, msgHandLower:
		err = s.handleHand(ctx, env.Type == msgHandRaise)
	case msgRecordStart, msgRecordStop:
		err = s.handleRecord(ctx, env.Type == msgRecordStart)
	case msgMediaSelf:
		err = s.handleMedia(ctx, data)
	case msgSyncSub:
		err = s.handleSync(ctx, data)
	default:
		err = domain.ErrUnknownType
	}
	if err != nil {
		s.fail(err)
	}
	return false
}

// relaySignal forwards offer/answer/ice to the addressed member only.
// Fields other than type and to pass through; from is stamped here.
func (s *Session) relaySignal(typ string, data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return domain.ErrBadJSON
	}
	to, ok := parseUserID(fields["to"])
	if !ok {
		return domain.ErrMissingTo
	}
	switch typ {
	case msgOffer, msgAnswer:
		var sdp string
		if err := json.Unmarshal(fields["sdp"], &sdp); err != nil {
			return domain.ErrBadSDP
		}
		desc := webrtc.SessionDescription{Type: webrtc.NewSDPType(typ), SDP: sdp}
		if _, err := desc.Unmarshal(); err != nil {
			return domain.ErrBadSDP
		}
	case msgICE:
		var cand webrtc.ICECandidateInit
		if err := json.Unmarshal(fields["candidate"], &cand); err != nil {
			return domain.ErrBadPayload
		}
	}

	delete(fields, "to")
	fields["type"] = mustRaw(typ)
	fields["from"] = mustRaw(s.user)
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if !s.o.Hub.SendTo(s.room, to, b) {
		log.Debug().Str("module", "orch").Str("sid", string(s.ID)).Str("type", typ).Int64("to", int64(to)).Msg("signal target not connected")
	}
	return nil
}

// parseUserID accepts only a JSON integer.
func parseUserID(raw json.RawMessage) (domain.UserID, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return domain.UserID(n), true
}

func mustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return domain.ErrBadPayload
	}
	return nil
}

func (s *Session) handleChat(ctx context.Context, data []byte) error {
	var p struct {
		Text string `json:"text"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	msg, err := s.o.Chat.Send(ctx, s.slug, s.user, p.Text)
	if err != nil {
		return err
	}
	_, err = s.o.Publish(ctx, s.room, domain.ChatMessage{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	})
	return err
}

func (s *Session) handleChatEncrypted(ctx context.Context, data []byte) error {
	var p struct {
		CiphertextB64 string `json:"ciphertext_b64"`
		Algo          string `json:"algo"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	msg, err := s.o.Chat.SendEncrypted(ctx, s.slug, s.user, p.CiphertextB64, p.Algo)
	if err != nil {
		return err
	}
	_, err = s.o.Publish(ctx, s.room, domain.EncryptedChatMessage{
		ID:            msg.ID,
		UserID:        msg.UserID,
		Algo:          msg.EncAlgo,
		CiphertextB64: msg.Text,
		CreatedAt:     msg.CreatedAt,
	})
	return err
}

// handleTyping is ephemeral: never logged, never echoed to the sender.
func (s *Session) handleTyping(data []byte) error {
	var p struct {
		IsTyping *bool `json:"is_typing"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	typing := p.IsTyping == nil || *p.IsTyping
	s.o.Hub.Broadcast(s.room, jsonFrame(typingMsg{Type: msgTyping, UserID: s.user, IsTyping: typing}), s.user)
	return nil
}

func (s *Session) handleStateSet(ctx context.Context, data []byte) error {
	var p struct {
		Topic    json.RawMessage `json:"topic"`
		IsLocked *bool           `json:"is_locked"`
		MuteAll  *bool           `json:"mute_all"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	patch := domain.StatePatch{IsLocked: p.IsLocked, MuteAll: p.MuteAll}
	if len(p.Topic) > 0 {
		var topic *string
		if err := json.Unmarshal(p.Topic, &topic); err != nil {
			return domain.ErrBadPayload
		}
		patch.SetTopic = true
		if topic != nil {
			patch.Topic = *topic
		}
	}
	if patch.Empty() {
		return domain.ErrBadPayload
	}
	snap, err := s.o.State.Apply(ctx, s.slug, patch)
	if err != nil {
		return err
	}
	_, err = s.o.Publish(ctx, s.room, domain.StateChanged{RoomSnapshot: snap})
	return err
}

func (s *Session) handleHand(ctx context.Context, raised bool) error {
	p, err := s.o.State.SetHand(ctx, s.slug, s.user, raised)
	if err != nil {
		return err
	}
	_, err = s.o.Publish(ctx, s.room, p)
	return err
}

func (s *Session) handleRecord(ctx context.Context, active bool) error {
	snap, err := s.o.State.SetRecording(ctx, s.slug, active)
	if err != nil {
		return err
	}
	_, err = s.o.Publish(ctx, s.room, domain.RecordingChanged{ByUser: s.user, RoomSnapshot: snap})
	return err
}

func (s *Session) handleMedia(ctx context.Context, data []byte) error {
	var p struct {
		MicMuted *bool `json:"mic_muted"`
		CamOff   *bool `json:"cam_off"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.MicMuted == nil && p.CamOff == nil {
		return domain.ErrBadPayload
	}
	upd, err := s.o.State.SetMedia(ctx, s.room, s.user, p.MicMuted, p.CamOff)
	if err != nil {
		return err
	}
	_, err = s.o.Publish(ctx, s.room, upd)
	return err
}

func (s *Session) handleSync(ctx context.Context, data []byte) error {
	var p struct {
		AfterSeq int64 `json:"after_seq"`
		Limit    int   `json:"limit"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	evs, err := s.o.Events.ListAfter(ctx, s.room, p.AfterSeq, p.Limit)
	if err != nil {
		return err
	}
	next, err := s.o.Events.NextSeq(ctx)
	if err != nil {
		return err
	}
	s.send(jsonFrame(syncBatchMsg{Type: "sync.batch", Items: SyncItems(evs), NextSeq: next}))
	return nil
}
