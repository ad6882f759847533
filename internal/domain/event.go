package domain

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventMemberJoined  EventType = "member.joined"
	EventMemberLeft    EventType = "member.left"
	EventMemberKicked  EventType = "member.kicked"
	EventChatMessage   EventType = "chat.message"
	EventChatEncrypted EventType = "chat.message.enc"
	EventChatDeleted   EventType = "chat.deleted"
	EventStateChanged  EventType = "state.changed"
	EventHandRaised    EventType = "hand.raised"
	EventHandLowered   EventType = "hand.lowered"
	EventRecStarted    EventType = "record.started"
	EventRecStopped    EventType = "record.stopped"
	EventMediaUpdated  EventType = "media.updated"
	EventMediaForced   EventType = "media.forced"
	EventRoleChanged   EventType = "role.changed"
	EventSpeakChanged  EventType = "speak.changed"
	EventKeyRotated    EventType = "key.rotated"
)

// Event is an entry of the global append-only log. Seq is unique and
// strictly increasing across all rooms.
type Event struct {
	Seq       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RoomID    RoomID    `gorm:"not null;index"`
	Type      EventType `gorm:"size:32;not null"`
	Payload   string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (e Event) RawPayload() json.RawMessage {
	if e.Payload == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(e.Payload)
}

// Payload is the closed set of typed event bodies.
type Payload interface {
	EventType() EventType
}

type MemberJoined struct {
	UserID UserID `json:"user_id"`
}

type MemberLeft struct {
	UserID UserID `json:"user_id"`
}

type MemberKicked struct {
	UserID UserID `json:"user_id"`
	ByUser UserID `json:"by_user"`
}

type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    UserID    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type EncryptedChatMessage struct {
	ID            int64     `json:"id"`
	UserID        UserID    `json:"user_id"`
	Algo          string    `json:"algo"`
	CiphertextB64 string    `json:"ciphertext_b64"`
	CreatedAt     time.Time `json:"created_at"`
}

type ChatDeleted struct {
	ID     int64  `json:"id"`
	ByUser UserID `json:"by_user"`
}

type StateChanged struct {
	RoomSnapshot
}

type HandChanged struct {
	UserID      UserID   `json:"user_id"`
	HandRaised  bool     `json:"hand_raised"`
	RaisedHands []UserID `json:"raised_hands"`
}

type RecordingChanged struct {
	ByUser UserID `json:"by_user"`
	RoomSnapshot
}

type MediaUpdated struct {
	UserID   UserID `json:"user_id"`
	MicMuted bool   `json:"mic_muted"`
	CamOff   bool   `json:"cam_off"`
}

type MediaForced struct {
	UserID        UserID `json:"user_id"`
	ByUser        UserID `json:"by_user"`
	AdminMuted    bool   `json:"admin_muted"`
	AdminVideoOff bool   `json:"admin_video_off"`
	MicMuted      bool   `json:"mic_muted"`
	CamOff        bool   `json:"cam_off"`
}

type RoleChanged struct {
	UserID UserID `json:"user_id"`
	Role   Role   `json:"role"`
	ByUser UserID `json:"by_user"`
}

type SpeakChanged struct {
	UserID   UserID `json:"user_id"`
	CanSpeak bool   `json:"can_speak"`
	ByUser   UserID `json:"by_user"`
}

type KeyRotated struct {
	KeyID            int64  `json:"key_id"`
	Algo             string `json:"algo"`
	Fingerprint      string `json:"fingerprint"`
	DistributedCount int    `json:"distributed_count"`
	ByUser           UserID `json:"by_user"`
}

func (MemberJoined) EventType() EventType         { return EventMemberJoined }
func (MemberLeft) EventType() EventType           { return EventMemberLeft }
func (MemberKicked) EventType() EventType         { return EventMemberKicked }
func (ChatMessage) EventType() EventType          { return EventChatMessage }
func (EncryptedChatMessage) EventType() EventType { return EventChatEncrypted }
func (ChatDeleted) EventType() EventType          { return EventChatDeleted }
func (StateChanged) EventType() EventType         { return EventStateChanged }
func (MediaUpdated) EventType() EventType         { return EventMediaUpdated }
func (MediaForced) EventType() EventType          { return EventMediaForced }
func (RoleChanged) EventType() EventType          { return EventRoleChanged }
func (SpeakChanged) EventType() EventType         { return EventSpeakChanged }
func (KeyRotated) EventType() EventType           { return EventKeyRotated }

func (h HandChanged) EventType() EventType {
	if h.HandRaised {
		return EventHandRaised
	}
	return EventHandLowered
}

func (r RecordingChanged) EventType() EventType {
	if r.RecordingActive {
		return EventRecStarted
	}
	return EventRecStopped
}
