package domain

import (
	"crypto/subtle"
	"regexp"
	"strings"
	"time"
)

type (
	RoomID   int64
	RoomSlug string
)

const MaxTitleLen = 200

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

type Room struct {
	ID              RoomID    `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug            RoomSlug  `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	CreatedBy       UserID    `gorm:"index;not null" json:"created_by"`
	Topic           *string   `gorm:"type:text" json:"topic"`
	IsLocked        bool      `gorm:"not null;default:false" json:"is_locked"`
	MuteAll         bool      `gorm:"not null;default:false" json:"mute_all"`
	RecordingActive bool      `gorm:"not null;default:false" json:"recording_active"`
	InviteKey       *string   `gorm:"size:64" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewRoom(slug RoomSlug, title string, createdBy UserID) (*Room, error) {
	if !slugRe.MatchString(string(slug)) {
		return nil, ErrInvalidSlug
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = string(slug)
	}
	if len(title) > MaxTitleLen {
		title = title[:MaxTitleLen]
	}
	return &Room{Slug: slug, Title: title, CreatedBy: createdBy}, nil
}

func (r *Room) IsCreator(id UserID) bool { return r.CreatedBy == id }

// RequiresInvite reports whether the room is private.
func (r *Room) RequiresInvite() bool { return r.InviteKey != nil && *r.InviteKey != "" }

func (r *Room) InviteMatches(key string) bool {
	if !r.RequiresInvite() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(*r.InviteKey), []byte(key)) == 1
}

// SetTopic stores a trimmed topic; blank clears it.
func (r *Room) SetTopic(topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		r.Topic = nil
		return
	}
	r.Topic = &topic
}

// StatePatch is a partial update of the room flags. Nil fields are untouched.
type StatePatch struct {
	SetTopic bool
	Topic    string
	IsLocked *bool
	MuteAll  *bool
}

func (p StatePatch) Empty() bool {
	return !p.SetTopic && p.IsLocked == nil && p.MuteAll == nil
}

func (r *Room) Apply(p StatePatch) {
	if p.SetTopic {
		r.SetTopic(p.Topic)
	}
	if p.IsLocked != nil {
		r.IsLocked = *p.IsLocked
	}
	if p.MuteAll != nil {
		r.MuteAll = *p.MuteAll
	}
}

// RoomSnapshot is the room flags plus the users with a raised hand.
type RoomSnapshot struct {
	RoomSlug        RoomSlug `json:"room_slug"`
	Topic           *string  `json:"topic"`
	IsLocked        bool     `json:"is_locked"`
	MuteAll         bool     `json:"mute_all"`
	RecordingActive bool     `json:"recording_active"`
	RaisedHands     []UserID `json:"raised_hands"`
}

func (r *Room) Snapshot(raised []UserID) RoomSnapshot {
	if raised == nil {
		raised = []UserID{}
	}
	return RoomSnapshot{
		RoomSlug:        r.Slug,
		Topic:           r.Topic,
		IsLocked:        r.IsLocked,
		MuteAll:         r.MuteAll,
		RecordingActive: r.RecordingActive,
		RaisedHands:     raised,
	}
}
