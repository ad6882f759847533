package domain

import "time"

type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleGuest:
		return true
	}
	return false
}

// IsPrivileged is true for roles that may change room state and moderate.
func IsPrivileged(r Role) bool { return r == RoleOwner || r == RoleAdmin }

func CanMutateRoomState(r Role) bool { return IsPrivileged(r) }

func CanModerate(r Role) bool { return IsPrivileged(r) }

// CanManageRoles limits promote/demote to the owner.
func CanManageRoles(r Role) bool { return r == RoleOwner }

type MemberStatus string

const (
	StatusActive MemberStatus = "active"
	StatusLeft   MemberStatus = "left"
)

// Membership is the per-(room, user) participation record.
// At most one exists per pair; leaving flips Status instead of deleting.
type Membership struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID        RoomID       `gorm:"not null;uniqueIndex:idx_membership_room_user" json:"room_id"`
	UserID        UserID       `gorm:"not null;uniqueIndex:idx_membership_room_user" json:"user_id"`
	Role          Role         `gorm:"size:16;not null" json:"role"`
	Status        MemberStatus `gorm:"size:16;not null;index" json:"status"`
	JoinedAt      time.Time    `json:"joined_at"`
	LeftAt        *time.Time   `json:"left_at"`
	LastSeen      time.Time    `json:"last_seen"`
	HandRaised    bool         `gorm:"not null;default:false" json:"hand_raised"`
	MicMuted      bool         `gorm:"not null;default:false" json:"mic_muted"`
	CamOff        bool         `gorm:"not null;default:false" json:"cam_off"`
	AdminMuted    bool         `gorm:"not null;default:false" json:"admin_muted"`
	AdminVideoOff bool         `gorm:"not null;default:false" json:"admin_video_off"`
	CanSpeak      bool         `gorm:"not null;default:false" json:"can_speak"`
}

func (m *Membership) IsActive() bool { return m.Status == StatusActive }

// IsOnline is true for active members seen within ttl, boundary included.
func (m *Membership) IsOnline(now time.Time, ttl time.Duration) bool {
	return m.IsActive() && now.Sub(m.LastSeen) <= ttl
}

// CheckSpeak gates audio-bearing and chat traffic.
func (m *Membership) CheckSpeak(roomMuteAll bool) error {
	if m.AdminMuted {
		return ErrMutedByAdmin
	}
	if roomMuteAll && !IsPrivileged(m.Role) && !m.CanSpeak {
		return ErrMuteAll
	}
	return nil
}

// SetMedia applies self-reported media flags. Admin locks win.
func (m *Membership) SetMedia(mic, cam *bool) error {
	if mic != nil {
		if !*mic && m.AdminMuted {
			return ErrMutedByAdmin
		}
		m.MicMuted = *mic
	}
	if cam != nil {
		if !*cam && m.AdminVideoOff {
			return ErrVideoOffByAdmin
		}
		m.CamOff = *cam
	}
	return nil
}

func (m *Membership) Leave(now time.Time) {
	m.Status = StatusLeft
	m.LeftAt = &now
	m.HandRaised = false
}
