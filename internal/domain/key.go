package domain

import "time"

const (
	KeyAlgoAES256GCM = "AES-256-GCM"

	WrapRSAOAEP256 = "RSA-OAEP-256"
	WrapAgeX25519  = "age-x25519"

	KeyStatusActive = "active"
)

// RoomKey records a generated symmetric key. The key itself is never stored.
type RoomKey struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"key_id"`
	RoomID           RoomID    `gorm:"not null;index" json:"room_id"`
	CreatedBy        UserID    `gorm:"not null" json:"created_by"`
	Algo             string    `gorm:"size:32;not null" json:"algo"`
	Fingerprint      string    `gorm:"size:64;not null" json:"fingerprint"`
	Status           string    `gorm:"size:16;not null" json:"status"`
	DistributedCount int       `gorm:"not null" json:"distributed_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// RoomKeyShare is the room key wrapped for one member's public key.
type RoomKeyShare struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	RoomKeyID  int64     `gorm:"not null;index" json:"key_id"`
	RoomID     RoomID    `gorm:"not null;index:idx_share_room_user" json:"room_id"`
	UserID     UserID    `gorm:"not null;index:idx_share_room_user" json:"user_id"`
	WrapAlgo   string    `gorm:"size:32;not null" json:"wrap_algo"`
	WrappedKey string    `gorm:"type:text;not null" json:"wrapped_key_b64"`
	CreatedAt  time.Time `json:"created_at"`
}
