package domain

import "time"

const DefaultEncAlgo = "AES-256-GCM"

// Message is a persisted chat line. Encrypted messages carry base64
// ciphertext in Text and are never inspected.
type Message struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID      RoomID    `gorm:"not null;index" json:"room_id"`
	UserID      UserID    `gorm:"not null" json:"user_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	IsEncrypted bool      `gorm:"not null;default:false" json:"is_encrypted"`
	EncAlgo     string    `gorm:"size:50" json:"enc_algo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type HistoryPage struct {
	Items   []Message `json:"items"`
	HasMore bool      `json:"has_more"`
}
