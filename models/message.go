package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is one entry in the chat log between two users (customer and staff
// or manager). Messages are persisted rather than cached so conversation
// history survives restarts; a row is the append-only unit of the store.
type Message struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SenderID    uint           `gorm:"not null;index" json:"sender_id"`
	Sender      User           `gorm:"foreignKey:SenderID" json:"sender"`
	RecipientID uint           `gorm:"not null;index" json:"recipient_id"`
	Recipient   User           `gorm:"foreignKey:RecipientID" json:"-"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	ReadAt      *time.Time     `json:"read_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
