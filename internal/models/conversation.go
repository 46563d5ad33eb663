package models

import "time"

// Conversation is the single thread between two users. The pair is stored
// ordered (User1ID < User2ID) so that a unique index covers both directions.
type Conversation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	User1ID       uint       `gorm:"not null;uniqueIndex:idx_conversations_pair,priority:1" json:"user1_id"`
	User2ID       uint       `gorm:"not null;uniqueIndex:idx_conversations_pair,priority:2;index" json:"user2_id"`
	LastMessage   string     `gorm:"type:text" json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OrderedPair returns the two ids in storage order.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Conversation) HasParticipant(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID uint) uint {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// Message is immutable once written.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	ReceiverID     uint      `gorm:"not null;index" json:"receiver_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// MessageReadStatus is an append-only seen marker: a row means UserID has read MessageID.
type MessageReadStatus struct {
	MessageID uint      `gorm:"primaryKey;autoIncrement:false" json:"message_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

func (MessageReadStatus) TableName() string {
	return "message_read_status"
}
