package dto

import "time"

type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId"`
	Content    string `json:"content"`
}

type CreateConversationRequest struct {
	ReceiverID uint `json:"receiverId"`
}

type ConversationSummary struct {
	ID              uint       `json:"id"`
	OtherUserID     uint       `json:"otherUserId"`
	OtherUsername   string     `json:"otherUsername"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageTime *time.Time `json:"lastMessageTime"`
	UnreadCount     int64      `json:"unreadCount"`
}

type MessageView struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversationId"`
	SenderID       uint      `json:"senderId"`
	ReceiverID     uint      `json:"receiverId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	Read           bool      `json:"read"`
}
