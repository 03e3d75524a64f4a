package dto

import "time"

// Conversation describes chat metadata for one viewing user.
type Conversation struct {
	ID              string     `json:"id"`
	Participants    []string   `json:"participants"`
	Peer            string     `json:"peer_id"`
	CreatedAt       time.Time  `json:"created_at"`
	LastMessageText string     `json:"last_message_text,omitempty"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
	Unread          bool       `json:"unread"`
}

// ConversationList is a collection of annotated conversations.
type ConversationList struct {
	Items []Conversation `json:"items"`
}

// ChatMessage contains a single message payload.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	Seq            int64     `json:"seq"`
}

// ChatMessageList is a paginated message list, oldest first.
type ChatMessageList struct {
	Items      []ChatMessage `json:"items"`
	NextCursor int64         `json:"next_cursor,omitempty"`
}
