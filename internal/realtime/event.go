package realtime

import (
	"time"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// Client-to-server event types. A "sync" frame asks the server to
// re-derive the session's unread flags and replay them.
const (
	EventHeartbeat = "heartbeat"
	EventJoin      = "join"
	EventLeave     = "leave"
	EventSend      = "send"
	EventSync      = "sync"
)

// Server-to-client event types. A "hello" frame opens the session and
// advertises the heartbeat cadence. An "unread" frame is a lightweight
// signal that a conversation the session is not viewing has unseen
// activity; the client refetches to learn more.
const (
	EventHello   = "hello"
	EventMessage = "message"
	EventUnread  = "unread"
	EventError   = "error"
)

// ClientEvent is one inbound frame on the websocket.
type ClientEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
}

// ServerEvent is one outbound frame.
type ServerEvent struct {
	Type             string          `json:"type"`
	ConversationID   string          `json:"conversation_id,omitempty"`
	Message          *MessagePayload `json:"message,omitempty"`
	HeartbeatSeconds int             `json:"heartbeat_seconds,omitempty"`
	Reason           string          `json:"reason,omitempty"`
}

// MessagePayload is the wire form of a delivered message.
type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	Seq            int64     `json:"seq"`
}

// NewUnreadEvent signals new activity in a conversation the session is
// not subscribed to.
func NewUnreadEvent(conversationID domainchat.ConversationID) ServerEvent {
	return ServerEvent{Type: EventUnread, ConversationID: string(conversationID)}
}

// NewMessageEvent wraps a persisted message for delivery.
func NewMessageEvent(message domainchat.Message) ServerEvent {
	return ServerEvent{
		Type:           EventMessage,
		ConversationID: string(message.ConversationID),
		Message: &MessagePayload{
			ID:             string(message.ID),
			ConversationID: string(message.ConversationID),
			SenderID:       string(message.SenderID),
			Text:           message.Text,
			CreatedAt:      message.CreatedAt,
			Seq:            message.Seq,
		},
	}
}
