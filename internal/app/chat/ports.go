package chat

import (
	"context"
	"time"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// ConversationRepository owns the two-party conversation entity.
type ConversationRepository interface {
	// GetOrCreate returns the conversation for the normalized pair,
	// creating it when absent. Implementations must enforce uniqueness on
	// the pair key at the storage layer: under concurrent invocation the
	// losing writer reads back the winner's row. The second return value
	// reports whether this call created the conversation.
	GetOrCreate(ctx context.Context, pair [2]domainchat.UserID, now time.Time) (*domainchat.Conversation, bool, error)
	ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error)
	// ListForUser returns the user's visible conversations ordered by
	// last activity, most recent first.
	ListForUser(ctx context.Context, user domainchat.UserID) ([]*domainchat.Conversation, error)
	// Hide removes the conversation from the user's listing only. The
	// peer's copy is untouched and a later message un-hides it.
	Hide(ctx context.Context, id domainchat.ConversationID, user domainchat.UserID) error
}

// MessageRepository is the append-only per-conversation message log.
type MessageRepository interface {
	// Append persists a message and updates the parent conversation's
	// denormalized last-message cache. The message carries its assigned
	// id, timestamp and per-conversation sequence number on return.
	Append(ctx context.Context, conversationID domainchat.ConversationID, sender domainchat.UserID, text string, at time.Time) (*domainchat.Message, error)
	// ListForConversation pages through messages oldest-first. A zero
	// cursor starts from the beginning; the returned cursor resumes after
	// the last message of the page and is zero on the final page.
	ListForConversation(ctx context.Context, conversationID domainchat.ConversationID, limit int, afterSeq int64) ([]domainchat.Message, int64, error)
}

// WatermarkRepository stores per-user last-seen watermarks durably so
// unread state survives reconnects and is shared across devices.
type WatermarkRepository interface {
	// Set advances the watermark to at. Implementations must never move a
	// watermark backwards.
	Set(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID, at time.Time) error
	Get(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID) (time.Time, error)
	ListForUser(ctx context.Context, user domainchat.UserID) (map[domainchat.ConversationID]time.Time, error)
}

// Publisher fans a freshly persisted message out to connected clients.
// Delivery is at-most-once and best-effort; a failed publish never rolls
// back the durable write.
type Publisher interface {
	Publish(ctx context.Context, message domainchat.Message) error
}

// Notifier pushes a lightweight unread signal to a user's live sessions
// that are not subscribed to the conversation. Best-effort; the durable
// watermark comparison remains the source of truth.
type Notifier interface {
	NotifyUnread(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID) error
}
