package chat

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyText       = errors.New("chat: message text is required")
	ErrMessageNotFound = errors.New("chat: message not found")
)

const snippetLimit = 500

type MessageID string

// Message is an immutable entry in a conversation's append-only log.
// Seq is assigned by the log at append time and breaks ordering ties
// between messages sharing a CreatedAt.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       UserID
	Text           string
	CreatedAt      time.Time
	Seq            int64
}

// ValidateText rejects empty or whitespace-only message bodies.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// Before reports log order: CreatedAt ascending, insertion order as
// tiebreak.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.Seq < other.Seq
}

// Snippet trims message text to the length cached on the conversation.
func Snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= snippetLimit {
		return string(runes)
	}
	return string(runes[:snippetLimit])
}
