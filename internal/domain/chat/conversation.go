package chat

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrParticipantRequired  = errors.New("chat: two participants are required")
	ErrSelfConversation     = errors.New("chat: cannot start a conversation with yourself")
	ErrNotParticipant       = errors.New("chat: sender is not a participant")
)

type ConversationID string

type UserID string

// PairKey identifies the unordered participant pair of a conversation.
// It is the value the storage layer enforces uniqueness on.
type PairKey string

// Conversation is a durable two-party messaging thread. The last-message
// fields are a denormalized cache over the message log and may be
// recomputed from it.
type Conversation struct {
	ID              ConversationID
	Participants    [2]UserID
	CreatedAt       time.Time
	LastMessageText string
	LastMessageAt   time.Time
	HiddenFor       []UserID
}

// NormalizePair orders and validates a participant pair independently of
// argument order.
func NormalizePair(a, b UserID) ([2]UserID, error) {
	first := UserID(strings.TrimSpace(string(a)))
	second := UserID(strings.TrimSpace(string(b)))
	if first == "" || second == "" {
		return [2]UserID{}, ErrParticipantRequired
	}
	if first == second {
		return [2]UserID{}, ErrSelfConversation
	}
	pair := [2]UserID{first, second}
	sort.Slice(pair[:], func(i, j int) bool { return pair[i] < pair[j] })
	return pair, nil
}

// Key derives the uniqueness key for a normalized pair.
func Key(pair [2]UserID) PairKey {
	return PairKey(string(pair[0]) + ":" + string(pair[1]))
}

func (c *Conversation) PairKey() PairKey {
	return Key(c.Participants)
}

func (c *Conversation) HasParticipant(user UserID) bool {
	return c.Participants[0] == user || c.Participants[1] == user
}

// Peer returns the other participant.
func (c *Conversation) Peer(user UserID) UserID {
	if c.Participants[0] == user {
		return c.Participants[1]
	}
	return c.Participants[0]
}

func (c *Conversation) HiddenBy(user UserID) bool {
	for _, id := range c.HiddenFor {
		if id == user {
			return true
		}
	}
	return false
}

// LastActivity orders conversation listings: message recency, falling
// back to creation time for threads without messages.
func (c *Conversation) LastActivity() time.Time {
	if !c.LastMessageAt.IsZero() {
		return c.LastMessageAt
	}
	return c.CreatedAt
}
