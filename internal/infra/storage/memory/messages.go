package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// MessageRepository keeps per-conversation message logs in memory. It
// shares the ConversationRepository so an append updates the parent's
// last-message cache under the same contract as the Mongo layer.
type MessageRepository struct {
	mu            sync.RWMutex
	byConvo       map[domainchat.ConversationID][]domainchat.Message
	conversations *ConversationRepository
}

func NewMessageRepository(conversations *ConversationRepository) *MessageRepository {
	return &MessageRepository{
		byConvo:       make(map[domainchat.ConversationID][]domainchat.Message),
		conversations: conversations,
	}
}

func (r *MessageRepository) Append(ctx context.Context, conversationID domainchat.ConversationID, sender domainchat.UserID, text string, at time.Time) (*domainchat.Message, error) {
	at = at.UTC()
	seq, err := r.conversations.touch(conversationID, domainchat.Snippet(text), at)
	if err != nil {
		return nil, err
	}
	message := domainchat.Message{
		ID:             domainchat.MessageID(uuid.NewString()),
		ConversationID: conversationID,
		SenderID:       sender,
		Text:           text,
		CreatedAt:      at,
		Seq:            seq,
	}

	r.mu.Lock()
	r.byConvo[conversationID] = append(r.byConvo[conversationID], message)
	r.mu.Unlock()
	return &message, nil
}

func (r *MessageRepository) ListForConversation(ctx context.Context, conversationID domainchat.ConversationID, limit int, afterSeq int64) ([]domainchat.Message, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	r.mu.RLock()
	log := r.byConvo[conversationID]
	page := make([]domainchat.Message, 0, limit)
	for _, message := range log {
		if message.Seq <= afterSeq {
			continue
		}
		page = append(page, message)
	}
	r.mu.RUnlock()

	sort.Slice(page, func(i, j int) bool { return page[i].Before(page[j]) })
	var next int64
	if len(page) > limit {
		page = page[:limit]
		next = page[len(page)-1].Seq
	}
	return page, next, nil
}
