package memory

import (
	"context"
	"sync"
	"time"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// WatermarkRepository keeps last-seen watermarks in memory.
type WatermarkRepository struct {
	mu     sync.RWMutex
	byUser map[domainchat.UserID]map[domainchat.ConversationID]time.Time
}

func NewWatermarkRepository() *WatermarkRepository {
	return &WatermarkRepository{
		byUser: make(map[domainchat.UserID]map[domainchat.ConversationID]time.Time),
	}
}

// Set advances the watermark, never backwards.
func (r *WatermarkRepository) Set(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID, at time.Time) error {
	at = at.UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	marks := r.byUser[user]
	if marks == nil {
		marks = make(map[domainchat.ConversationID]time.Time)
		r.byUser[user] = marks
	}
	if at.After(marks[conversationID]) {
		marks[conversationID] = at
	}
	return nil
}

func (r *WatermarkRepository) Get(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUser[user][conversationID], nil
}

func (r *WatermarkRepository) ListForUser(ctx context.Context, user domainchat.UserID) (map[domainchat.ConversationID]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[domainchat.ConversationID]time.Time, len(r.byUser[user]))
	for id, at := range r.byUser[user] {
		result[id] = at
	}
	return result, nil
}
