package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// ConversationRepository stores conversations in memory. Used by tests
// and as the storage fallback when no Mongo URI is configured.
type ConversationRepository struct {
	mu     sync.RWMutex
	byID   map[domainchat.ConversationID]*domainchat.Conversation
	byPair map[domainchat.PairKey]domainchat.ConversationID
	seq    int64
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:   make(map[domainchat.ConversationID]*domainchat.Conversation),
		byPair: make(map[domainchat.PairKey]domainchat.ConversationID),
	}
}

// GetOrCreate enforces pair uniqueness under one lock: concurrent
// creators for the same pair converge on a single row, mirroring the
// unique-index-plus-reread contract of the Mongo implementation.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, pair [2]domainchat.UserID, now time.Time) (*domainchat.Conversation, bool, error) {
	key := domainchat.Key(pair)

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPair[key]; ok {
		return cloneConversation(r.byID[id]), false, nil
	}
	conversation := &domainchat.Conversation{
		ID:           domainchat.ConversationID(uuid.NewString()),
		Participants: pair,
		CreatedAt:    now.UTC(),
	}
	r.byID[conversation.ID] = conversation
	r.byPair[key] = conversation.ID
	return cloneConversation(conversation), true, nil
}

func (r *ConversationRepository) ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if conversation, ok := r.byID[id]; ok {
		return cloneConversation(conversation), nil
	}
	return nil, domainchat.ErrConversationNotFound
}

func (r *ConversationRepository) ListForUser(ctx context.Context, user domainchat.UserID) ([]*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domainchat.Conversation, 0)
	for _, conversation := range r.byID {
		if !conversation.HasParticipant(user) || conversation.HiddenBy(user) {
			continue
		}
		result = append(result, cloneConversation(conversation))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivity().After(result[j].LastActivity())
	})
	return result, nil
}

func (r *ConversationRepository) Hide(ctx context.Context, id domainchat.ConversationID, user domainchat.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.byID[id]
	if !ok {
		return domainchat.ErrConversationNotFound
	}
	if !conversation.HiddenBy(user) {
		conversation.HiddenFor = append(conversation.HiddenFor, user)
	}
	return nil
}

// touch updates the denormalized last-message cache and clears hides so
// the thread reappears for both participants.
func (r *ConversationRepository) touch(id domainchat.ConversationID, snippet string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.byID[id]
	if !ok {
		return 0, domainchat.ErrConversationNotFound
	}
	r.seq++
	conversation.LastMessageText = snippet
	conversation.LastMessageAt = at
	conversation.HiddenFor = nil
	return r.seq, nil
}

func cloneConversation(c *domainchat.Conversation) *domainchat.Conversation {
	if c == nil {
		return nil
	}
	clone := *c
	clone.HiddenFor = append([]domainchat.UserID(nil), c.HiddenFor...)
	return &clone
}
