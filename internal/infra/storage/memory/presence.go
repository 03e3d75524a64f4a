package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainpresence "github.com/dinilH/SkillConnect/internal/domain/presence"
)

// PresenceRepository keeps per-user presence in memory.
type PresenceRepository struct {
	mu     sync.RWMutex
	byUser map[domainpresence.UserID]domainpresence.Presence
}

func NewPresenceRepository() *PresenceRepository {
	return &PresenceRepository{byUser: make(map[domainpresence.UserID]domainpresence.Presence)}
}

func (r *PresenceRepository) Heartbeat(ctx context.Context, user domainpresence.UserID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[user] = domainpresence.Presence{UserID: user, Online: true, LastActiveAt: at.UTC()}
	return nil
}

func (r *PresenceRepository) SetOffline(ctx context.Context, user domainpresence.UserID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byUser[user]
	if !ok {
		current = domainpresence.Presence{UserID: user, LastActiveAt: at.UTC()}
	}
	current.Online = false
	r.byUser[user] = current
	return nil
}

func (r *PresenceRepository) Get(ctx context.Context, user domainpresence.UserID) (domainpresence.Presence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if current, ok := r.byUser[user]; ok {
		return current, nil
	}
	return domainpresence.Presence{UserID: user}, nil
}

func (r *PresenceRepository) ListActiveSince(ctx context.Context, cutoff time.Time) ([]domainpresence.Presence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domainpresence.Presence, 0)
	for _, current := range r.byUser {
		if current.Online && !current.LastActiveAt.Before(cutoff) {
			result = append(result, current)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActiveAt.After(result[j].LastActiveAt)
	})
	return result, nil
}

func (r *PresenceRepository) MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var demoted int64
	for user, current := range r.byUser {
		if current.Online && current.LastActiveAt.Before(cutoff) {
			current.Online = false
			r.byUser[user] = current
			demoted++
		}
	}
	return demoted, nil
}
