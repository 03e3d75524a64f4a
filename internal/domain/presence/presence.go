package presence

import (
	"errors"
	"time"
)

var ErrUserRequired = errors.New("presence: user id is required")

type UserID string

// Presence is a user's derived online state. Online is the last explicit
// signal; LastActiveAt is the heartbeat recency it is checked against.
type Presence struct {
	UserID       UserID
	Online       bool
	LastActiveAt time.Time
}

// OnlineWithin resolves the effective online flag at the given instant.
// A user whose last heartbeat is older than the window is offline even
// if no explicit go-offline signal ever arrived.
func (p Presence) OnlineWithin(now time.Time, window time.Duration) bool {
	if !p.Online || p.LastActiveAt.IsZero() {
		return false
	}
	return now.Sub(p.LastActiveAt) <= window
}
