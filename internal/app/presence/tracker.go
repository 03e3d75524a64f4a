package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainpresence "github.com/dinilH/SkillConnect/internal/domain/presence"
)

// Repository persists per-user presence state.
type Repository interface {
	// Heartbeat marks the user online and bumps LastActiveAt. Idempotent,
	// last-write-wins on the timestamp.
	Heartbeat(ctx context.Context, user domainpresence.UserID, at time.Time) error
	// SetOffline clears the online flag immediately.
	SetOffline(ctx context.Context, user domainpresence.UserID, at time.Time) error
	Get(ctx context.Context, user domainpresence.UserID) (domainpresence.Presence, error)
	// ListActiveSince returns users online with activity at or after the
	// cutoff, most recent first.
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]domainpresence.Presence, error)
	// MarkIdleOffline demotes every online user whose last activity is
	// before the cutoff and reports how many were demoted.
	MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// Tracker derives online state from client heartbeats. A user goes
// offline either by explicit signal or, in the common disconnect case,
// once the idle window elapses with no heartbeat.
type Tracker struct {
	Repo Repository
	// IdleTimeout demotes silent users to offline. ActiveWindow scopes
	// the active-members listing. The two are intentionally independent.
	IdleTimeout   time.Duration
	ActiveWindow  time.Duration
	SweepInterval time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now().UTC()
}

// Heartbeat marks the user online. Missed heartbeats are not errors;
// they only accelerate the next idle expiry.
func (t *Tracker) Heartbeat(ctx context.Context, user domainpresence.UserID) error {
	if user == "" {
		return domainpresence.ErrUserRequired
	}
	if err := t.Repo.Heartbeat(ctx, user, t.now()); err != nil {
		return fmt.Errorf("record heartbeat: %w", err)
	}
	return nil
}

// GoOffline is the optional explicit teardown signal.
func (t *Tracker) GoOffline(ctx context.Context, user domainpresence.UserID) error {
	if user == "" {
		return domainpresence.ErrUserRequired
	}
	if err := t.Repo.SetOffline(ctx, user, t.now()); err != nil {
		return fmt.Errorf("set offline: %w", err)
	}
	return nil
}

// Online resolves the user's effective state lazily against the idle
// window, so a stale online flag reads as offline even between sweeps.
func (t *Tracker) Online(ctx context.Context, user domainpresence.UserID) (bool, error) {
	current, err := t.Repo.Get(ctx, user)
	if err != nil {
		return false, err
	}
	return current.OnlineWithin(t.now(), t.IdleTimeout), nil
}

// ActiveMembers lists users with activity inside the active window.
func (t *Tracker) ActiveMembers(ctx context.Context) ([]domainpresence.Presence, error) {
	return t.Repo.ListActiveSince(ctx, t.now().Add(-t.ActiveWindow))
}

// RunSweep periodically demotes idle users until the context ends.
func (t *Tracker) RunSweep(ctx context.Context) {
	interval := t.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			demoted, err := t.Repo.MarkIdleOffline(ctx, t.now().Add(-t.IdleTimeout))
			if err != nil {
				if t.Logger != nil {
					t.Logger.Warn("presence sweep failed", "error", err)
				}
				continue
			}
			if demoted > 0 && t.Logger != nil {
				t.Logger.Debug("presence sweep demoted idle users", "count", demoted)
			}
		}
	}
}
