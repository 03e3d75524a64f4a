package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainpresence "github.com/dinilH/SkillConnect/internal/domain/presence"
	"github.com/dinilH/SkillConnect/internal/infra/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker() (*Tracker, *fakeClock) {
	clock := newFakeClock()
	return &Tracker{
		Repo:         memory.NewPresenceRepository(),
		IdleTimeout:  5 * time.Minute,
		ActiveWindow: 30 * time.Minute,
		Now:          clock.Now,
	}, clock
}

func TestHeartbeatMarksOnline(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	if err := tracker.Heartbeat(ctx, "alice"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	online, err := tracker.Online(ctx, "alice")
	if err != nil {
		t.Fatalf("Online: %v", err)
	}
	if !online {
		t.Fatalf("user should be online after a heartbeat")
	}
}

func TestHeartbeatRequiresUser(t *testing.T) {
	tracker, _ := newTestTracker()
	if err := tracker.Heartbeat(context.Background(), ""); !errors.Is(err, domainpresence.ErrUserRequired) {
		t.Fatalf("blank user: %v, want ErrUserRequired", err)
	}
}

func TestIdleTimeoutDemotesLazily(t *testing.T) {
	tracker, clock := newTestTracker()
	ctx := context.Background()

	if err := tracker.Heartbeat(ctx, "alice"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	// The silent-disconnect case: no explicit offline signal ever arrives.
	clock.Advance(tracker.IdleTimeout + time.Second)
	online, err := tracker.Online(ctx, "alice")
	if err != nil {
		t.Fatalf("Online: %v", err)
	}
	if online {
		t.Fatalf("idle user still reads online before any sweep runs")
	}

	// A fresh heartbeat revives them.
	if err := tracker.Heartbeat(ctx, "alice"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	online, _ = tracker.Online(ctx, "alice")
	if !online {
		t.Fatalf("heartbeat should bring the user back online")
	}
}

func TestGoOffline(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	if err := tracker.Heartbeat(ctx, "alice"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if err := tracker.GoOffline(ctx, "alice"); err != nil {
		t.Fatalf("GoOffline: %v", err)
	}
	online, err := tracker.Online(ctx, "alice")
	if err != nil {
		t.Fatalf("Online: %v", err)
	}
	if online {
		t.Fatalf("explicit offline signal ignored")
	}
}

func TestActiveMembersWindow(t *testing.T) {
	tracker, clock := newTestTracker()
	ctx := context.Background()

	if err := tracker.Heartbeat(ctx, "stale"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	clock.Advance(tracker.ActiveWindow + time.Minute)
	if err := tracker.Heartbeat(ctx, "fresh"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	members, err := tracker.ActiveMembers(ctx)
	if err != nil {
		t.Fatalf("ActiveMembers: %v", err)
	}
	if len(members) != 1 || members[0].UserID != "fresh" {
		t.Fatalf("active listing = %v, want only the fresh user", members)
	}
}

func TestSweepDemotesIdleUsers(t *testing.T) {
	tracker, clock := newTestTracker()
	ctx := context.Background()

	if err := tracker.Heartbeat(ctx, "idle"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	clock.Advance(tracker.IdleTimeout + time.Second)
	if err := tracker.Heartbeat(ctx, "active"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	demoted, err := tracker.Repo.MarkIdleOffline(ctx, clock.Now().Add(-tracker.IdleTimeout))
	if err != nil {
		t.Fatalf("MarkIdleOffline: %v", err)
	}
	if demoted != 1 {
		t.Fatalf("demoted %d users, want 1", demoted)
	}

	current, err := tracker.Repo.Get(ctx, "idle")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.Online {
		t.Fatalf("idle user survived the sweep")
	}
}
