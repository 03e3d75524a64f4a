package chat

import (
	"testing"
	"time"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

func TestUnreadStateOnMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := NewUnreadState("alice")

	state.OnMessage(domainchat.Message{ConversationID: "c1", SenderID: "bob", CreatedAt: at})
	if !state.Unread("c1") {
		t.Fatalf("message from peer should flip the flag")
	}

	// Own messages never show as unread.
	state.OnMessage(domainchat.Message{ConversationID: "c2", SenderID: "alice", CreatedAt: at})
	if state.Unread("c2") {
		t.Fatalf("own message flagged unread")
	}
}

func TestUnreadStateViewing(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := NewUnreadState("alice")

	state.View("c1", at)
	state.OnMessage(domainchat.Message{ConversationID: "c1", SenderID: "bob", CreatedAt: at.Add(time.Second)})
	if state.Unread("c1") {
		t.Fatalf("messages arriving on the open thread flagged unread")
	}

	state.StopViewing("c1")
	state.OnMessage(domainchat.Message{ConversationID: "c1", SenderID: "bob", CreatedAt: at.Add(2 * time.Second)})
	if !state.Unread("c1") {
		t.Fatalf("closed thread should accumulate unread again")
	}

	// Stopping a thread that is not on screen is a no-op.
	state.View("c2", at)
	state.StopViewing("c1")
	state.OnMessage(domainchat.Message{ConversationID: "c2", SenderID: "bob", CreatedAt: at.Add(3 * time.Second)})
	if state.Unread("c2") {
		t.Fatalf("viewing state lost by unrelated stop")
	}
}

func TestUnreadStateOnSeen(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := NewUnreadState("alice")

	state.OnMessage(domainchat.Message{ConversationID: "c1", SenderID: "bob", CreatedAt: at})
	state.OnSeen("c1", at.Add(time.Second))
	if state.Unread("c1") {
		t.Fatalf("seen advance should clear the flag")
	}

	// A stale advance must not regress the local watermark.
	state.OnSeen("c1", at.Add(-time.Hour))
	if state.Unread("c1") {
		t.Fatalf("stale seen regressed the local watermark")
	}
}

func TestUnreadConversations(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := NewUnreadState("alice")

	state.OnMessage(domainchat.Message{ConversationID: "c2", SenderID: "bob", CreatedAt: at})
	state.OnMessage(domainchat.Message{ConversationID: "c1", SenderID: "bob", CreatedAt: at})
	state.OnMessage(domainchat.Message{ConversationID: "c3", SenderID: "bob", CreatedAt: at})
	state.OnSeen("c3", at.Add(time.Second))

	got := state.UnreadConversations()
	want := []domainchat.ConversationID{"c1", "c2"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("UnreadConversations = %v, want %v", got, want)
	}
}

func TestUnreadStateReconcile(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := NewUnreadState("alice")

	// Local optimistic state says c1 is read; the server disagrees.
	state.OnMessage(domainchat.Message{ConversationID: "c1", SenderID: "bob", CreatedAt: at})
	state.OnSeen("c1", at.Add(time.Minute))

	views := []ConversationView{
		{Conversation: &domainchat.Conversation{ID: "c1", LastMessageAt: at.Add(2 * time.Minute)}},
		{Conversation: &domainchat.Conversation{ID: "c2", LastMessageAt: at}},
	}
	watermarks := map[domainchat.ConversationID]time.Time{
		"c1": at,
		"c2": at.Add(time.Minute),
	}
	state.Reconcile(views, watermarks)

	if !state.Unread("c1") {
		t.Fatalf("server state must win: c1 is unread durably")
	}
	if state.Unread("c2") {
		t.Fatalf("server state must win: c2 is read durably")
	}
}
