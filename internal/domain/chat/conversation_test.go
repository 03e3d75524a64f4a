package chat

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizePairOrderIndependent(t *testing.T) {
	ab, err := NormalizePair("alice", "bob")
	if err != nil {
		t.Fatalf("NormalizePair(alice, bob): %v", err)
	}
	ba, err := NormalizePair("bob", "alice")
	if err != nil {
		t.Fatalf("NormalizePair(bob, alice): %v", err)
	}
	if ab != ba {
		t.Fatalf("pair depends on argument order: %v vs %v", ab, ba)
	}
	if Key(ab) != Key(ba) {
		t.Fatalf("key depends on argument order: %q vs %q", Key(ab), Key(ba))
	}
}

func TestNormalizePairTrimsWhitespace(t *testing.T) {
	pair, err := NormalizePair(" alice ", "bob")
	if err != nil {
		t.Fatalf("NormalizePair: %v", err)
	}
	if pair != [2]UserID{"alice", "bob"} {
		t.Fatalf("unexpected pair %v", pair)
	}
}

func TestNormalizePairValidation(t *testing.T) {
	cases := []struct {
		name string
		a, b UserID
		want error
	}{
		{"empty first", "", "bob", ErrParticipantRequired},
		{"empty second", "alice", "", ErrParticipantRequired},
		{"whitespace only", "  ", "bob", ErrParticipantRequired},
		{"self", "alice", "alice", ErrSelfConversation},
		{"self after trim", "alice", " alice ", ErrSelfConversation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizePair(tc.a, tc.b); !errors.Is(err, tc.want) {
				t.Fatalf("NormalizePair(%q, %q) = %v, want %v", tc.a, tc.b, err, tc.want)
			}
		})
	}
}

func TestConversationPeer(t *testing.T) {
	c := Conversation{Participants: [2]UserID{"alice", "bob"}}
	if got := c.Peer("alice"); got != "bob" {
		t.Fatalf("Peer(alice) = %q", got)
	}
	if got := c.Peer("bob"); got != "alice" {
		t.Fatalf("Peer(bob) = %q", got)
	}
}

func TestConversationLastActivity(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := Conversation{CreatedAt: created}
	if !c.LastActivity().Equal(created) {
		t.Fatalf("empty thread should order by creation time")
	}
	lastMessage := created.Add(time.Hour)
	c.LastMessageAt = lastMessage
	if !c.LastActivity().Equal(lastMessage) {
		t.Fatalf("thread with messages should order by last message")
	}
}

func TestUnreadSince(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name          string
		lastMessageAt time.Time
		seenAt        time.Time
		want          bool
	}{
		{"no messages", time.Time{}, time.Time{}, false},
		{"no messages but watermark", time.Time{}, at, false},
		{"message and no watermark", at, time.Time{}, true},
		{"message after watermark", at.Add(time.Second), at, true},
		{"message at watermark", at, at, false},
		{"message before watermark", at.Add(-time.Second), at, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UnreadSince(tc.lastMessageAt, tc.seenAt); got != tc.want {
				t.Fatalf("UnreadSince = %v, want %v", got, tc.want)
			}
		})
	}
}
