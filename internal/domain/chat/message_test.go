package chat

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateText(t *testing.T) {
	if _, err := ValidateText("   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("whitespace-only text: %v, want ErrEmptyText", err)
	}
	got, err := ValidateText("  hello ")
	if err != nil {
		t.Fatalf("ValidateText: %v", err)
	}
	if got != "hello" {
		t.Fatalf("ValidateText = %q, want trimmed text", got)
	}
}

func TestMessageBefore(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := Message{CreatedAt: at, Seq: 1}
	later := Message{CreatedAt: at.Add(time.Second), Seq: 2}
	if !earlier.Before(later) || later.Before(earlier) {
		t.Fatalf("timestamp order broken")
	}

	// Same instant resolves by insertion order.
	tieA := Message{CreatedAt: at, Seq: 3}
	tieB := Message{CreatedAt: at, Seq: 4}
	if !tieA.Before(tieB) || tieB.Before(tieA) {
		t.Fatalf("seq tiebreak broken")
	}
}

func TestSnippetTruncation(t *testing.T) {
	if got := Snippet("  short  "); got != "short" {
		t.Fatalf("Snippet = %q", got)
	}
	long := strings.Repeat("ä", snippetLimit+10)
	got := Snippet(long)
	if len([]rune(got)) != snippetLimit {
		t.Fatalf("snippet length = %d runes, want %d", len([]rune(got)), snippetLimit)
	}
}
