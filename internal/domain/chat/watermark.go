package chat

import "time"

// Watermark records the last moment a user is known to have viewed a
// conversation. It is the single source of truth for unread state and is
// never used for message ordering.
type Watermark struct {
	UserID         UserID
	ConversationID ConversationID
	SeenAt         time.Time
}

// UnreadSince reports whether activity at lastMessageAt is unseen
// relative to a watermark. A zero seenAt means no watermark exists yet,
// in which case any message at all counts as unread.
func UnreadSince(lastMessageAt, seenAt time.Time) bool {
	if lastMessageAt.IsZero() {
		return false
	}
	if seenAt.IsZero() {
		return true
	}
	return lastMessageAt.After(seenAt)
}
