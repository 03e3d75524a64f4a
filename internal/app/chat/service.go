package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// Service implements the conversation, message-log and unread-state
// operations on top of the repository ports.
type Service struct {
	Conversations ConversationRepository
	Messages      MessageRepository
	Watermarks    WatermarkRepository
	Publisher     Publisher
	Notifier      Notifier
	Logger        *slog.Logger
	Now           func() time.Time
}

// ConversationView is a listing entry annotated for one viewing user.
type ConversationView struct {
	Conversation *domainchat.Conversation
	Peer         domainchat.UserID
	Unread       bool
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// GetOrCreate returns the single conversation for the unordered pair,
// creating it on first contact. Safe under concurrent invocation by both
// participants; both observe the same id.
func (s *Service) GetOrCreate(ctx context.Context, a, b domainchat.UserID) (*domainchat.Conversation, error) {
	pair, err := domainchat.NormalizePair(a, b)
	if err != nil {
		return nil, err
	}
	conversation, created, err := s.Conversations.GetOrCreate(ctx, pair, s.now())
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}
	if created && s.Logger != nil {
		s.Logger.Info("conversation created", "conversation_id", conversation.ID, "participants", pair)
	}
	return conversation, nil
}

// ListForUser returns the user's conversations ordered by recency, each
// annotated with the peer identity and the caller's unread flag.
func (s *Service) ListForUser(ctx context.Context, user domainchat.UserID) ([]ConversationView, error) {
	conversations, err := s.Conversations.ListForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	watermarks, err := s.Watermarks.ListForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	views := make([]ConversationView, 0, len(conversations))
	for _, conversation := range conversations {
		views = append(views, ConversationView{
			Conversation: conversation,
			Peer:         conversation.Peer(user),
			Unread:       domainchat.UnreadSince(conversation.LastMessageAt, watermarks[conversation.ID]),
		})
	}
	return views, nil
}

// Append validates and persists a message, then fans it out. The message
// is durable before publish; a publish failure is logged and swallowed
// because the log remains the source of truth and the client re-fetches
// on next load.
func (s *Service) Append(ctx context.Context, conversationID domainchat.ConversationID, sender domainchat.UserID, text string) (*domainchat.Message, error) {
	text, err := domainchat.ValidateText(text)
	if err != nil {
		return nil, err
	}
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(sender) {
		return nil, domainchat.ErrNotParticipant
	}
	message, err := s.Messages.Append(ctx, conversationID, sender, text, s.now())
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	// The sender has seen their own message; keep their watermark at
	// least as recent as the message timestamp.
	if err := s.Watermarks.Set(ctx, sender, conversationID, message.CreatedAt); err != nil && s.Logger != nil {
		s.Logger.Warn("sender watermark update failed", "error", err, "conversation_id", conversationID, "user_id", sender)
	}

	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, *message); err != nil && s.Logger != nil {
			s.Logger.Warn("realtime publish failed, clients will re-fetch", "error", err, "conversation_id", conversationID, "message_id", message.ID)
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.NotifyUnread(ctx, conversation.Peer(sender), conversationID); err != nil && s.Logger != nil {
			s.Logger.Debug("unread signal skipped", "error", err, "conversation_id", conversationID)
		}
	}
	return message, nil
}

// ListMessages pages through a conversation oldest-first. It is a plain
// restartable read; live delivery belongs to the broker.
func (s *Service) ListMessages(ctx context.Context, conversationID domainchat.ConversationID, limit int, afterSeq int64) ([]domainchat.Message, int64, error) {
	if _, err := s.Conversations.ByID(ctx, conversationID); err != nil {
		return nil, 0, err
	}
	messages, next, err := s.Messages.ListForConversation(ctx, conversationID, limit, afterSeq)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return messages, next, nil
}

// ViewForUser annotates one conversation with the caller's peer and
// unread flag, matching what a listing entry for it would show.
func (s *Service) ViewForUser(ctx context.Context, conversation *domainchat.Conversation, user domainchat.UserID) (ConversationView, error) {
	seen, err := s.Watermarks.Get(ctx, user, conversation.ID)
	if err != nil {
		return ConversationView{}, fmt.Errorf("get watermark: %w", err)
	}
	return ConversationView{
		Conversation: conversation,
		Peer:         conversation.Peer(user),
		Unread:       domainchat.UnreadSince(conversation.LastMessageAt, seen),
	}, nil
}

// SeenWatermarks loads the user's durable watermarks, keyed by
// conversation, for session-state reconciliation.
func (s *Service) SeenWatermarks(ctx context.Context, user domainchat.UserID) (map[domainchat.ConversationID]time.Time, error) {
	return s.Watermarks.ListForUser(ctx, user)
}

// ByID loads a conversation, for participant checks at the HTTP boundary.
func (s *Service) ByID(ctx context.Context, conversationID domainchat.ConversationID) (*domainchat.Conversation, error) {
	return s.Conversations.ByID(ctx, conversationID)
}

// MarkSeen sets the caller's watermark to now, clearing the unread flag
// for every session of that user at once.
func (s *Service) MarkSeen(ctx context.Context, conversationID domainchat.ConversationID, user domainchat.UserID) (time.Time, error) {
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		return time.Time{}, err
	}
	if !conversation.HasParticipant(user) {
		return time.Time{}, domainchat.ErrNotParticipant
	}
	at := s.now()
	if err := s.Watermarks.Set(ctx, user, conversationID, at); err != nil {
		return time.Time{}, fmt.Errorf("set watermark: %w", err)
	}
	return at, nil
}

// MarkAllSeen advances the caller's watermark on every visible
// conversation.
func (s *Service) MarkAllSeen(ctx context.Context, user domainchat.UserID) (time.Time, error) {
	conversations, err := s.Conversations.ListForUser(ctx, user)
	if err != nil {
		return time.Time{}, fmt.Errorf("list conversations: %w", err)
	}
	at := s.now()
	for _, conversation := range conversations {
		if err := s.Watermarks.Set(ctx, user, conversation.ID, at); err != nil {
			return time.Time{}, fmt.Errorf("set watermark: %w", err)
		}
	}
	return at, nil
}

// Hide removes the conversation from the caller's listing. The peer's
// copy is not touched.
func (s *Service) Hide(ctx context.Context, conversationID domainchat.ConversationID, user domainchat.UserID) error {
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(user) {
		return domainchat.ErrNotParticipant
	}
	return s.Conversations.Hide(ctx, conversationID, user)
}
