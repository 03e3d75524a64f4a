package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// Hub groups live sessions into per-conversation channels and fans newly
// appended messages out to every current subscriber. Membership is an
// append/remove-only set with no ordering requirement; delivery order to
// one subscriber follows publish order for that conversation.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	rooms        map[domainchat.ConversationID]map[string]*Session
	sessionRooms map[string]map[domainchat.ConversationID]struct{}
	userSessions map[domainchat.UserID]map[string]*Session
	logger       *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions:     make(map[string]*Session),
		rooms:        make(map[domainchat.ConversationID]map[string]*Session),
		sessionRooms: make(map[string]map[domainchat.ConversationID]struct{}),
		userSessions: make(map[domainchat.UserID]map[string]*Session),
		logger:       logger,
	}
}

// Attach registers a session and starts its write loop.
func (h *Hub) Attach(session *Session) {
	h.mu.Lock()
	h.sessions[session.ID] = session
	h.sessionRooms[session.ID] = make(map[domainchat.ConversationID]struct{})
	byUser := h.userSessions[session.UserID]
	if byUser == nil {
		byUser = make(map[string]*Session)
		h.userSessions[session.UserID] = byUser
	}
	byUser[session.ID] = session
	h.mu.Unlock()

	session.Start()
}

// Detach drops the session from every channel and forgets it. Called on
// disconnect; missing the explicit leave is not an error.
func (h *Hub) Detach(session *Session) {
	h.mu.Lock()
	for conversationID := range h.sessionRooms[session.ID] {
		h.leaveLocked(conversationID, session.ID)
	}
	delete(h.sessionRooms, session.ID)
	delete(h.sessions, session.ID)
	if byUser, ok := h.userSessions[session.UserID]; ok {
		delete(byUser, session.ID)
		if len(byUser) == 0 {
			delete(h.userSessions, session.UserID)
		}
	}
	h.mu.Unlock()
}

// Join subscribes the session to the conversation's channel.
func (h *Hub) Join(sessionID string, conversationID domainchat.ConversationID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Session)
		h.rooms[conversationID] = room
	}
	room[sessionID] = session
	h.sessionRooms[sessionID][conversationID] = struct{}{}
}

// Leave unsubscribes. Safe to call repeatedly and for channels never
// joined.
func (h *Hub) Leave(sessionID string, conversationID domainchat.ConversationID) {
	h.mu.Lock()
	h.leaveLocked(conversationID, sessionID)
	h.mu.Unlock()
}

// Publish delivers the message to every current subscriber of its
// conversation with no exclusions, the sender's other sessions included.
// Implements the chat service's Publisher port.
func (h *Hub) Publish(ctx context.Context, message domainchat.Message) error {
	payload, err := json.Marshal(NewMessageEvent(message))
	if err != nil {
		return err
	}

	h.mu.RLock()
	room := h.rooms[message.ConversationID]
	subscribers := make([]*Session, 0, len(room))
	for _, session := range room {
		subscribers = append(subscribers, session)
	}
	h.mu.RUnlock()

	for _, session := range subscribers {
		if err := session.Send(payload); err != nil && h.logger != nil {
			h.logger.Warn("fan-out delivery dropped", "error", err, "conversation_id", message.ConversationID, "session_id", session.ID, "user_id", session.UserID)
		}
		if session.Observer != nil {
			session.Observer(message)
		}
	}
	return nil
}

// NotifyUnread pings the user's sessions that are not subscribed to the
// conversation's channel. Subscribed sessions receive the full message
// via Publish instead. Implements the chat service's Notifier port.
func (h *Hub) NotifyUnread(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID) error {
	h.mu.RLock()
	room := h.rooms[conversationID]
	targets := make([]*Session, 0, len(h.userSessions[user]))
	for id, session := range h.userSessions[user] {
		if _, subscribed := room[id]; subscribed {
			continue
		}
		targets = append(targets, session)
	}
	h.mu.RUnlock()

	for _, session := range targets {
		if err := session.SendEvent(NewUnreadEvent(conversationID)); err != nil && h.logger != nil {
			h.logger.Warn("unread signal dropped", "error", err, "conversation_id", conversationID, "session_id", session.ID)
		}
	}
	return nil
}

// Close terminates every session, for server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, session)
	}
	h.sessions = make(map[string]*Session)
	h.rooms = make(map[domainchat.ConversationID]map[string]*Session)
	h.sessionRooms = make(map[string]map[domainchat.ConversationID]struct{})
	h.userSessions = make(map[domainchat.UserID]map[string]*Session)
	h.mu.Unlock()

	for _, session := range sessions {
		session.Close(1001, "server shutting down")
	}
}

func (h *Hub) leaveLocked(conversationID domainchat.ConversationID, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
	}
}
