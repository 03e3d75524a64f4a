package chat

import (
	"sort"
	"sync"
	"time"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// UnreadState is the optimistic unread layer kept by one connected
// session. Broker events flip flags immediately; Reconcile overwrites
// the local layer with the durable watermarks, which win on conflict.
type UnreadState struct {
	mu          sync.Mutex
	user        domainchat.UserID
	viewing     domainchat.ConversationID
	lastMessage map[domainchat.ConversationID]time.Time
	seen        map[domainchat.ConversationID]time.Time
}

func NewUnreadState(user domainchat.UserID) *UnreadState {
	return &UnreadState{
		user:        user,
		lastMessage: make(map[domainchat.ConversationID]time.Time),
		seen:        make(map[domainchat.ConversationID]time.Time),
	}
}

// View marks the conversation as the one currently on screen and
// advances its local watermark, clearing any unread flag.
func (u *UnreadState) View(conversationID domainchat.ConversationID, at time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.viewing = conversationID
	u.advanceSeen(conversationID, at)
}

// StopViewing clears the on-screen conversation if it still matches.
func (u *UnreadState) StopViewing(conversationID domainchat.ConversationID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.viewing == conversationID {
		u.viewing = ""
	}
}

// OnMessage records broker delivery of a message. The flag stays clear
// when the user is the sender or is actively viewing the conversation;
// otherwise it flips on immediately.
func (u *UnreadState) OnMessage(message domainchat.Message) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if message.CreatedAt.After(u.lastMessage[message.ConversationID]) {
		u.lastMessage[message.ConversationID] = message.CreatedAt
	}
	if message.SenderID == u.user || u.viewing == message.ConversationID {
		u.advanceSeen(message.ConversationID, message.CreatedAt)
	}
}

// OnSeen applies a watermark advance observed elsewhere, for example a
// mark-read confirmed by the server or made in another session.
func (u *UnreadState) OnSeen(conversationID domainchat.ConversationID, at time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.advanceSeen(conversationID, at)
}

// Unread reports the optimistic flag for one conversation.
func (u *UnreadState) Unread(conversationID domainchat.ConversationID) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return domainchat.UnreadSince(u.lastMessage[conversationID], u.seen[conversationID])
}

// UnreadConversations lists every conversation currently flagged
// unread, in stable order, for answering a client sync request.
func (u *UnreadState) UnreadConversations() []domainchat.ConversationID {
	u.mu.Lock()
	defer u.mu.Unlock()
	ids := make([]domainchat.ConversationID, 0)
	for id, last := range u.lastMessage {
		if domainchat.UnreadSince(last, u.seen[id]) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reconcile replaces the local layer with the server state. The durable
// watermark wins on conflict in either direction.
func (u *UnreadState) Reconcile(views []ConversationView, watermarks map[domainchat.ConversationID]time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.lastMessage = make(map[domainchat.ConversationID]time.Time, len(views))
	u.seen = make(map[domainchat.ConversationID]time.Time, len(watermarks))
	for _, view := range views {
		if !view.Conversation.LastMessageAt.IsZero() {
			u.lastMessage[view.Conversation.ID] = view.Conversation.LastMessageAt
		}
	}
	for id, at := range watermarks {
		u.seen[id] = at
	}
}

func (u *UnreadState) advanceSeen(conversationID domainchat.ConversationID, at time.Time) {
	if at.After(u.seen[conversationID]) {
		u.seen[conversationID] = at
	}
}
