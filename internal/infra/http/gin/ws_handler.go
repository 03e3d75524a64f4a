package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	appchat "github.com/dinilH/SkillConnect/internal/app/chat"
	apppresence "github.com/dinilH/SkillConnect/internal/app/presence"
	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
	domainpresence "github.com/dinilH/SkillConnect/internal/domain/presence"
	"github.com/dinilH/SkillConnect/internal/realtime"
)

// WSHandler upgrades /ws and pumps client events into the chat service,
// the presence tracker and the hub.
type WSHandler struct {
	Chat       *appchat.Service
	Tracker    *apppresence.Tracker
	Hub        *realtime.Hub
	SendBuffer int
	// HeartbeatInterval is the cadence advertised to clients in the
	// opening hello frame.
	HeartbeatInterval time.Duration
	Logger            *slog.Logger

	upgrader websocket.Upgrader
}

func NewWSHandler(chat *appchat.Service, tracker *apppresence.Tracker, hub *realtime.Hub, sendBuffer int, heartbeat time.Duration, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		Chat:              chat,
		Tracker:           tracker,
		Hub:               hub,
		SendBuffer:        sendBuffer,
		HeartbeatInterval: heartbeat,
		Logger:            logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced at the gateway in front of us.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle serves one websocket connection for its full lifetime.
func (h *WSHandler) Handle(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", "error", err, "user_id", p.ID)
		}
		return
	}

	ctx := c.Request.Context()
	user := domainchat.UserID(p.ID)
	session := realtime.NewSession(user, conn, h.SendBuffer)
	unread := appchat.NewUnreadState(user)
	session.Observer = unread.OnMessage

	h.Hub.Attach(session)
	defer func() {
		h.Hub.Detach(session)
		session.Close(websocket.CloseNormalClosure, "")
	}()

	// Connecting counts as activity. Disconnecting does not flip the user
	// offline; the idle sweep handles the silent-drop case.
	if err := h.Tracker.Heartbeat(ctx, domainpresence.UserID(p.ID)); err != nil && h.Logger != nil {
		h.Logger.Warn("connect heartbeat failed", "error", err, "user_id", p.ID)
	}
	h.reconcile(c, session, unread)
	h.greet(session)

	if h.Logger != nil {
		h.Logger.Info("websocket session opened", "session_id", session.ID, "user_id", p.ID)
	}

	for {
		event, err := session.ReadEvent()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && h.Logger != nil {
				h.Logger.Warn("websocket read failed", "error", err, "session_id", session.ID, "user_id", p.ID)
			}
			return
		}
		h.dispatch(c, session, unread, event)
	}
}

func (h *WSHandler) dispatch(c *gin.Context, session *realtime.Session, unread *appchat.UnreadState, event realtime.ClientEvent) {
	ctx := c.Request.Context()
	user := session.UserID

	switch event.Type {
	case realtime.EventHeartbeat:
		if err := h.Tracker.Heartbeat(ctx, domainpresence.UserID(user)); err != nil && h.Logger != nil {
			h.Logger.Warn("heartbeat failed", "error", err, "user_id", user)
		}

	case realtime.EventJoin:
		conversationID := domainchat.ConversationID(event.ConversationID)
		conversation, err := h.Chat.ByID(ctx, conversationID)
		if err != nil {
			h.sendError(session, event.ConversationID, "conversation not found")
			return
		}
		if !conversation.HasParticipant(user) {
			h.sendError(session, event.ConversationID, "not a chat participant")
			return
		}
		h.Hub.Join(session.ID, conversationID)
		// Opening a thread marks it seen for every session of the user.
		at, err := h.Chat.MarkSeen(ctx, conversationID, user)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("join mark-seen failed", "error", err, "conversation_id", conversationID, "user_id", user)
			}
			return
		}
		unread.View(conversationID, at)

	case realtime.EventLeave:
		conversationID := domainchat.ConversationID(event.ConversationID)
		h.Hub.Leave(session.ID, conversationID)
		unread.StopViewing(conversationID)
		// Everything delivered while the thread was on screen has been
		// seen; capture that durably on the way out.
		if at, err := h.Chat.MarkSeen(ctx, conversationID, user); err == nil {
			unread.OnSeen(conversationID, at)
		} else if h.Logger != nil {
			h.Logger.Debug("leave mark-seen skipped", "error", err, "conversation_id", conversationID, "user_id", user)
		}

	case realtime.EventSync:
		h.reconcile(c, session, unread)
		for _, conversationID := range unread.UnreadConversations() {
			if err := session.SendEvent(realtime.NewUnreadEvent(conversationID)); err != nil && h.Logger != nil {
				h.Logger.Warn("sync unread frame dropped", "error", err, "session_id", session.ID, "conversation_id", conversationID)
			}
		}

	case realtime.EventSend:
		if _, err := h.Chat.Append(ctx, domainchat.ConversationID(event.ConversationID), user, event.Text); err != nil {
			h.sendError(session, event.ConversationID, err.Error())
		}

	default:
		h.sendError(session, event.ConversationID, "unknown event type")
	}
}

// reconcile seeds the session's optimistic unread layer from the durable
// state so it starts aligned with what a fresh listing would show.
func (h *WSHandler) reconcile(c *gin.Context, session *realtime.Session, unread *appchat.UnreadState) {
	ctx := c.Request.Context()
	views, err := h.Chat.ListForUser(ctx, session.UserID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("unread reconcile skipped", "error", err, "user_id", session.UserID)
		}
		return
	}
	watermarks, err := h.Chat.SeenWatermarks(ctx, session.UserID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("unread reconcile skipped", "error", err, "user_id", session.UserID)
		}
		return
	}
	unread.Reconcile(views, watermarks)
}

// greet opens the session with the heartbeat cadence the server expects
// clients to keep.
func (h *WSHandler) greet(session *realtime.Session) {
	event := realtime.ServerEvent{
		Type:             realtime.EventHello,
		HeartbeatSeconds: int(h.HeartbeatInterval / time.Second),
	}
	if err := session.SendEvent(event); err != nil && h.Logger != nil {
		h.Logger.Warn("hello frame dropped", "error", err, "session_id", session.ID)
	}
}

func (h *WSHandler) sendError(session *realtime.Session, conversationID, reason string) {
	event := realtime.ServerEvent{Type: realtime.EventError, ConversationID: conversationID, Reason: reason}
	if err := session.SendEvent(event); err != nil && h.Logger != nil {
		h.Logger.Warn("error frame dropped", "error", err, "session_id", session.ID)
	}
}
