package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	appchat "github.com/dinilH/SkillConnect/internal/app/chat"
	"github.com/dinilH/SkillConnect/internal/app/dto"
	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// ChatHTTP exposes conversation and message endpoints.
type ChatHTTP interface {
	ListMyConversations(c *gin.Context)
	CreateConversation(c *gin.Context)
	DeleteConversation(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
}

// ChatHandler bridges HTTP with the chat service.
type ChatHandler struct {
	Chat   *appchat.Service
	Logger *slog.Logger
}

// ListMyConversations returns the caller's conversations, newest
// activity first, annotated with peer and unread flag.
func (h ChatHandler) ListMyConversations(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	views, err := h.Chat.ListForUser(c.Request.Context(), domainchat.UserID(p.ID))
	if err != nil {
		h.respondChatError(c, err, "list conversations", "user_id", p.ID)
		return
	}
	collection := dto.ConversationList{Items: make([]dto.Conversation, 0, len(views))}
	for _, view := range views {
		collection.Items = append(collection.Items, toConversationDTO(view))
	}
	c.JSON(http.StatusOK, collection)
}

// CreateConversation gets or creates the thread between the caller and
// a peer. Idempotent; both participants resolve to the same id.
func (h ChatHandler) CreateConversation(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		ParticipantA string `json:"participant_a"`
		ParticipantB string `json:"participant_b"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	a := strings.TrimSpace(req.ParticipantA)
	b := strings.TrimSpace(req.ParticipantB)
	if a == "" {
		a = p.ID
	}
	if a != p.ID && b != p.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "caller must be a participant"})
		return
	}
	conversation, err := h.Chat.GetOrCreate(c.Request.Context(), domainchat.UserID(a), domainchat.UserID(b))
	if err != nil {
		h.respondChatError(c, err, "create conversation", "user_id", p.ID)
		return
	}
	view, err := h.Chat.ViewForUser(c.Request.Context(), conversation, domainchat.UserID(p.ID))
	if err != nil {
		h.respondChatError(c, err, "annotate conversation", "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, toConversationDTO(view))
}

// DeleteConversation hides the thread for the caller only.
func (h ChatHandler) DeleteConversation(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID := strings.TrimSpace(c.Param("id"))
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}
	if err := h.Chat.Hide(c.Request.Context(), domainchat.ConversationID(conversationID), domainchat.UserID(p.ID)); err != nil {
		h.respondChatError(c, err, "hide conversation", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMessages pages a conversation oldest-first.
func (h ChatHandler) ListMessages(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID := strings.TrimSpace(c.Param("id"))
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}
	conversation, err := h.Chat.ByID(c.Request.Context(), domainchat.ConversationID(conversationID))
	if err != nil {
		h.respondChatError(c, err, "load conversation", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	if !conversation.HasParticipant(domainchat.UserID(p.ID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}
	limit := parsePositiveIntStrict(c.Query("limit"), 50)
	cursor, _ := strconv.ParseInt(c.Query("cursor"), 10, 64)

	messages, next, err := h.Chat.ListMessages(c.Request.Context(), conversation.ID, limit, cursor)
	if err != nil {
		h.respondChatError(c, err, "list messages", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	collection := dto.ChatMessageList{
		Items:      make([]dto.ChatMessage, 0, len(messages)),
		NextCursor: next,
	}
	for _, message := range messages {
		collection.Items = append(collection.Items, toMessageDTO(message))
	}
	c.JSON(http.StatusOK, collection)
}

// SendMessage appends to the log. The response reflects the durable
// write; realtime delivery is best-effort on top.
func (h ChatHandler) SendMessage(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID := strings.TrimSpace(c.Param("id"))
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	message, err := h.Chat.Append(c.Request.Context(), domainchat.ConversationID(conversationID), domainchat.UserID(p.ID), req.Text)
	if err != nil {
		h.respondChatError(c, err, "send message", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	c.JSON(http.StatusCreated, toMessageDTO(*message))
}

// MarkRead sets the caller's watermark to now.
func (h ChatHandler) MarkRead(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID := strings.TrimSpace(c.Param("id"))
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}
	at, err := h.Chat.MarkSeen(c.Request.Context(), domainchat.ConversationID(conversationID), domainchat.UserID(p.ID))
	if err != nil {
		h.respondChatError(c, err, "mark read", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read_at": at})
}

// MarkAllRead advances the caller's watermark on every conversation.
func (h ChatHandler) MarkAllRead(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	at, err := h.Chat.MarkAllSeen(c.Request.Context(), domainchat.UserID(p.ID))
	if err != nil {
		h.respondChatError(c, err, "mark all read", "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read_at": at})
}

func (h ChatHandler) respondChatError(c *gin.Context, err error, action string, attrs ...any) {
	switch {
	case errors.Is(err, domainchat.ErrEmptyText),
		errors.Is(err, domainchat.ErrParticipantRequired),
		errors.Is(err, domainchat.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainchat.ErrConversationNotFound),
		errors.Is(err, domainchat.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domainchat.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
	default:
		if h.Logger != nil {
			h.Logger.Error("chat call failed", append([]any{"action", action, "error", err}, attrs...)...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toConversationDTO(view appchat.ConversationView) dto.Conversation {
	conversation := view.Conversation
	item := dto.Conversation{
		ID: string(conversation.ID),
		Participants: []string{
			string(conversation.Participants[0]),
			string(conversation.Participants[1]),
		},
		Peer:            string(view.Peer),
		CreatedAt:       conversation.CreatedAt,
		LastMessageText: conversation.LastMessageText,
		Unread:          view.Unread,
	}
	if !conversation.LastMessageAt.IsZero() {
		at := conversation.LastMessageAt
		item.LastMessageAt = &at
	}
	return item
}

func toMessageDTO(message domainchat.Message) dto.ChatMessage {
	return dto.ChatMessage{
		ID:             string(message.ID),
		ConversationID: string(message.ConversationID),
		SenderID:       string(message.SenderID),
		Text:           message.Text,
		CreatedAt:      message.CreatedAt,
		Seq:            message.Seq,
	}
}

func parsePositiveIntStrict(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return def
	}
	return value
}

var _ ChatHTTP = (*ChatHandler)(nil)
