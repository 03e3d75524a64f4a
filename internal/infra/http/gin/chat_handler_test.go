package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"

	appchat "github.com/dinilH/SkillConnect/internal/app/chat"
	"github.com/dinilH/SkillConnect/internal/app/dto"
	"github.com/dinilH/SkillConnect/internal/infra/storage/memory"
)

func newChatService() *appchat.Service {
	conversations := memory.NewConversationRepository()
	return &appchat.Service{
		Conversations: conversations,
		Messages:      memory.NewMessageRepository(conversations),
		Watermarks:    memory.NewWatermarkRepository(),
	}
}

func postJSON(t *testing.T, caller, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Set(principalContextKey, principal{ID: caller})
	return c, recorder
}

func TestCreateConversationReportsUnread(t *testing.T) {
	service := newChatService()
	handler := ChatHandler{Chat: service}
	ctx := context.Background()

	// The thread already exists with a message the caller has not seen.
	conversation, err := service.GetOrCreate(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := service.Append(ctx, conversation.ID, "bob", "hello"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	c, recorder := postJSON(t, "alice", "/api/v1/conversations", `{"participant_b":"bob"}`)
	handler.CreateConversation(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body)
	}
	var got dto.Conversation
	if err := json.Unmarshal(recorder.Body.Bytes(), &got); err != nil {
		t.Fatalf("undecodable body: %v", err)
	}
	if got.ID != string(conversation.ID) || got.Peer != "bob" {
		t.Fatalf("unexpected conversation %+v", got)
	}
	if !got.Unread {
		t.Fatalf("existing unseen activity must surface on get-or-create")
	}

	// Once read, the same call reports the thread as seen.
	if _, err := service.MarkSeen(ctx, conversation.ID, "alice"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	c, recorder = postJSON(t, "alice", "/api/v1/conversations", `{"participant_b":"bob"}`)
	handler.CreateConversation(c)
	if err := json.Unmarshal(recorder.Body.Bytes(), &got); err != nil {
		t.Fatalf("undecodable body: %v", err)
	}
	if got.Unread {
		t.Fatalf("seen thread reported unread")
	}
}

func TestCreateConversationRequiresMembership(t *testing.T) {
	handler := ChatHandler{Chat: newChatService()}
	c, recorder := postJSON(t, "mallory", "/api/v1/conversations", `{"participant_a":"alice","participant_b":"bob"}`)
	handler.CreateConversation(c)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", recorder.Code)
	}
}
