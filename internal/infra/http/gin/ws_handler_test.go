package ginserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	appchat "github.com/dinilH/SkillConnect/internal/app/chat"
	apppresence "github.com/dinilH/SkillConnect/internal/app/presence"
	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
	"github.com/dinilH/SkillConnect/internal/infra/obs"
	"github.com/dinilH/SkillConnect/internal/infra/storage/memory"
	"github.com/dinilH/SkillConnect/internal/realtime"
)

type fakeWSConn struct {
	frames chan []byte
}

func newFakeWSConn() *fakeWSConn {
	return &fakeWSConn{frames: make(chan []byte, 16)}
}

func (c *fakeWSConn) ReadMessage() (int, []byte, error) {
	select {} // dispatch tests feed events directly
}

func (c *fakeWSConn) WriteMessage(messageType int, data []byte) error {
	if messageType == websocket.TextMessage {
		c.frames <- data
	}
	return nil
}

func (c *fakeWSConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (c *fakeWSConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeWSConn) Close() error { return nil }

func newWSFixture() (*WSHandler, *appchat.Service, *realtime.Hub) {
	conversations := memory.NewConversationRepository()
	hub := realtime.NewHub(nil)
	service := &appchat.Service{
		Conversations: conversations,
		Messages:      memory.NewMessageRepository(conversations),
		Watermarks:    memory.NewWatermarkRepository(),
		Publisher:     hub,
		Notifier:      hub,
		Logger:        obs.NewLoggerAt(io.Discard, slog.LevelDebug, false),
	}
	tracker := &apppresence.Tracker{
		Repo:         memory.NewPresenceRepository(),
		IdleTimeout:  5 * time.Minute,
		ActiveWindow: 30 * time.Minute,
	}
	handler := NewWSHandler(service, tracker, hub, 16, 5*time.Minute, service.Logger)
	return handler, service, hub
}

func wsTestContext(t *testing.T) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)
	return c
}

func attachWSSession(hub *realtime.Hub, user domainchat.UserID) (*realtime.Session, *appchat.UnreadState, *fakeWSConn) {
	conn := newFakeWSConn()
	session := realtime.NewSession(user, conn, 16)
	unread := appchat.NewUnreadState(user)
	session.Observer = unread.OnMessage
	hub.Attach(session)
	return session, unread, conn
}

func nextWSEvent(t *testing.T, conn *fakeWSConn) realtime.ServerEvent {
	t.Helper()
	select {
	case payload := <-conn.frames:
		var event realtime.ServerEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("undecodable frame: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame delivered")
		return realtime.ServerEvent{}
	}
}

func noWSEvent(t *testing.T, conn *fakeWSConn) {
	t.Helper()
	select {
	case payload := <-conn.frames:
		t.Fatalf("unexpected frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGreetAdvertisesHeartbeat(t *testing.T) {
	handler, _, hub := newWSFixture()
	session, _, conn := attachWSSession(hub, "alice")

	handler.greet(session)

	event := nextWSEvent(t, conn)
	if event.Type != realtime.EventHello || event.HeartbeatSeconds != 300 {
		t.Fatalf("hello frame = %+v, want heartbeat_seconds 300", event)
	}
}

func TestSyncReportsUnreadThreads(t *testing.T) {
	handler, service, hub := newWSFixture()
	ctx := context.Background()
	c := wsTestContext(t)

	conversation, err := service.GetOrCreate(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := service.Append(ctx, conversation.ID, "bob", "hello"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	session, unread, conn := attachWSSession(hub, "alice")

	handler.dispatch(c, session, unread, realtime.ClientEvent{Type: realtime.EventSync})
	event := nextWSEvent(t, conn)
	if event.Type != realtime.EventUnread || event.ConversationID != string(conversation.ID) {
		t.Fatalf("sync reply = %+v, want unread frame for %s", event, conversation.ID)
	}

	// Opening the thread clears the flag; the next sync is silent.
	handler.dispatch(c, session, unread, realtime.ClientEvent{Type: realtime.EventJoin, ConversationID: string(conversation.ID)})
	handler.dispatch(c, session, unread, realtime.ClientEvent{Type: realtime.EventSync})
	noWSEvent(t, conn)
}

func TestLeavePersistsSeenState(t *testing.T) {
	handler, service, hub := newWSFixture()
	ctx := context.Background()
	c := wsTestContext(t)

	conversation, err := service.GetOrCreate(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	session, unread, conn := attachWSSession(hub, "alice")
	handler.dispatch(c, session, unread, realtime.ClientEvent{Type: realtime.EventJoin, ConversationID: string(conversation.ID)})

	// A message lands while the thread is on screen; the durable
	// watermark still dates from the join.
	time.Sleep(2 * time.Millisecond)
	if _, err := service.Append(ctx, conversation.ID, "bob", "while viewing"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := nextWSEvent(t, conn); got.Type != realtime.EventMessage {
		t.Fatalf("expected message frame, got %+v", got)
	}

	handler.dispatch(c, session, unread, realtime.ClientEvent{Type: realtime.EventLeave, ConversationID: string(conversation.ID)})

	views, err := service.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(views) != 1 || views[0].Unread {
		t.Fatalf("leaving the thread should persist the seen state, got %+v", views)
	}
}

func TestJoinRejectsOutsider(t *testing.T) {
	handler, service, hub := newWSFixture()
	ctx := context.Background()
	c := wsTestContext(t)

	conversation, err := service.GetOrCreate(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	session, unread, conn := attachWSSession(hub, "mallory")
	handler.dispatch(c, session, unread, realtime.ClientEvent{Type: realtime.EventJoin, ConversationID: string(conversation.ID)})

	event := nextWSEvent(t, conn)
	if event.Type != realtime.EventError {
		t.Fatalf("outsider join should be rejected, got %+v", event)
	}
}
