package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var errSessionClosed = errors.New("realtime: session closed")

// Conn is the subset of *websocket.Conn the session needs. Tests supply
// a fake.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is the per-connection handle the hub fans out to. One user may
// hold several live sessions (multiple tabs or devices); each gets its
// own Session. Outbound writes go through a buffered channel so a slow
// client never blocks the publisher.
type Session struct {
	ID     string
	UserID domainchat.UserID

	// Observer, when set, sees every message the hub hands this session,
	// letting the connection handler track unread state server-side.
	Observer func(domainchat.Message)

	conn   Conn
	send   chan []byte
	once   sync.Once
	closed chan struct{}
}

func NewSession(user domainchat.UserID, conn Conn, buffer int) *Session {
	if buffer <= 0 {
		buffer = 128
	}
	return &Session{
		ID:     uuid.NewString(),
		UserID: user,
		conn:   conn,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

// Start launches the write loop. Call exactly once.
func (s *Session) Start() {
	go s.writeLoop()
}

// Send enqueues a payload. Delivery is at-most-once: when the buffer is
// full the frame is dropped and the client catches up on its next fetch.
func (s *Session) Send(payload []byte) error {
	select {
	case <-s.closed:
		return errSessionClosed
	case s.send <- payload:
		return nil
	default:
		return errors.New("realtime: send buffer full, frame dropped")
	}
}

// SendEvent marshals and enqueues a server event.
func (s *Session) SendEvent(event ServerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Send(payload)
}

// ReadEvent blocks for the next inbound client event.
func (s *Session) ReadEvent() (ClientEvent, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return ClientEvent{}, err
	}
	var event ClientEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ClientEvent{}, err
	}
	return event, nil
}

// Close terminates the session and stops the write loop. Safe to call
// more than once.
func (s *Session) Close(code int, reason string) {
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = s.conn.Close()
	})
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) write(messageType int, payload []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, payload)
}
