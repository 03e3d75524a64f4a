package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// messageEvent is the wire form of a persisted message on the broker
// topic.
type messageEvent struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	Seq            int64     `json:"seq"`
}

// MessagePublisher implements the chat service's Publisher port on top
// of Kafka, so fan-out reaches subscribers connected to other instances.
type MessagePublisher struct {
	Producer *Producer
	Topic    string
}

func (p MessagePublisher) Publish(ctx context.Context, message domainchat.Message) error {
	payload, err := json.Marshal(messageEvent{
		ID:             string(message.ID),
		ConversationID: string(message.ConversationID),
		SenderID:       string(message.SenderID),
		Text:           message.Text,
		CreatedAt:      message.CreatedAt,
		Seq:            message.Seq,
	})
	if err != nil {
		return err
	}
	return p.Producer.Publish(ctx, p.Topic, string(message.ConversationID), payload)
}

// LocalFanout is the hub-side delivery target the consumer feeds.
type LocalFanout interface {
	Publish(ctx context.Context, message domainchat.Message) error
}

// FanoutHandler decodes broker records and hands them to the local hub.
type FanoutHandler struct {
	Hub    LocalFanout
	Logger *slog.Logger
}

func (h FanoutHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event messageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("undecodable broker record skipped", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
		return nil
	}
	return h.Hub.Publish(ctx, domainchat.Message{
		ID:             domainchat.MessageID(event.ID),
		ConversationID: domainchat.ConversationID(event.ConversationID),
		SenderID:       domainchat.UserID(event.SenderID),
		Text:           event.Text,
		CreatedAt:      event.CreatedAt,
		Seq:            event.Seq,
	})
}
