package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// MessageRepository persists the append-only log. It also owns the
// parent conversation's last-message cache because the two are written
// on the same append path.
type MessageRepository struct {
	messages      *mongo.Collection
	conversations *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		messages:      db.Collection(messagesCollection),
		conversations: db.Collection(conversationsCollection),
	}
}

// Append claims the next per-conversation sequence number and refreshes
// the parent's denormalized cache in one conversation update, then
// inserts the message row. The caller publishes only after this returns,
// so subscribers never see a message id a log read cannot find.
//
// The seq has to be claimed before the insert can carry it, so a failed
// insert leaves the cache one message ahead of the log until the next
// append overwrites it. Readers treat the log, not the cache, as truth.
func (r *MessageRepository) Append(ctx context.Context, conversationID domainchat.ConversationID, sender domainchat.UserID, text string, at time.Time) (*domainchat.Message, error) {
	at = at.UTC()
	update := bson.M{
		"$inc": bson.M{"message_seq": 1},
		"$set": bson.M{
			"last_message_text": domainchat.Snippet(text),
			"last_message_at":   at.UnixMilli(),
			"hidden_for":        []string{},
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var parent conversationDocument
	if err := r.conversations.FindOneAndUpdate(ctx, bson.M{"_id": string(conversationID)}, update, opts).Decode(&parent); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}

	doc := messageDocument{
		ID:             uuid.NewString(),
		ConversationID: string(conversationID),
		SenderID:       string(sender),
		Text:           text,
		CreatedAt:      at.UnixMilli(),
		Seq:            parent.MessageSeq,
	}
	if _, err := r.messages.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MessageRepository) ListForConversation(ctx context.Context, conversationID domainchat.ConversationID, limit int, afterSeq int64) ([]domainchat.Message, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	filter := bson.M{
		"conversation_id": string(conversationID),
		"seq":             bson.M{"$gt": afterSeq},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: 1}}).
		SetLimit(int64(limit) + 1)
	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	page := make([]domainchat.Message, 0, limit)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		page = append(page, *doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	var next int64
	if len(page) > limit {
		page = page[:limit]
		next = page[len(page)-1].Seq
	}
	return page, next, nil
}

type messageDocument struct {
	ID             string `bson:"_id"`
	ConversationID string `bson:"conversation_id"`
	SenderID       string `bson:"sender_id"`
	Text           string `bson:"text"`
	CreatedAt      int64  `bson:"created_at"`
	Seq            int64  `bson:"seq"`
}

func (d messageDocument) toDomain() *domainchat.Message {
	return &domainchat.Message{
		ID:             domainchat.MessageID(d.ID),
		ConversationID: domainchat.ConversationID(d.ConversationID),
		SenderID:       domainchat.UserID(d.SenderID),
		Text:           d.Text,
		CreatedAt:      timestampToTime(d.CreatedAt),
		Seq:            d.Seq,
	}
}
