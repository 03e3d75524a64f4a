package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

// WatermarkRepository stores last-seen watermarks durably so unread
// state reconciles across a user's devices.
type WatermarkRepository struct {
	col *mongo.Collection
}

func NewWatermarkRepository(db *mongo.Database) *WatermarkRepository {
	return &WatermarkRepository{col: db.Collection(watermarksCollection)}
}

// Set advances the watermark via $max, so concurrent sessions can only
// move it forward.
func (r *WatermarkRepository) Set(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID, at time.Time) error {
	filter := bson.M{"user_id": string(user), "conversation_id": string(conversationID)}
	update := bson.M{"$max": bson.M{"seen_at": at.UTC().UnixMilli()}}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *WatermarkRepository) Get(ctx context.Context, user domainchat.UserID, conversationID domainchat.ConversationID) (time.Time, error) {
	var doc watermarkDocument
	err := r.col.FindOne(ctx, bson.M{"user_id": string(user), "conversation_id": string(conversationID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return timestampToTime(doc.SeenAt), nil
}

func (r *WatermarkRepository) ListForUser(ctx context.Context, user domainchat.UserID) (map[domainchat.ConversationID]time.Time, error) {
	cursor, err := r.col.Find(ctx, bson.M{"user_id": string(user)})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := make(map[domainchat.ConversationID]time.Time)
	for cursor.Next(ctx) {
		var doc watermarkDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result[domainchat.ConversationID(doc.ConversationID)] = timestampToTime(doc.SeenAt)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type watermarkDocument struct {
	UserID         string `bson:"user_id"`
	ConversationID string `bson:"conversation_id"`
	SeenAt         int64  `bson:"seen_at"`
}
