package mongo

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainchat "github.com/dinilH/SkillConnect/internal/domain/chat"
)

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{col: db.Collection(conversationsCollection)}
}

// GetOrCreate inserts a conversation for the pair and, when the unique
// pair-key index rejects a concurrent duplicate, falls back to reading
// the winner's row. Both racing callers observe the same id.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, pair [2]domainchat.UserID, now time.Time) (*domainchat.Conversation, bool, error) {
	key := domainchat.Key(pair)

	existing, err := r.byPairKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domainchat.ErrConversationNotFound) {
		return nil, false, err
	}

	doc := conversationDocument{
		ID:           uuid.NewString(),
		PairKey:      string(key),
		Participants: []string{string(pair[0]), string(pair[1])},
		CreatedAt:    now.UTC().UnixMilli(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			winner, readErr := r.byPairKey(ctx, key)
			if readErr != nil {
				return nil, false, readErr
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return doc.toDomain(), true, nil
}

func (r *ConversationRepository) ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, user domainchat.UserID) ([]*domainchat.Conversation, error) {
	filter := bson.M{
		"participants": string(user),
		"hidden_for":   bson.M{"$ne": string(user)},
	}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	conversations := make([]*domainchat.Conversation, 0)
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		conversations = append(conversations, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastActivity().After(conversations[j].LastActivity())
	})
	return conversations, nil
}

func (r *ConversationRepository) Hide(ctx context.Context, id domainchat.ConversationID, user domainchat.UserID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": string(id)},
		bson.M{"$addToSet": bson.M{"hidden_for": string(user)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainchat.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) byPairKey(ctx context.Context, key domainchat.PairKey) (*domainchat.Conversation, error) {
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"pair_key": string(key)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

type conversationDocument struct {
	ID              string   `bson:"_id"`
	PairKey         string   `bson:"pair_key"`
	Participants    []string `bson:"participants"`
	CreatedAt       int64    `bson:"created_at"`
	LastMessageText string   `bson:"last_message_text,omitempty"`
	LastMessageAt   int64    `bson:"last_message_at,omitempty"`
	HiddenFor       []string `bson:"hidden_for,omitempty"`
	MessageSeq      int64    `bson:"message_seq,omitempty"`
}

func (d conversationDocument) toDomain() *domainchat.Conversation {
	conversation := &domainchat.Conversation{
		ID:              domainchat.ConversationID(d.ID),
		CreatedAt:       timestampToTime(d.CreatedAt),
		LastMessageText: d.LastMessageText,
		LastMessageAt:   timestampToTime(d.LastMessageAt),
	}
	if len(d.Participants) == 2 {
		conversation.Participants = [2]domainchat.UserID{
			domainchat.UserID(d.Participants[0]),
			domainchat.UserID(d.Participants[1]),
		}
	}
	for _, user := range d.HiddenFor {
		conversation.HiddenFor = append(conversation.HiddenFor, domainchat.UserID(user))
	}
	return conversation
}
