package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpresence "github.com/dinilH/SkillConnect/internal/domain/presence"
)

// PresenceRepository mutates the presence fields on user documents. It
// never deletes users; identity is owned by the auth collaborator.
type PresenceRepository struct {
	col *mongo.Collection
}

func NewPresenceRepository(db *mongo.Database) *PresenceRepository {
	return &PresenceRepository{col: db.Collection(usersCollection)}
}

func (r *PresenceRepository) Heartbeat(ctx context.Context, user domainpresence.UserID, at time.Time) error {
	update := bson.M{"$set": bson.M{"is_online": true, "last_active_at": at.UTC().UnixMilli()}}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": string(user)}, update, options.Update().SetUpsert(true))
	return err
}

func (r *PresenceRepository) SetOffline(ctx context.Context, user domainpresence.UserID, at time.Time) error {
	update := bson.M{
		"$set":         bson.M{"is_online": false},
		"$setOnInsert": bson.M{"last_active_at": at.UTC().UnixMilli()},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": string(user)}, update, options.Update().SetUpsert(true))
	return err
}

func (r *PresenceRepository) Get(ctx context.Context, user domainpresence.UserID) (domainpresence.Presence, error) {
	var doc presenceDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(user)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainpresence.Presence{UserID: user}, nil
		}
		return domainpresence.Presence{}, err
	}
	return doc.toDomain(), nil
}

func (r *PresenceRepository) ListActiveSince(ctx context.Context, cutoff time.Time) ([]domainpresence.Presence, error) {
	filter := bson.M{
		"is_online":      true,
		"last_active_at": bson.M{"$gte": cutoff.UTC().UnixMilli()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_active_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := make([]domainpresence.Presence, 0)
	for cursor.Next(ctx) {
		var doc presenceDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PresenceRepository) MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"is_online":      true,
		"last_active_at": bson.M{"$lt": cutoff.UTC().UnixMilli()},
	}
	res, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_online": false}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

type presenceDocument struct {
	ID           string `bson:"_id"`
	Online       bool   `bson:"is_online"`
	LastActiveAt int64  `bson:"last_active_at"`
}

func (d presenceDocument) toDomain() domainpresence.Presence {
	return domainpresence.Presence{
		UserID:       domainpresence.UserID(d.ID),
		Online:       d.Online,
		LastActiveAt: timestampToTime(d.LastActiveAt),
	}
}
