package rewards

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rewardDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"user_id"`
	PointsRedeemed int                `bson:"points_redeemed"`
	UPIID          string             `bson:"upi_id"`
	Status         Status             `bson:"status"`
	CreatedAt      time.Time          `bson:"created_at"`
	CompletedAt    *time.Time         `bson:"completed_at,omitempty"`
}

func (d rewardDoc) toReward() Reward {
	return Reward{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		PointsRedeemed: d.PointsRedeemed,
		UPIID:          d.UPIID,
		Status:         d.Status,
		CreatedAt:      d.CreatedAt,
		CompletedAt:    d.CompletedAt,
	}
}

// Repository is the MongoDB reward store
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("upi_rewards")

	_, _ = collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})

	return &Repository{collection: collection}
}

func (r *Repository) Insert(ctx context.Context, reward *Reward) error {
	doc := rewardDoc{
		UserID:         reward.UserID,
		PointsRedeemed: reward.PointsRedeemed,
		UPIID:          reward.UPIID,
		Status:         reward.Status,
		CreatedAt:      time.Now().UTC(),
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reward.ID = oid.Hex()
	}
	reward.CreatedAt = doc.CreatedAt
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Reward, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []rewardDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]Reward, len(docs))
	for i, d := range docs {
		out[i] = d.toReward()
	}
	return out, nil
}

func (r *Repository) SumRedeemed(ctx context.Context, userID string) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$points_redeemed"}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *Repository) CompleteIfPending(ctx context.Context, id string) (*Reward, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRewardNotFound
	}

	now := time.Now().UTC()
	var doc rewardDoc
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": StatusPending},
		bson.M{"$set": bson.M{"status": StatusCompleted, "completed_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		reward := doc.toReward()
		return &reward, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrRewardNotFound
	}
	return nil, ErrNotPending
}
