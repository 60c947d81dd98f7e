package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xyz-asif/roadwatch/internal/pkg/pagination"
)

type reportDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	Description string             `bson:"description"`
	Severity    Severity           `bson:"severity"`
	Latitude    float64            `bson:"latitude"`
	Longitude   float64            `bson:"longitude"`
	ImageURL    string             `bson:"image_url"`
	Status      Status             `bson:"status"`
	Votes       int                `bson:"votes"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d reportDoc) toReport() Report {
	return Report{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Description: d.Description,
		Severity:    d.Severity,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		ImageURL:    d.ImageURL,
		Status:      d.Status,
		Votes:       d.Votes,
		Comments:    []Comment{},
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ReportID  primitive.ObjectID `bson:"report_id"`
	UserID    string             `bson:"user_id"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"created_at"`
}

type voteDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ReportID  primitive.ObjectID `bson:"report_id"`
	UserID    string             `bson:"user_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Repository is the MongoDB store
type Repository struct {
	reports  *mongo.Collection
	comments *mongo.Collection
	votes    *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	r := &Repository{
		reports:  db.Collection("pothole_reports"),
		comments: db.Collection("report_comments"),
		votes:    db.Collection("report_votes"),
	}

	ctx := context.Background()
	_, _ = r.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	_, _ = r.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "report_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	_, _ = r.votes.Indexes().CreateOne(ctx, mongo.IndexModel{
		// one vote per user per report
		Keys:    bson.D{{Key: "report_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return r
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrReportNotFound
	}
	return oid, nil
}

func (r *Repository) Insert(ctx context.Context, report *Report) error {
	now := time.Now().UTC()
	doc := reportDoc{
		UserID:      report.UserID,
		Description: report.Description,
		Severity:    report.Severity,
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		ImageURL:    report.ImageURL,
		Status:      report.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := r.reports.InsertOne(ctx, doc)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		report.ID = oid.Hex()
	}
	report.CreatedAt = now
	report.UpdatedAt = now
	if report.Comments == nil {
		report.Comments = []Comment{}
	}
	return nil
}

func (r *Repository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Report, error) {
	cursor, err := r.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []reportDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]Report, len(docs))
	for i, d := range docs {
		out[i] = d.toReport()
	}
	return out, nil
}

// newest first, ties broken by _id so the order is total
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *Repository) ListNewestFirst(ctx context.Context) ([]Report, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (r *Repository) ListPage(ctx context.Context, userID string, req pagination.Request) ([]Report, int64, error) {
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}

	total, err := r.reports.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(req.Offset())).
		SetLimit(int64(req.Limit))

	list, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Report, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc reportDoc
	if err := r.reports.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	cursor, err := r.comments.Find(ctx, bson.M{"report_id": oid},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []commentDoc
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}

	report := doc.toReport()
	for _, c := range comments {
		report.Comments = append(report.Comments, Comment{
			ID:        c.ID.Hex(),
			ReportID:  id,
			UserID:    c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return &report, nil
}

func (r *Repository) UpdateStatusIfCurrent(ctx context.Context, id string, from, to Status) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}

	result, err := r.reports.UpdateOne(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *Repository) AddComment(ctx context.Context, c *Comment) error {
	oid, err := parseID(c.ReportID)
	if err != nil {
		return err
	}
	count, err := r.reports.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrReportNotFound
	}

	doc := commentDoc{
		ReportID:  oid,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: time.Now().UTC(),
	}
	result, err := r.comments.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if cid, ok := result.InsertedID.(primitive.ObjectID); ok {
		c.ID = cid.Hex()
	}
	c.CreatedAt = doc.CreatedAt
	return nil
}

func (r *Repository) Vote(ctx context.Context, reportID, userID string) (int, error) {
	oid, err := parseID(reportID)
	if err != nil {
		return 0, err
	}
	count, err := r.reports.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrReportNotFound
	}

	_, err = r.votes.InsertOne(ctx, voteDoc{ReportID: oid, UserID: userID, CreatedAt: time.Now().UTC()})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrAlreadyVoted
		}
		return 0, err
	}

	var doc reportDoc
	err = r.reports.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"votes": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("vote recorded but count update failed: %w", err)
	}
	return doc.Votes, nil
}
