// Package archive keeps every assessment ever produced in MongoDB, including
// those later overwritten by re-assessment.
package archive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"story-competition/models"
)

const collectionName = "assessment_history"

type record struct {
	SubmissionID string                   `bson:"submission_id"`
	Reason       string                   `bson:"reason"`
	OverallScore float64                  `bson:"overall_score"`
	RiskTier     string                   `bson:"risk_tier"`
	Disposition  string                   `bson:"disposition"`
	Manual       bool                     `bson:"needs_manual_assessment"`
	Categories   map[string]float64       `bson:"categories"`
	Sections     map[string]float64       `bson:"sections"`
	Feedback     models.Feedback          `bson:"feedback"`
	Integrity    models.IntegrityAnalysis `bson:"integrity"`
	AssessedAt   time.Time                `bson:"assessed_at"`
	ArchivedAt   time.Time                `bson:"archived_at"`
}

type MongoArchive struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Connect opens the client and pings it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("could not connect to MongoDB: %w", err)
	}
	return client, nil
}

func NewMongoArchive(ctx context.Context, client *mongo.Client, database string) (*MongoArchive, error) {
	coll := client.Database(database).Collection(collectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "submission_id", Value: 1}, {Key: "archived_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create archive index: %w", err)
	}
	return &MongoArchive{coll: coll, now: func() time.Time { return time.Now().UTC() }}, nil
}

func toRecord(r *models.AssessmentResult, reason string, at time.Time) record {
	return record{
		SubmissionID: r.SubmissionID,
		Reason:       reason,
		OverallScore: r.OverallScore,
		RiskTier:     string(r.Integrity.RiskTier),
		Disposition:  string(r.Integrity.Disposition),
		Manual:       r.NeedsManualAssessment,
		Categories:   r.CategoryScores(),
		Sections:     r.Sections,
		Feedback:     r.Feedback,
		Integrity:    r.Integrity,
		AssessedAt:   r.AssessedAt,
		ArchivedAt:   at,
	}
}

func (a *MongoArchive) ArchiveAssessment(ctx context.Context, result *models.AssessmentResult, reason string) error {
	if _, err := a.coll.InsertOne(ctx, toRecord(result, reason, a.now())); err != nil {
		return fmt.Errorf("archive assessment %s: %w", result.SubmissionID, err)
	}
	return nil
}

// History returns the archived scores of a submission, newest first.
func (a *MongoArchive) History(ctx context.Context, submissionID string) ([]float64, error) {
	cur, err := a.coll.Find(ctx,
		bson.M{"submission_id": submissionID},
		options.Find().SetSort(bson.D{{Key: "archived_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []float64
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec.OverallScore)
	}
	return out, cur.Err()
}
