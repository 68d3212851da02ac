package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"story-competition/models"
)

func TestToRecordFlattensCategories(t *testing.T) {
	at := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	r := &models.AssessmentResult{
		SubmissionID: "s1",
		Categories:   map[string]models.CategoryResult{"grammar": {Score: 81}, "spelling": {Score: 64}},
		OverallScore: 77.5,
		Integrity:    models.IntegrityAnalysis{RiskTier: models.RiskMedium, Disposition: models.DispositionReview},
	}
	rec := toRecord(r, "reassessed", at)
	if rec.Categories["grammar"] != 81 || rec.Categories["spelling"] != 64 {
		t.Fatalf("unexpected categories %v", rec.Categories)
	}
	if rec.Reason != "reassessed" || rec.RiskTier != "medium" || rec.Disposition != "review" || !rec.ArchivedAt.Equal(at) {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestArchiveHistory(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URL")
	if uri == "" {
		t.Skip("TEST_MONGODB_URL not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, uri)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Disconnect(ctx)
	db := "story_competition_test"
	defer client.Database(db).Drop(ctx)

	a, err := NewMongoArchive(ctx, client, db)
	if err != nil {
		t.Fatalf("NewMongoArchive: %v", err)
	}
	clock := time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	for _, score := range []float64{60, 72} {
		if err := a.ArchiveAssessment(ctx, &models.AssessmentResult{SubmissionID: "s1", OverallScore: score}, "judging"); err != nil {
			t.Fatalf("ArchiveAssessment: %v", err)
		}
	}
	got, err := a.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 || got[0] != 72 || got[1] != 60 {
		t.Fatalf("expected [72 60], got %v", got)
	}
}
