package services

import (
	"context"
	"time"

	"story-competition/models"
)

// Notifier delivers events to the notification collaborator. Delivery is
// best-effort; callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

// DocumentReader loads story text kept in object storage.
type DocumentReader interface {
	ReadDocument(ctx context.Context, key string) (string, error)
}

// ResultsCache holds finalized results. A miss returns (nil, nil).
type ResultsCache interface {
	GetResults(ctx context.Context, competitionID string) (*models.Results, error)
	SetResults(ctx context.Context, results *models.Results) error
}

// AssessmentArchive keeps every assessment ever produced, including ones
// overwritten by re-assessment.
type AssessmentArchive interface {
	ArchiveAssessment(ctx context.Context, result *models.AssessmentResult, reason string) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Event) error { return nil }

type nopCache struct{}

func (nopCache) GetResults(context.Context, string) (*models.Results, error) { return nil, nil }
func (nopCache) SetResults(context.Context, *models.Results) error          { return nil }

type nopArchive struct{}

func (nopArchive) ArchiveAssessment(context.Context, *models.AssessmentResult, string) error {
	return nil
}

func systemNow() time.Time { return time.Now().UTC() }
