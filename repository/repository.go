// Package repository persists competitions, entries, quota counters, winners,
// submission projections and assessment results.
package repository

import (
	"context"
	"time"

	"story-competition/models"
)

// Repository is implemented by Postgres and Memory.
type Repository interface {
	// CreateCompetitionIfAbsent inserts c unless its period already has a
	// competition. It returns the stored record and whether it was created.
	CreateCompetitionIfAbsent(ctx context.Context, c *models.Competition) (*models.Competition, bool, error)
	GetCompetition(ctx context.Context, id string) (*models.Competition, error)
	GetCompetitionByPeriod(ctx context.Context, periodKey string) (*models.Competition, error)
	// ListOpenCompetitions returns every competition that is not archived.
	ListOpenCompetitions(ctx context.Context) ([]models.Competition, error)
	// WithCompetitionLock runs fn while holding the competition's exclusive
	// lock. fn must use the Repository it is given.
	WithCompetitionLock(ctx context.Context, id string, fn func(tx Repository, c *models.Competition) error) error
	// UpdatePhase moves the competition from one phase to another. It fails
	// with ErrPhaseViolation when the stored phase is not from.
	UpdatePhase(ctx context.Context, id string, from, to models.Phase, at time.Time) error

	QuotaCount(ctx context.Context, userID, periodKey string) (int, error)

	// CreateEntry atomically re-checks phase, duplicate and quota, increments
	// the counter (only while below limit) and inserts the entry.
	CreateEntry(ctx context.Context, entry *models.Entry, periodKey string, limit int) error
	EntryExists(ctx context.Context, competitionID, submissionID string) (bool, error)
	// ListEntries is ordered by submission time, then id.
	ListEntries(ctx context.Context, competitionID string) ([]models.Entry, error)
	ListUserEntries(ctx context.Context, competitionID, userID string) ([]models.Entry, error)
	SaveEntryScore(ctx context.Context, entry *models.Entry) error
	// SaveRankings writes scores, exclusion, final scores and ranks of the
	// given entries, replaces the winner list and stamps FinalizedAt.
	SaveRankings(ctx context.Context, competitionID string, entries []models.Entry, winners []models.Winner, at time.Time) error
	ListWinners(ctx context.Context, competitionID string) ([]models.Winner, error)

	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ListPublishedSubmissions(ctx context.Context, userID string) ([]models.Submission, error)
	// UpsertSubmission writes the fields owned by the publishing service and
	// leaves status and review fields alone on update.
	UpsertSubmission(ctx context.Context, s *models.Submission) error
	UpdateSubmissionReview(ctx context.Context, s *models.Submission) error
	LatestSubmissionSync(ctx context.Context) (time.Time, error)

	SaveAssessment(ctx context.Context, r *models.AssessmentResult) error
	GetAssessment(ctx context.Context, submissionID string) (*models.AssessmentResult, error)
}

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&models.Competition{},
		&models.Entry{},
		&models.QuotaCounter{},
		&models.Winner{},
		&models.Submission{},
		&models.AssessmentResult{},
	}
}
