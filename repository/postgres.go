package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"story-competition/models"
)

// Postgres is the gorm-backed Repository.
type Postgres struct {
	DB *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{DB: db}
}

func (r *Postgres) CreateCompetitionIfAbsent(ctx context.Context, c *models.Competition) (*models.Competition, bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "period_key"}}, DoNothing: true}).
		Create(c)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create competition %s: %w", c.PeriodKey, res.Error)
	}
	stored, err := r.GetCompetitionByPeriod(ctx, c.PeriodKey)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected == 1, nil
}

func (r *Postgres) GetCompetition(ctx context.Context, id string) (*models.Competition, error) {
	var c models.Competition
	err := r.DB.WithContext(ctx).
		Preload("Winners", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "competition %s", id)
	}
	return &c, nil
}

func (r *Postgres) GetCompetitionByPeriod(ctx context.Context, periodKey string) (*models.Competition, error) {
	var c models.Competition
	err := r.DB.WithContext(ctx).
		Preload("Winners", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("period_key = ?", periodKey).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "competition for period %s", periodKey)
	}
	return &c, nil
}

func (r *Postgres) ListOpenCompetitions(ctx context.Context) ([]models.Competition, error) {
	var out []models.Competition
	err := r.DB.WithContext(ctx).
		Where("phase <> ?", models.PhaseArchived).
		Order("submission_start ASC").
		Find(&out).Error
	return out, err
}

func (r *Postgres) WithCompetitionLock(ctx context.Context, id string, fn func(tx Repository, c *models.Competition) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Competition
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&c).Error; err != nil {
			return notFound(err, "competition %s", id)
		}
		return fn(&Postgres{DB: tx}, &c)
	})
}

func (r *Postgres) UpdatePhase(ctx context.Context, id string, from, to models.Phase, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Competition{}).
		Where("id = ? AND phase = ?", id, from).
		Updates(map[string]interface{}{
			"phase":            to,
			"phase_changed_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("update phase of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: competition %s is not in phase %s", models.ErrPhaseViolation, id, from)
	}
	return nil
}

func (r *Postgres) QuotaCount(ctx context.Context, userID, periodKey string) (int, error) {
	var q models.QuotaCounter
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND period_key = ?", userID, periodKey).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return q.Count, err
}

func (r *Postgres) CreateEntry(ctx context.Context, entry *models.Entry, periodKey string, limit int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serializes with phase advancement on the same competition.
		var c models.Competition
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", entry.CompetitionID).
			First(&c).Error; err != nil {
			return notFound(err, "competition %s", entry.CompetitionID)
		}
		if c.Phase != models.PhaseSubmission {
			return fmt.Errorf("%w: competition is in phase %s", models.ErrPhaseViolation, c.Phase)
		}

		var existing int64
		if err := tx.Model(&models.Entry{}).
			Where("competition_id = ? AND submission_id = ?", entry.CompetitionID, entry.SubmissionID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return models.ErrDuplicateSubmission
		}

		counter := models.QuotaCounter{UserID: entry.UserID, PeriodKey: periodKey}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
			return fmt.Errorf("ensure quota counter: %w", err)
		}
		res := tx.Model(&models.QuotaCounter{}).
			Where("user_id = ? AND period_key = ? AND count < ?", entry.UserID, periodKey, limit).
			UpdateColumn("count", gorm.Expr("count + 1"))
		if res.Error != nil {
			return fmt.Errorf("increment quota counter: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrQuotaExceeded
		}

		if err := tx.Create(entry).Error; err != nil {
			if isUniqueViolation(err) {
				return models.ErrDuplicateSubmission
			}
			return fmt.Errorf("create entry: %w", err)
		}
		return nil
	})
}

func (r *Postgres) EntryExists(ctx context.Context, competitionID, submissionID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Entry{}).
		Where("competition_id = ? AND submission_id = ?", competitionID, submissionID).
		Count(&n).Error
	return n > 0, err
}

func (r *Postgres) ListEntries(ctx context.Context, competitionID string) ([]models.Entry, error) {
	var out []models.Entry
	err := r.DB.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *Postgres) ListUserEntries(ctx context.Context, competitionID, userID string) ([]models.Entry, error) {
	var out []models.Entry
	err := r.DB.WithContext(ctx).
		Where("competition_id = ? AND user_id = ?", competitionID, userID).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *Postgres) SaveEntryScore(ctx context.Context, entry *models.Entry) error {
	return r.DB.WithContext(ctx).Model(&models.Entry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"score":                   entry.Score,
			"excluded":                entry.Excluded,
			"needs_manual_assessment": entry.NeedsManualAssessment,
			"scored_at":               entry.ScoredAt,
		}).Error
}

func (r *Postgres) SaveRankings(ctx context.Context, competitionID string, entries []models.Entry, winners []models.Winner, at time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := tx.Model(&models.Entry{}).
				Where("id = ? AND competition_id = ?", e.ID, competitionID).
				Updates(map[string]interface{}{
					"score":       e.Score,
					"excluded":    e.Excluded,
					"final_score": e.FinalScore,
					"rank":        e.Rank,
				}).Error; err != nil {
				return fmt.Errorf("save rank of entry %s: %w", e.ID, err)
			}
		}
		if err := tx.Where("competition_id = ?", competitionID).Delete(&models.Winner{}).Error; err != nil {
			return fmt.Errorf("clear winners: %w", err)
		}
		if len(winners) > 0 {
			if err := tx.Create(&winners).Error; err != nil {
				return fmt.Errorf("create winners: %w", err)
			}
		}
		return tx.Model(&models.Competition{}).
			Where("id = ?", competitionID).
			Update("finalized_at", at).Error
	})
}

func (r *Postgres) ListWinners(ctx context.Context, competitionID string) ([]models.Winner, error) {
	var out []models.Winner
	err := r.DB.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order("position ASC").
		Find(&out).Error
	return out, err
}

func (r *Postgres) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var s models.Submission
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "submission %s", id)
	}
	return &s, nil
}

func (r *Postgres) ListPublishedSubmissions(ctx context.Context, userID string) ([]models.Submission, error) {
	var out []models.Submission
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND published = ?", userID, true).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Postgres) UpsertSubmission(ctx context.Context, s *models.Submission) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "user_name", "title", "content", "document_key", "age_bracket",
			"genre", "is_collaborative", "published", "source_updated_at", "updated_at",
		}),
	}).Create(s).Error
}

func (r *Postgres) UpdateSubmissionReview(ctx context.Context, s *models.Submission) error {
	return r.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"status":        s.Status,
			"needs_review":  s.NeedsReview,
			"review_status": s.ReviewStatus,
		}).Error
}

func (r *Postgres) LatestSubmissionSync(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.DB.WithContext(ctx).Model(&models.Submission{}).
		Select("MAX(source_updated_at)").
		Scan(&latest).Error
	if err != nil || latest == nil {
		return time.Time{}, err
	}
	return *latest, nil
}

func (r *Postgres) SaveAssessment(ctx context.Context, a *models.AssessmentResult) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "submission_id"}}, UpdateAll: true}).
		Create(a).Error
}

func (r *Postgres) GetAssessment(ctx context.Context, submissionID string) (*models.AssessmentResult, error) {
	var a models.AssessmentResult
	if err := r.DB.WithContext(ctx).Where("submission_id = ?", submissionID).First(&a).Error; err != nil {
		return nil, notFound(err, "assessment for submission %s", submissionID)
	}
	return &a, nil
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
