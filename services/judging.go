package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"story-competition/assessment"
	"story-competition/integrity"
	"story-competition/models"
	"story-competition/repository"
)

// JudgingService runs the assessment engine over submissions and records the
// outcome on entries and submissions.
type JudgingService struct {
	Repo      repository.Repository
	Engine    *assessment.Engine
	Documents DocumentReader
	Archive   AssessmentArchive
	Workers   int
	Log       *zap.Logger
	Now       func() time.Time
}

func NewJudgingService(repo repository.Repository, engine *assessment.Engine, documents DocumentReader, archive AssessmentArchive, workers int, log *zap.Logger) *JudgingService {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if archive == nil {
		archive = nopArchive{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &JudgingService{
		Repo:      repo,
		Engine:    engine,
		Documents: documents,
		Archive:   archive,
		Workers:   workers,
		Log:       log,
		Now:       systemNow,
	}
}

type judgingJob struct {
	entry      models.Entry
	submission *models.Submission
	text       string
	references []string
}

type judgingOutcome struct {
	job    judgingJob
	result models.AssessmentResult
	err    error
}

// ScoreCompetition assesses every unscored entry of c on a bounded worker
// pool, waits for all of them, then persists scores through tx one by one.
// Each entry is compared against the texts of entries submitted before it.
// A failed assessment is replaced by the fallback result. The stored results
// are returned so the caller can archive them once tx has committed.
func (s *JudgingService) ScoreCompetition(ctx context.Context, tx repository.Repository, c *models.Competition) ([]models.AssessmentResult, error) {
	entries, err := tx.ListEntries(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	var jobs []judgingJob
	var earlier []string
	for _, e := range entries {
		sub, err := tx.GetSubmission(ctx, e.SubmissionID)
		if err != nil {
			return nil, fmt.Errorf("load submission %s: %w", e.SubmissionID, err)
		}
		text, err := s.text(ctx, sub)
		if err != nil {
			// Unreadable documents go through the engine as empty text and
			// come back as fallback results.
			s.Log.Warn("submission text unavailable",
				zap.String("submission_id", sub.ID), zap.Error(err))
		}
		if !e.Scored() {
			jobs = append(jobs, judgingJob{
				entry:      e,
				submission: sub,
				text:       text,
				references: append([]string(nil), earlier...),
			})
		}
		if text != "" {
			earlier = append(earlier, text)
		}
	}

	outcomes := s.assessAll(ctx, jobs)

	now := s.Now()
	scored := make([]models.AssessmentResult, 0, len(outcomes))
	for _, o := range outcomes {
		if err := s.record(ctx, tx, o, now); err != nil {
			return nil, err
		}
		scored = append(scored, o.result)
	}
	s.Log.Info("competition scored",
		zap.String("competition_id", c.ID),
		zap.Int("entries", len(entries)),
		zap.Int("assessed", len(outcomes)))
	return scored, nil
}

// ArchiveScored copies committed judging results to the archive. Failures are
// logged only.
func (s *JudgingService) ArchiveScored(ctx context.Context, results []models.AssessmentResult) {
	for i := range results {
		if err := s.Archive.ArchiveAssessment(ctx, &results[i], "judging"); err != nil {
			s.Log.Warn("archive assessment failed", zap.String("submission_id", results[i].SubmissionID), zap.Error(err))
		}
	}
}

// assessAll is the parallel stage. It returns once every job has an outcome.
func (s *JudgingService) assessAll(ctx context.Context, jobs []judgingJob) []judgingOutcome {
	outcomes := make([]judgingOutcome, len(jobs))
	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(s.Workers, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				job := jobs[i]
				result, err := s.Engine.Assess(ctx, job.submission.ID, job.text, contextFor(job.submission, job.references))
				outcomes[i] = judgingOutcome{job: job, result: result, err: err}
			}
		}()
	}
	for i := range jobs {
		work <- i
	}
	close(work)
	wg.Wait()
	return outcomes
}

func (s *JudgingService) record(ctx context.Context, tx repository.Repository, o judgingOutcome, now time.Time) error {
	if o.err != nil {
		s.Log.Warn("entry needs manual assessment",
			zap.String("entry_id", o.job.entry.ID),
			zap.String("submission_id", o.job.submission.ID),
			zap.Error(o.err))
	}
	result := o.result
	if err := tx.SaveAssessment(ctx, &result); err != nil {
		return fmt.Errorf("save assessment %s: %w", result.SubmissionID, err)
	}
	sub := o.job.submission
	integrity.Apply(sub, result.Integrity)
	if err := tx.UpdateSubmissionReview(ctx, sub); err != nil {
		return fmt.Errorf("update submission %s: %w", sub.ID, err)
	}

	entry := o.job.entry
	score := result.OverallScore
	scoredAt := now
	entry.Score = &score
	entry.Excluded = result.Integrity.Disposition == models.DispositionFlag
	entry.NeedsManualAssessment = result.NeedsManualAssessment
	entry.ScoredAt = &scoredAt
	if err := tx.SaveEntryScore(ctx, &entry); err != nil {
		return fmt.Errorf("save entry score %s: %w", entry.ID, err)
	}
	if entry.Excluded {
		s.Log.Info("entry excluded by integrity check",
			zap.String("entry_id", entry.ID),
			zap.String("risk_tier", string(result.Integrity.RiskTier)))
	}
	return nil
}

// Reassess recomputes a submission's assessment, archives the previous one
// and overwrites it. Entries pick up the new result when they are finalized.
func (s *JudgingService) Reassess(ctx context.Context, submissionID string) (*models.AssessmentResult, error) {
	sub, err := s.Repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	text, err := s.text(ctx, sub)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: submission %s has no text", models.ErrValidation, submissionID)
	}

	prev, err := s.Repo.GetAssessment(ctx, submissionID)
	switch {
	case err == nil:
		if err := s.Archive.ArchiveAssessment(ctx, prev, "reassessed"); err != nil {
			s.Log.Warn("archive previous assessment failed",
				zap.String("submission_id", submissionID), zap.Error(err))
		}
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	result, assessErr := s.Engine.Assess(ctx, submissionID, text, contextFor(sub, nil))
	if assessErr != nil {
		s.Log.Warn("reassessment fell back", zap.String("submission_id", submissionID), zap.Error(assessErr))
	}
	if err := s.Repo.SaveAssessment(ctx, &result); err != nil {
		return nil, err
	}
	integrity.Apply(sub, result.Integrity)
	if err := s.Repo.UpdateSubmissionReview(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.Archive.ArchiveAssessment(ctx, &result, "current"); err != nil {
		s.Log.Warn("archive assessment failed", zap.String("submission_id", submissionID), zap.Error(err))
	}
	s.Log.Info("submission reassessed",
		zap.String("submission_id", submissionID),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("disposition", string(result.Integrity.Disposition)))
	return &result, nil
}

func (s *JudgingService) text(ctx context.Context, sub *models.Submission) (string, error) {
	if sub.Content != "" || sub.DocumentKey == "" {
		return sub.Content, nil
	}
	if s.Documents == nil {
		return "", fmt.Errorf("submission %s: no document reader configured", sub.ID)
	}
	return s.Documents.ReadDocument(ctx, sub.DocumentKey)
}

func contextFor(sub *models.Submission, references []string) assessment.Context {
	return assessment.Context{
		AgeBracket:      assessment.ParseAgeBracket(sub.AgeBracket),
		Genre:           cases.Lower(language.English).String(strings.TrimSpace(sub.Genre)),
		IsCollaborative: sub.IsCollaborative,
		References:      references,
	}
}
