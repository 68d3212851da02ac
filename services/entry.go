package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"story-competition/models"
	"story-competition/repository"
)

// EntryService registers submissions against competitions.
type EntryService struct {
	Repo         repository.Repository
	Quota        *QuotaGuard
	Competitions *CompetitionService
	Notifier     Notifier
	Log          *zap.Logger
	Now          func() time.Time
}

func NewEntryService(repo repository.Repository, quota *QuotaGuard, competitions *CompetitionService, notifier Notifier, log *zap.Logger) *EntryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EntryService{Repo: repo, Quota: quota, Competitions: competitions, Notifier: notifier, Log: log, Now: systemNow}
}

// Submit enters submissionID into the competition. Validation, phase, quota
// and duplicate failures leave no trace.
func (s *EntryService) Submit(ctx context.Context, competitionID, userID, submissionID string) (*models.Entry, error) {
	competitionID, userID, submissionID = strings.TrimSpace(competitionID), strings.TrimSpace(userID), strings.TrimSpace(submissionID)
	if competitionID == "" || userID == "" || submissionID == "" {
		return nil, fmt.Errorf("%w: competition, user and submission are required", models.ErrValidation)
	}

	sub, err := s.Repo.GetSubmission(ctx, submissionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown submission %s", models.ErrValidation, submissionID)
	}
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("%w: submission %s is not owned by user", models.ErrValidation, submissionID)
	}
	if !sub.Published {
		return nil, fmt.Errorf("%w: submission %s is not published", models.ErrValidation, submissionID)
	}

	decision, err := s.Quota.CanSubmit(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s (%d/%d used)", decision.Err(), decision.Reason, decision.Used, decision.Cap)
	}

	exists, err := s.Repo.EntryExists(ctx, competitionID, submissionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrDuplicateSubmission
	}

	entry := &models.Entry{
		ID:            uuid.NewString(),
		CompetitionID: competitionID,
		SubmissionID:  submissionID,
		UserID:        userID,
		SubmittedAt:   s.Now(),
		PhaseAtSubmit: models.PhaseSubmission,
	}
	if err := s.Repo.CreateEntry(ctx, entry, decision.PeriodKey, s.Quota.Cap); err != nil {
		return nil, err
	}

	s.Log.Info("entry submitted",
		zap.String("competition_id", competitionID),
		zap.String("user_id", userID),
		zap.String("submission_id", submissionID),
		zap.String("entry_id", entry.ID))

	event := models.Event{
		Type:          models.EventSubmissionConfirmed,
		CompetitionID: competitionID,
		UserID:        userID,
		SubmissionID:  submissionID,
		EntryID:       entry.ID,
		OccurredAt:    entry.SubmittedAt,
	}
	if err := s.Notifier.Notify(ctx, event); err != nil {
		s.Log.Warn("submission notification failed",
			zap.String("entry_id", entry.ID), zap.Error(err))
	}
	return entry, nil
}

// EligibleSubmissions lists the user's published submissions not yet entered
// into the current competition.
func (s *EntryService) EligibleSubmissions(ctx context.Context, userID string) ([]models.Submission, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user is required", models.ErrValidation)
	}
	current, err := s.Competitions.Current(ctx)
	if err != nil {
		return nil, err
	}
	published, err := s.Repo.ListPublishedSubmissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	entered, err := s.Repo.ListUserEntries(ctx, current.ID, userID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(entered))
	for _, e := range entered {
		taken[e.SubmissionID] = struct{}{}
	}
	out := make([]models.Submission, 0, len(published))
	for _, sub := range published {
		if _, ok := taken[sub.ID]; !ok {
			sub.Content = ""
			out = append(out, sub)
		}
	}
	return out, nil
}
