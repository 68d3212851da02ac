package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"story-competition/models"
	"story-competition/repository"
)

// CompetitionService owns the competition lifecycle:
// submission → judging → results → archived.
type CompetitionService struct {
	Repo     repository.Repository
	Policy   SchedulePolicy
	Judging  *JudgingService
	Ranking  *RankingService
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

func NewCompetitionService(repo repository.Repository, policy SchedulePolicy, judging *JudgingService, ranking *RankingService, notifier Notifier, log *zap.Logger) *CompetitionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CompetitionService{
		Repo:     repo,
		Policy:   policy,
		Judging:  judging,
		Ranking:  ranking,
		Notifier: notifier,
		Log:      log,
		Now:      systemNow,
	}
}

// GetOrCreateCurrent returns the competition for period, creating it in phase
// submission if the period has none. Concurrent callers get the same record.
func (s *CompetitionService) GetOrCreateCurrent(ctx context.Context, period models.Period) (*models.Competition, error) {
	c, err := s.Repo.GetCompetitionByPeriod(ctx, period.Key())
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	fresh, err := s.Policy.NewCompetition(period)
	if err != nil {
		return nil, err
	}
	stored, created, err := s.Repo.CreateCompetitionIfAbsent(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if created {
		s.Log.Info("competition created",
			zap.String("competition_id", stored.ID),
			zap.String("period", stored.PeriodKey),
			zap.Time("judging_start", stored.JudgingStart),
			zap.Time("results_date", stored.ResultsDate))
	}
	return stored, nil
}

// Current is GetOrCreateCurrent for the period containing now.
func (s *CompetitionService) Current(ctx context.Context) (*models.Competition, error) {
	return s.GetOrCreateCurrent(ctx, models.PeriodOf(s.Now()))
}

func (s *CompetitionService) Get(ctx context.Context, id string) (*models.Competition, error) {
	return s.Repo.GetCompetition(ctx, id)
}

// Advance moves the competition at most one phase forward, and only when the
// boundary of the next phase has passed. Entering judging scores every entry
// and entering results finalizes the ranking, both before the phase changes
// and under the competition lock, so concurrent callers cannot repeat them.
// Calling Advance early, or on an archived competition, is a no-op.
func (s *CompetitionService) Advance(ctx context.Context, id string) (*models.Competition, error) {
	var (
		out      *models.Competition
		from     models.Phase
		advanced bool
		results  *models.Results
		scored   []models.AssessmentResult
	)
	err := s.Repo.WithCompetitionLock(ctx, id, func(tx repository.Repository, c *models.Competition) error {
		out = c
		next, ok := c.Phase.Next()
		now := s.Now()
		if !ok || now.Before(c.BoundaryFor(next)) {
			return nil
		}

		switch next {
		case models.PhaseJudging:
			res, err := s.Judging.ScoreCompetition(ctx, tx, c)
			if err != nil {
				return fmt.Errorf("score competition: %w", err)
			}
			scored = res
		case models.PhaseResults:
			res, err := s.Ranking.finalize(ctx, tx, c)
			if err != nil {
				return fmt.Errorf("finalize competition: %w", err)
			}
			results = res
		}

		if err := tx.UpdatePhase(ctx, c.ID, c.Phase, next, now); err != nil {
			return err
		}
		updated, err := tx.GetCompetition(ctx, c.ID)
		if err != nil {
			return err
		}
		from, out, advanced = c.Phase, updated, true
		return nil
	})
	if err != nil {
		s.Log.Error("advance failed", zap.String("competition_id", id), zap.Error(err))
		return nil, err
	}
	if !advanced {
		return out, nil
	}

	s.Log.Info("competition advanced",
		zap.String("competition_id", id),
		zap.String("from", string(from)),
		zap.String("phase", string(out.Phase)))
	// Side effects outside the store wait until the phase change committed.
	s.Judging.ArchiveScored(ctx, scored)
	if results != nil {
		s.Ranking.publish(ctx, results)
	}
	event := models.Event{
		Type:          models.EventPhaseAdvanced,
		CompetitionID: id,
		FromPhase:     from,
		Phase:         out.Phase,
		OccurredAt:    s.Now(),
	}
	if err := s.Notifier.Notify(ctx, event); err != nil {
		s.Log.Warn("phase notification failed", zap.String("competition_id", id), zap.Error(err))
	}
	return out, nil
}

// AdvanceDue runs Advance once on every competition that is not archived.
// Failures are logged and do not stop the sweep.
func (s *CompetitionService) AdvanceDue(ctx context.Context) (int, error) {
	open, err := s.Repo.ListOpenCompetitions(ctx)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, c := range open {
		updated, err := s.Advance(ctx, c.ID)
		if err != nil {
			continue
		}
		if updated.Phase != c.Phase {
			moved++
		}
	}
	return moved, nil
}
