package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"story-competition/assessment"
	"story-competition/models"
	"story-competition/repository"
)

// MaxWinners is the size of the podium.
const MaxWinners = 3

// RankingService ranks scored entries and selects winners.
type RankingService struct {
	Repo     repository.Repository
	Cache    ResultsCache
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

func NewRankingService(repo repository.Repository, cache ResultsCache, notifier Notifier, log *zap.Logger) *RankingService {
	if cache == nil {
		cache = nopCache{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RankingService{Repo: repo, Cache: cache, Notifier: notifier, Log: log, Now: systemNow}
}

// Finalize ranks the competition and replaces its winners. It is allowed in
// judging (after scoring) and results, and yields the same ranks and winners
// every time it runs on the same assessments.
func (s *RankingService) Finalize(ctx context.Context, competitionID string) (*models.Results, error) {
	var results *models.Results
	err := s.Repo.WithCompetitionLock(ctx, competitionID, func(tx repository.Repository, c *models.Competition) error {
		if c.Phase != models.PhaseJudging && c.Phase != models.PhaseResults {
			return fmt.Errorf("%w: cannot finalize in phase %s", models.ErrPhaseViolation, c.Phase)
		}
		res, err := s.finalize(ctx, tx, c)
		results = res
		return err
	})
	if err != nil {
		s.Log.Error("finalize failed", zap.String("competition_id", competitionID), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, results)
	return results, nil
}

type rankedEntry struct {
	entry models.Entry
	final float64
	score float64
}

// ranksBefore orders by final score, then assessment score (both descending),
// then earlier submission, then entry id.
func ranksBefore(a, b rankedEntry) bool {
	if a.final != b.final {
		return a.final > b.final
	}
	if a.score != b.score {
		return a.score > b.score
	}
	if !a.entry.SubmittedAt.Equal(b.entry.SubmittedAt) {
		return a.entry.SubmittedAt.Before(b.entry.SubmittedAt)
	}
	return a.entry.ID < b.entry.ID
}

// finalize must run under the competition lock.
func (s *RankingService) finalize(ctx context.Context, tx repository.Repository, c *models.Competition) (*models.Results, error) {
	weights := assessment.Weights(c.CriteriaWeights)
	if weights.Validate() != nil {
		weights = assessment.JudgingWeights
	}

	entries, err := tx.ListEntries(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	var ranked []rankedEntry
	updates := make([]models.Entry, 0, len(entries))
	participants := map[string]struct{}{}
	for _, e := range entries {
		participants[e.UserID] = struct{}{}
		if !e.Scored() {
			return nil, fmt.Errorf("%w: entry %s", models.ErrIncompleteScoring, e.ID)
		}
		a, err := tx.GetAssessment(ctx, e.SubmissionID)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: entry %s has no assessment", models.ErrIncompleteScoring, e.ID)
		}
		if err != nil {
			return nil, err
		}

		score := a.OverallScore
		e.Score = &score
		e.Excluded = a.Integrity.Disposition == models.DispositionFlag
		if e.Excluded {
			e.FinalScore, e.Rank = nil, nil
			updates = append(updates, e)
			continue
		}
		final := weights.Apply(a.CategoryScores())
		e.FinalScore = &final
		ranked = append(ranked, rankedEntry{entry: e, final: final, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranksBefore(ranked[i], ranked[j]) })

	selectedAt := s.Now().Truncate(time.Microsecond)
	if c.FinalizedAt != nil {
		selectedAt = *c.FinalizedAt
	}
	var winners []models.Winner
	for i := range ranked {
		rank := i + 1
		ranked[i].entry.Rank = &rank
		updates = append(updates, ranked[i].entry)
		if rank > MaxWinners {
			continue
		}
		w := models.Winner{
			ID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", c.ID, rank))).String(),
			CompetitionID: c.ID,
			Position:      rank,
			EntryID:       ranked[i].entry.ID,
			UserID:        ranked[i].entry.UserID,
			SubmissionID:  ranked[i].entry.SubmissionID,
			Score:         ranked[i].final,
			SelectedAt:    selectedAt,
		}
		if sub, err := tx.GetSubmission(ctx, w.SubmissionID); err == nil {
			w.UserName, w.SubmissionTitle = sub.UserName, sub.Title
		}
		winners = append(winners, w)
	}

	if err := tx.SaveRankings(ctx, c.ID, updates, winners, selectedAt); err != nil {
		return nil, err
	}
	s.Log.Info("competition finalized",
		zap.String("competition_id", c.ID),
		zap.Int("ranked", len(ranked)),
		zap.Int("excluded", len(entries)-len(ranked)),
		zap.Int("winners", len(winners)))

	if winners == nil {
		winners = []models.Winner{}
	}
	return &models.Results{
		CompetitionID:     c.ID,
		Winners:           winners,
		TotalParticipants: len(participants),
		TotalSubmissions:  len(entries),
		FinalizedAt:       selectedAt,
	}, nil
}

// publish refreshes the cache and announces the winners. Both are best-effort.
func (s *RankingService) publish(ctx context.Context, results *models.Results) {
	if err := s.Cache.SetResults(ctx, results); err != nil {
		s.Log.Warn("results cache write failed", zap.String("competition_id", results.CompetitionID), zap.Error(err))
	}
	event := models.Event{
		Type:          models.EventResultsFinalized,
		CompetitionID: results.CompetitionID,
		Winners:       results.Winners,
		OccurredAt:    results.FinalizedAt,
	}
	if err := s.Notifier.Notify(ctx, event); err != nil {
		s.Log.Warn("results notification failed", zap.String("competition_id", results.CompetitionID), zap.Error(err))
	}
}

// Results returns the finalized outcome, from cache when warm.
func (s *RankingService) Results(ctx context.Context, competitionID string) (*models.Results, error) {
	if cached, err := s.Cache.GetResults(ctx, competitionID); err != nil {
		s.Log.Warn("results cache read failed", zap.String("competition_id", competitionID), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	c, err := s.Repo.GetCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if c.FinalizedAt == nil {
		return nil, fmt.Errorf("%w: results of %s are not final", models.ErrPhaseViolation, competitionID)
	}
	entries, err := s.Repo.ListEntries(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	winners, err := s.Repo.ListWinners(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	participants := map[string]struct{}{}
	for _, e := range entries {
		participants[e.UserID] = struct{}{}
	}
	if winners == nil {
		winners = []models.Winner{}
	}
	res := &models.Results{
		CompetitionID:     competitionID,
		Winners:           winners,
		TotalParticipants: len(participants),
		TotalSubmissions:  len(entries),
		FinalizedAt:       *c.FinalizedAt,
	}
	if err := s.Cache.SetResults(ctx, res); err != nil {
		s.Log.Warn("results cache write failed", zap.String("competition_id", competitionID), zap.Error(err))
	}
	return res, nil
}
