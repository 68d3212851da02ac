package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"story-competition/models"
)

var t0 = time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)

func seedCompetition(t *testing.T, r Repository, phase models.Phase) *models.Competition {
	t.Helper()
	c := &models.Competition{
		ID:              "comp-1",
		PeriodKey:       "2026-10",
		Title:           "October 2026",
		Phase:           phase,
		SubmissionStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		JudgingStart:    time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		ResultsDate:     time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		ArchiveAfter:    time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC),
	}
	stored, created, err := r.CreateCompetitionIfAbsent(context.Background(), c)
	if err != nil || !created {
		t.Fatalf("expected competition to be created, got created=%t err=%v", created, err)
	}
	return stored
}

func entry(id, user, submission string) *models.Entry {
	return &models.Entry{
		ID:            id,
		CompetitionID: "comp-1",
		UserID:        user,
		SubmissionID:  submission,
		SubmittedAt:   t0,
		PhaseAtSubmit: models.PhaseSubmission,
	}
}

func TestCreateCompetitionIfAbsentKeepsOnePerPeriod(t *testing.T) {
	r := NewMemory()
	first := seedCompetition(t, r, models.PhaseSubmission)
	second, created, err := r.CreateCompetitionIfAbsent(context.Background(), &models.Competition{ID: "comp-2", PeriodKey: "2026-10"})
	if err != nil {
		t.Fatalf("CreateCompetitionIfAbsent: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("expected existing competition %s, got %s (created=%t)", first.ID, second.ID, created)
	}
}

func TestCreateEntryEnforcesQuotaUnderConcurrency(t *testing.T) {
	r := NewMemory()
	seedCompetition(t, r, models.PhaseSubmission)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.CreateEntry(context.Background(), entry(fmt.Sprintf("e-%d", i), "u1", fmt.Sprintf("s-%d", i)), "2026-10", 3)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, models.ErrQuotaExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if accepted != 3 || rejected != 17 {
		t.Fatalf("expected 3 accepted and 17 rejected, got %d and %d", accepted, rejected)
	}
	if n, _ := r.QuotaCount(context.Background(), "u1", "2026-10"); n != 3 {
		t.Fatalf("expected counter 3, got %d", n)
	}
}

func TestCreateEntryRejectsDuplicateAndWrongPhase(t *testing.T) {
	r := NewMemory()
	seedCompetition(t, r, models.PhaseSubmission)
	ctx := context.Background()

	if err := r.CreateEntry(ctx, entry("e-1", "u1", "s-1"), "2026-10", 3); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := r.CreateEntry(ctx, entry("e-2", "u1", "s-1"), "2026-10", 3); !errors.Is(err, models.ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}
	if n, _ := r.QuotaCount(ctx, "u1", "2026-10"); n != 1 {
		t.Fatalf("expected counter unchanged at 1, got %d", n)
	}

	if err := r.UpdatePhase(ctx, "comp-1", models.PhaseSubmission, models.PhaseJudging, t0); err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}
	if err := r.CreateEntry(ctx, entry("e-3", "u1", "s-3"), "2026-10", 3); !errors.Is(err, models.ErrPhaseViolation) {
		t.Fatalf("expected ErrPhaseViolation, got %v", err)
	}
}

func TestUpdatePhaseIsConditional(t *testing.T) {
	r := NewMemory()
	seedCompetition(t, r, models.PhaseSubmission)
	ctx := context.Background()

	if err := r.UpdatePhase(ctx, "comp-1", models.PhaseSubmission, models.PhaseJudging, t0); err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}
	if err := r.UpdatePhase(ctx, "comp-1", models.PhaseSubmission, models.PhaseJudging, t0); !errors.Is(err, models.ErrPhaseViolation) {
		t.Fatalf("expected ErrPhaseViolation on stale phase, got %v", err)
	}
	if err := r.UpdatePhase(ctx, "missing", models.PhaseSubmission, models.PhaseJudging, t0); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithCompetitionLockAllowsEntryInsideCallback(t *testing.T) {
	r := NewMemory()
	seedCompetition(t, r, models.PhaseSubmission)
	ctx := context.Background()

	err := r.WithCompetitionLock(ctx, "comp-1", func(tx Repository, c *models.Competition) error {
		return tx.CreateEntry(ctx, entry("e-1", "u1", "s-1"), c.PeriodKey, 3)
	})
	if err != nil {
		t.Fatalf("WithCompetitionLock: %v", err)
	}
	if err := r.WithCompetitionLock(ctx, "missing", func(Repository, *models.Competition) error { return nil }); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRankingsReplacesWinners(t *testing.T) {
	r := NewMemory()
	seedCompetition(t, r, models.PhaseJudging)
	ctx := context.Background()

	first := []models.Winner{{ID: "w1", CompetitionID: "comp-1", Position: 1}, {ID: "w2", CompetitionID: "comp-1", Position: 2}}
	if err := r.SaveRankings(ctx, "comp-1", nil, first, t0); err != nil {
		t.Fatalf("SaveRankings: %v", err)
	}
	if err := r.SaveRankings(ctx, "comp-1", nil, first[:1], t0); err != nil {
		t.Fatalf("SaveRankings: %v", err)
	}
	winners, _ := r.ListWinners(ctx, "comp-1")
	if len(winners) != 1 {
		t.Fatalf("expected 1 winner after replace, got %d", len(winners))
	}
	c, _ := r.GetCompetition(ctx, "comp-1")
	if c.FinalizedAt == nil || len(c.Winners) != 1 {
		t.Fatalf("expected finalized competition with 1 winner, got %+v", c)
	}
}

func TestUpsertSubmissionKeepsReviewFields(t *testing.T) {
	r := NewMemory()
	ctx := context.Background()
	sub := &models.Submission{ID: "s-1", UserID: "u1", Title: "First", Published: true}
	if err := r.UpsertSubmission(ctx, sub); err != nil {
		t.Fatalf("UpsertSubmission: %v", err)
	}
	flagged := &models.Submission{ID: "s-1", Status: models.SubmissionStatusFlagged, NeedsReview: true, ReviewStatus: models.ReviewStatusPendingMentorReview}
	if err := r.UpdateSubmissionReview(ctx, flagged); err != nil {
		t.Fatalf("UpdateSubmissionReview: %v", err)
	}
	if err := r.UpsertSubmission(ctx, &models.Submission{ID: "s-1", UserID: "u1", Title: "Renamed", Published: true}); err != nil {
		t.Fatalf("UpsertSubmission: %v", err)
	}
	got, _ := r.GetSubmission(ctx, "s-1")
	if got.Title != "Renamed" || got.Status != models.SubmissionStatusFlagged || !got.NeedsReview {
		t.Fatalf("expected renamed flagged submission, got %+v", got)
	}
}
