package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"story-competition/models"
)

func TestSubmitFourthEntryExceedsQuota(t *testing.T) {
	f := newFixture(t)
	c := f.current(t)
	for i := 0; i < 4; i++ {
		f.publish(t, fmt.Sprintf("sub-%d", i), "u1", i)
	}
	for i := 0; i < 3; i++ {
		f.submit(t, c.ID, "u1", fmt.Sprintf("sub-%d", i))
	}

	_, err := f.entries.Submit(context.Background(), c.ID, "u1", "sub-3")
	if !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	entries, _ := f.repo.ListUserEntries(context.Background(), c.ID, "u1")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	used, _ := f.repo.QuotaCount(context.Background(), "u1", c.PeriodKey)
	if used != 3 {
		t.Fatalf("expected counter to stay at 3, got %d", used)
	}
}

func TestSubmitConcurrentRequestsNeverExceedQuota(t *testing.T) {
	f := newFixture(t)
	c := f.current(t)
	const attempts = 12
	for i := 0; i < attempts; i++ {
		f.publish(t, fmt.Sprintf("sub-%d", i), "u1", i)
	}

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.entries.Submit(context.Background(), c.ID, "u1", fmt.Sprintf("sub-%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, models.ErrQuotaExceeded):
			t.Fatalf("expected only quota errors, got %v", err)
		}
	}
	if accepted != DefaultQuotaCap {
		t.Fatalf("expected %d accepted entries, got %d", DefaultQuotaCap, accepted)
	}
	if n := len(f.notes.ofType(models.EventSubmissionConfirmed)); n != DefaultQuotaCap {
		t.Fatalf("expected %d confirmations, got %d", DefaultQuotaCap, n)
	}
}

func TestSubmitSameSubmissionTwiceIsDuplicate(t *testing.T) {
	f := newFixture(t)
	c := f.current(t)
	f.publish(t, "sub-1", "u1", 0)
	f.submit(t, c.ID, "u1", "sub-1")

	_, err := f.entries.Submit(context.Background(), c.ID, "u1", "sub-1")
	if !errors.Is(err, models.ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}
	used, _ := f.repo.QuotaCount(context.Background(), "u1", c.PeriodKey)
	if used != 1 {
		t.Fatalf("expected counter 1 after duplicate, got %d", used)
	}
}

func TestSubmitRejectsInvalidSubmissions(t *testing.T) {
	f := newFixture(t)
	c := f.current(t)
	f.publish(t, "mine", "u1", 0)
	draft := f.publish(t, "draft", "u1", 1)
	draft.Published = false
	_ = f.repo.UpsertSubmission(context.Background(), draft)

	cases := []struct {
		name, comp, user, sub string
		want                  error
	}{
		{"missing user", c.ID, "", "mine", models.ErrValidation},
		{"unknown submission", c.ID, "u1", "nope", models.ErrValidation},
		{"not owner", c.ID, "u2", "mine", models.ErrValidation},
		{"unpublished", c.ID, "u1", "draft", models.ErrValidation},
		{"unknown competition", "comp-x", "u1", "mine", models.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.entries.Submit(context.Background(), tc.comp, tc.user, tc.sub)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitOutsideSubmissionPhase(t *testing.T) {
	f := newFixture(t)
	c := f.current(t)
	f.publish(t, "sub-1", "u1", 0)
	f.clock.Set(judgingOpen)
	if _, err := f.comps.Advance(context.Background(), c.ID); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	_, err := f.entries.Submit(context.Background(), c.ID, "u1", "sub-1")
	if !errors.Is(err, models.ErrPhaseViolation) {
		t.Fatalf("expected ErrPhaseViolation, got %v", err)
	}
}

func TestSubmitSurvivesNotificationFailure(t *testing.T) {
	f := newFixture(t)
	f.notes.err = errors.New("broker down")
	c := f.current(t)
	f.publish(t, "sub-1", "u1", 0)

	e, err := f.entries.Submit(context.Background(), c.ID, "u1", "sub-1")
	if err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}
	exists, _ := f.repo.EntryExists(context.Background(), c.ID, "sub-1")
	if !exists || e.PhaseAtSubmit != models.PhaseSubmission {
		t.Fatalf("expected stored entry in submission phase, got exists=%t phase=%s", exists, e.PhaseAtSubmit)
	}
}

func TestEligibleSubmissionsSkipsEnteredStories(t *testing.T) {
	f := newFixture(t)
	c := f.current(t)
	f.publish(t, "a", "u1", 0)
	f.publish(t, "b", "u1", 1)
	f.publish(t, "other", "u2", 2)
	f.submit(t, c.ID, "u1", "a")

	got, err := f.entries.EligibleSubmissions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EligibleSubmissions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only submission b, got %+v", got)
	}
	if got[0].Content != "" {
		t.Fatalf("expected content to be stripped")
	}
}

func TestQuotaDecisionReasons(t *testing.T) {
	f := newFixture(t)
	c := f.current(t)
	ctx := context.Background()

	d, err := f.quota.CanSubmit(ctx, "u1", "comp-x")
	if err != nil || d.Allowed || d.Reason != ReasonNoSuchCompetition {
		t.Fatalf("expected no-such-competition refusal, got %+v err=%v", d, err)
	}
	if !errors.Is(d.Err(), models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", d.Err())
	}

	d, _ = f.quota.CanSubmit(ctx, "u1", c.ID)
	if !d.Allowed || d.Used != 0 || d.Cap != DefaultQuotaCap || d.PeriodKey != "2026-10" {
		t.Fatalf("expected fresh allowance, got %+v", d)
	}

	for i := 0; i < 3; i++ {
		f.publish(t, fmt.Sprintf("s%d", i), "u1", i)
		f.submit(t, c.ID, "u1", fmt.Sprintf("s%d", i))
	}
	d, _ = f.quota.CanSubmit(ctx, "u1", c.ID)
	if d.Allowed || d.Reason != ReasonQuotaExceeded || d.Used != 3 {
		t.Fatalf("expected quota refusal, got %+v", d)
	}

	f.clock.Set(judgingOpen)
	if _, err := f.comps.Advance(ctx, c.ID); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	d, _ = f.quota.CanSubmit(ctx, "u2", c.ID)
	if d.Allowed || d.Reason != ReasonWrongPhase || !errors.Is(d.Err(), models.ErrPhaseViolation) {
		t.Fatalf("expected wrong-phase refusal, got %+v", d)
	}
}

func TestQuotaGuardDefaultsCap(t *testing.T) {
	if g := NewQuotaGuard(nil, 0); g.Cap != DefaultQuotaCap {
		t.Fatalf("expected cap %d, got %d", DefaultQuotaCap, g.Cap)
	}
}
