package services

import (
	"context"
	"errors"

	"story-competition/models"
	"story-competition/repository"
)

// DefaultQuotaCap is the number of entries a user may submit per period.
const DefaultQuotaCap = 3

const (
	ReasonNoSuchCompetition = "no such competition"
	ReasonWrongPhase        = "wrong phase"
	ReasonQuotaExceeded     = "quota exceeded"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Used      int    `json:"used"`
	Cap       int    `json:"cap"`
	PeriodKey string `json:"period,omitempty"`
}

// Err maps a refused decision to its sentinel error.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonNoSuchCompetition:
		return models.ErrNotFound
	case d.Reason == ReasonWrongPhase:
		return models.ErrPhaseViolation
	}
	return models.ErrQuotaExceeded
}

// QuotaGuard decides whether a user may enter another story. It never
// mutates state; the counter is incremented by Repository.CreateEntry.
type QuotaGuard struct {
	Repo repository.Repository
	Cap  int
}

func NewQuotaGuard(repo repository.Repository, limit int) *QuotaGuard {
	if limit <= 0 {
		limit = DefaultQuotaCap
	}
	return &QuotaGuard{Repo: repo, Cap: limit}
}

func (g *QuotaGuard) CanSubmit(ctx context.Context, userID, competitionID string) (Decision, error) {
	d := Decision{Cap: g.Cap}
	c, err := g.Repo.GetCompetition(ctx, competitionID)
	if errors.Is(err, models.ErrNotFound) {
		d.Reason = ReasonNoSuchCompetition
		return d, nil
	}
	if err != nil {
		return d, err
	}
	d.PeriodKey = c.PeriodKey

	used, err := g.Repo.QuotaCount(ctx, userID, c.PeriodKey)
	if err != nil {
		return d, err
	}
	d.Used = used

	switch {
	case c.Phase != models.PhaseSubmission:
		d.Reason = ReasonWrongPhase
	case used >= g.Cap:
		d.Reason = ReasonQuotaExceeded
	default:
		d.Allowed = true
	}
	return d, nil
}
