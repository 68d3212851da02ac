package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"story-competition/assessment"
	"story-competition/models"
)

// SchedulePolicy fixes the phase boundaries of a monthly competition.
// Submissions open on the 1st, judging starts at 00:00 UTC on JudgingStartDay,
// results are due on the 1st of the next month and the competition archives
// ArchiveAfter later.
type SchedulePolicy struct {
	JudgingStartDay int
	ArchiveAfter    time.Duration
}

func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{JudgingStartDay: 26, ArchiveAfter: 14 * 24 * time.Hour}
}

// NewCompetition builds the record for period, in phase submission.
func (p SchedulePolicy) NewCompetition(period models.Period) (*models.Competition, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: invalid period %+v", models.ErrValidation, period)
	}
	day := p.JudgingStartDay
	if day < 2 || day > 28 {
		day = DefaultSchedulePolicy().JudgingStartDay
	}
	archiveAfter := p.ArchiveAfter
	if archiveAfter <= 0 {
		archiveAfter = DefaultSchedulePolicy().ArchiveAfter
	}

	start := period.Start()
	results := period.Next().Start()
	title := fmt.Sprintf("%s %d Story Competition", period.Month, period.Year)
	return &models.Competition{
		ID:              uuid.NewString(),
		PeriodKey:       period.Key(),
		Title:           title,
		Slug:            slug.Make(title),
		Phase:           models.PhaseSubmission,
		SubmissionStart: start,
		JudgingStart:    time.Date(period.Year, period.Month, day, 0, 0, 0, 0, time.UTC),
		ResultsDate:     results,
		ArchiveAfter:    results.Add(archiveAfter),
		CriteriaWeights: assessment.JudgingWeights.Clone(),
	}, nil
}
