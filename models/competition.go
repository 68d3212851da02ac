package models

import (
	"time"

	"gorm.io/gorm"
)

type Phase string

const (
	PhaseSubmission Phase = "submission"
	PhaseJudging    Phase = "judging"
	PhaseResults    Phase = "results"
	PhaseArchived   Phase = "archived"
)

// Next returns the phase that follows p. Archived has no successor.
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhaseSubmission:
		return PhaseJudging, true
	case PhaseJudging:
		return PhaseResults, true
	case PhaseResults:
		return PhaseArchived, true
	}
	return "", false
}

// Competition is the monthly writing competition. One row per period.
type Competition struct {
	ID        string `json:"id" gorm:"primaryKey"`
	PeriodKey string `json:"period" gorm:"uniqueIndex;not null"` // "2026-10"
	Title     string `json:"title" gorm:"not null"`
	Slug      string `json:"slug" gorm:"index"`
	Phase     Phase  `json:"phase" gorm:"type:varchar(16);not null;default:'submission';index"`

	SubmissionStart time.Time `json:"submission_start" gorm:"not null"`
	JudgingStart    time.Time `json:"judging_start" gorm:"not null"` // == submission end
	ResultsDate     time.Time `json:"results_date" gorm:"not null"`  // == judging end
	ArchiveAfter    time.Time `json:"archive_after" gorm:"not null"`

	// Judging weights, fixed at creation.
	CriteriaWeights map[string]float64 `json:"criteria_weights" gorm:"serializer:json;type:jsonb"`

	PhaseChangedAt *time.Time `json:"phase_changed_at,omitempty"`
	FinalizedAt    *time.Time `json:"finalized_at,omitempty"`

	// Relationships
	Entries []Entry  `json:"entries,omitempty" gorm:"foreignKey:CompetitionID"`
	Winners []Winner `json:"winners,omitempty" gorm:"foreignKey:CompetitionID"`

	Timestamps
}

// BoundaryFor returns the instant after which the competition may enter phase.
func (c *Competition) BoundaryFor(phase Phase) time.Time {
	switch phase {
	case PhaseJudging:
		return c.JudgingStart
	case PhaseResults:
		return c.ResultsDate
	case PhaseArchived:
		return c.ArchiveAfter
	}
	return c.SubmissionStart
}

// Winner is a snapshot of a top-3 entry taken at finalize time.
type Winner struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	CompetitionID   string    `json:"competition_id" gorm:"not null;uniqueIndex:idx_winner_position"`
	Position        int       `json:"position" gorm:"not null;uniqueIndex:idx_winner_position"` // 1..3
	EntryID         string    `json:"entry_id" gorm:"not null"`
	UserID          string    `json:"user_id" gorm:"not null;index"`
	UserName        string    `json:"user_name"`
	SubmissionID    string    `json:"submission_id" gorm:"not null"`
	SubmissionTitle string    `json:"submission_title"`
	Score           float64   `json:"score"`
	SelectedAt      time.Time `json:"selected_at"`
}

// QuotaCounter counts entries per user per period.
type QuotaCounter struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	PeriodKey string    `json:"period" gorm:"primaryKey"`
	Count     int       `json:"count" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
