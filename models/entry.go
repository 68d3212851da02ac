package models

import "time"

// Entry is a user's submission registered against a competition.
// (competition_id, submission_id) is unique.
type Entry struct {
	ID                    string     `json:"id" gorm:"primaryKey"`
	CompetitionID         string     `json:"competition_id" gorm:"not null;uniqueIndex:idx_entry_submission;index"`
	SubmissionID          string     `json:"submission_id" gorm:"not null;uniqueIndex:idx_entry_submission"`
	UserID                string     `json:"user_id" gorm:"not null;index"`
	SubmittedAt           time.Time  `json:"submitted_at" gorm:"not null"`
	PhaseAtSubmit         Phase      `json:"phase_at_submission" gorm:"type:varchar(16);not null"`
	Score                 *float64   `json:"score,omitempty"`       // assessment overall, set at judging
	FinalScore            *float64   `json:"final_score,omitempty"` // judging-weighted, set at finalize
	Rank                  *int       `json:"rank,omitempty"`
	Excluded              bool       `json:"excluded" gorm:"default:false"` // flagged by integrity check
	NeedsManualAssessment bool       `json:"needs_manual_assessment" gorm:"default:false"`
	ScoredAt              *time.Time `json:"scored_at,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// Scored reports whether judging attached a score to the entry.
func (e *Entry) Scored() bool { return e.Score != nil }
