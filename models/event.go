package models

import "time"

const (
	EventSubmissionConfirmed = "submission.confirmed"
	EventPhaseAdvanced       = "competition.phase_advanced"
	EventResultsFinalized    = "competition.results_finalized"
)

// Event is published to the notification collaborator.
type Event struct {
	Type          string    `json:"type"`
	CompetitionID string    `json:"competition_id"`
	UserID        string    `json:"user_id,omitempty"`
	SubmissionID  string    `json:"submission_id,omitempty"`
	EntryID       string    `json:"entry_id,omitempty"`
	FromPhase     Phase     `json:"from_phase,omitempty"`
	Phase         Phase     `json:"phase,omitempty"`
	Winners       []Winner  `json:"winners,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Results is the outcome of finalizing a competition.
type Results struct {
	CompetitionID     string    `json:"competition_id"`
	Winners           []Winner  `json:"winners"`
	TotalParticipants int       `json:"total_participants"`
	TotalSubmissions  int       `json:"total_submissions"`
	FinalizedAt       time.Time `json:"finalized_at"`
}
