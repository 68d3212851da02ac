package models

import "time"

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusCompleted SubmissionStatus = "completed"
	SubmissionStatusReview    SubmissionStatus = "review"
	SubmissionStatusFlagged   SubmissionStatus = "flagged"
)

const (
	ReviewStatusPendingReview       = "pending_review"
	ReviewStatusPendingMentorReview = "pending_mentor_review"
)

// Submission mirrors a story owned by the publishing workflow. Content and the
// publish flag are written only by the sync worker; the core updates the
// status/review fields after assessment.
type Submission struct {
	ID              string           `json:"id" gorm:"primaryKey"`
	UserID          string           `json:"user_id" gorm:"not null;index"`
	UserName        string           `json:"user_name"`
	Title           string           `json:"title"`
	Content         string           `json:"content,omitempty" gorm:"type:text"`
	DocumentKey     string           `json:"document_key,omitempty"` // object storage key when Content is empty
	AgeBracket      string           `json:"age_bracket" gorm:"type:varchar(16)"`
	Genre           string           `json:"genre"`
	IsCollaborative bool             `json:"is_collaborative" gorm:"default:false"`
	Published       bool             `json:"published" gorm:"default:false;index"`
	Status          SubmissionStatus `json:"status" gorm:"type:varchar(16);default:'pending'"`
	NeedsReview     bool             `json:"needs_review" gorm:"default:false"`
	ReviewStatus    string           `json:"review_status,omitempty" gorm:"type:varchar(32)"`
	SourceUpdatedAt time.Time        `json:"source_updated_at"`
	Timestamps
}
