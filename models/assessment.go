package models

import "time"

type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

type Disposition string

const (
	DispositionAccept Disposition = "accept"
	DispositionReview Disposition = "review"
	DispositionFlag   Disposition = "flag"
)

// IntegrityAnalysis is the plagiarism/AI screening outcome of one submission.
type IntegrityAnalysis struct {
	PlagiarismScore   float64     `json:"plagiarism_score"`    // originality, 100 = fully original
	AILikelihoodScore float64     `json:"ai_likelihood_score"` // human-likeness, 100 = clearly human
	PlagiarismRisk    RiskTier    `json:"plagiarism_risk"`
	AILikelihood      string      `json:"ai_likelihood"`
	RiskTier          RiskTier    `json:"risk_tier"`
	Disposition       Disposition `json:"disposition"`
	Warning           string      `json:"warning,omitempty"`
}

// SubmissionStatus is the status a submission takes for this disposition.
func (a IntegrityAnalysis) SubmissionStatus() SubmissionStatus {
	switch a.Disposition {
	case DispositionFlag:
		return SubmissionStatusFlagged
	case DispositionReview:
		return SubmissionStatusReview
	}
	return SubmissionStatusCompleted
}

// CategoryResult is one named sub-score with its textual analysis.
type CategoryResult struct {
	Score    float64 `json:"score"`
	Analysis string  `json:"analysis"`
	Section  string  `json:"section"`
}

type Feedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// AssessmentResult is stored once per submission and overwritten on re-assessment.
type AssessmentResult struct {
	SubmissionID          string                    `json:"submission_id" gorm:"primaryKey"`
	Categories            map[string]CategoryResult `json:"categories" gorm:"serializer:json;type:jsonb"`
	Sections              map[string]float64        `json:"sections" gorm:"serializer:json;type:jsonb"`
	OverallScore          float64                   `json:"overall_score"`
	Integrity             IntegrityAnalysis         `json:"integrity" gorm:"embedded;embeddedPrefix:integrity_"`
	Feedback              Feedback                  `json:"feedback" gorm:"serializer:json;type:jsonb"`
	WordCount             int                       `json:"word_count"`
	NeedsManualAssessment bool                      `json:"needs_manual_assessment" gorm:"default:false"`
	FailureReason         string                    `json:"failure_reason,omitempty"`
	AssessedAt            time.Time                 `json:"assessed_at"`
}

// CategoryScores flattens Categories to name → score.
func (r *AssessmentResult) CategoryScores() map[string]float64 {
	out := make(map[string]float64, len(r.Categories))
	for name, c := range r.Categories {
		out[name] = c.Score
	}
	return out
}
