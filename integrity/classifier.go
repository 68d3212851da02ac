// Package integrity turns plagiarism and AI-detection scores into a risk tier
// and a submission disposition.
package integrity

import (
	"fmt"
	"math"
	"strings"

	"story-competition/models"
)

type AILikelihood string

const (
	AILow      AILikelihood = "low"
	AIMedium   AILikelihood = "medium"
	AIHigh     AILikelihood = "high"
	AIVeryHigh AILikelihood = "very_high"
)

// Thresholds on the 0-100 originality score (higher = more original).
const (
	OriginalityCritical = 50.0
	OriginalityHigh     = 70.0
	OriginalityMedium   = 85.0
)

// Thresholds on the 0-100 human-likeness score (higher = more human).
const (
	HumanVeryHighAI = 30.0
	HumanHighAI     = 50.0
	HumanMediumAI   = 70.0
)

var tierRank = map[models.RiskTier]int{
	models.RiskLow:      0,
	models.RiskMedium:   1,
	models.RiskHigh:     2,
	models.RiskCritical: 3,
}

func ParseAILikelihood(raw string) (AILikelihood, error) {
	switch v := AILikelihood(strings.ToLower(strings.TrimSpace(raw))); v {
	case AILow, AIMedium, AIHigh, AIVeryHigh:
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown ai likelihood %q", models.ErrValidation, raw)
}

// PlagiarismRisk buckets an originality score.
func PlagiarismRisk(originality float64) models.RiskTier {
	originality = clampScore(originality)
	switch {
	case originality < OriginalityCritical:
		return models.RiskCritical
	case originality < OriginalityHigh:
		return models.RiskHigh
	case originality < OriginalityMedium:
		return models.RiskMedium
	}
	return models.RiskLow
}

// LikelihoodFromHumanScore buckets a human-likeness score.
func LikelihoodFromHumanScore(human float64) AILikelihood {
	human = clampScore(human)
	switch {
	case human < HumanVeryHighAI:
		return AIVeryHigh
	case human < HumanHighAI:
		return AIHigh
	case human < HumanMediumAI:
		return AIMedium
	}
	return AILow
}

// Classify is total and deterministic over its inputs.
func Classify(originality float64, ai AILikelihood) models.IntegrityAnalysis {
	plag := PlagiarismRisk(originality)
	warning := ""
	aiTier := aiTier(ai)
	if _, err := ParseAILikelihood(string(ai)); err != nil {
		warning = "unrecognized ai likelihood, treated as medium"
	}

	tier := plag
	if tierRank[aiTier] > tierRank[tier] {
		tier = aiTier
	}

	analysis := models.IntegrityAnalysis{
		PlagiarismScore: clampScore(originality),
		PlagiarismRisk:  plag,
		AILikelihood:    string(ai),
		RiskTier:        tier,
		Disposition:     DispositionFor(tier),
		Warning:         warning,
	}
	if tier == models.RiskMedium && analysis.Warning == "" {
		analysis.Warning = "medium integrity risk"
	}
	return analysis
}

// ClassifyScores classifies from raw originality and human-likeness scores.
func ClassifyScores(originality, human float64) models.IntegrityAnalysis {
	analysis := Classify(originality, LikelihoodFromHumanScore(human))
	analysis.AILikelihoodScore = clampScore(human)
	return analysis
}

// DispositionFor maps every tier to exactly one disposition.
func DispositionFor(tier models.RiskTier) models.Disposition {
	switch tier {
	case models.RiskCritical:
		return models.DispositionFlag
	case models.RiskHigh, models.RiskMedium:
		return models.DispositionReview
	case models.RiskLow:
		return models.DispositionAccept
	}
	return models.DispositionReview
}

// Apply writes the disposition onto the submission's status fields.
func Apply(sub *models.Submission, analysis models.IntegrityAnalysis) {
	sub.Status = analysis.SubmissionStatus()
	switch analysis.Disposition {
	case models.DispositionFlag:
		sub.NeedsReview = true
		sub.ReviewStatus = models.ReviewStatusPendingMentorReview
	case models.DispositionReview:
		sub.NeedsReview = true
		sub.ReviewStatus = models.ReviewStatusPendingReview
	default:
		sub.NeedsReview = false
		sub.ReviewStatus = ""
	}
}

func aiTier(ai AILikelihood) models.RiskTier {
	switch ai {
	case AIVeryHigh:
		return models.RiskCritical
	case AIHigh:
		return models.RiskHigh
	case AIMedium:
		return models.RiskMedium
	case AILow:
		return models.RiskLow
	}
	return models.RiskMedium
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
