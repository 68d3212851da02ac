package assessment

import (
	"fmt"
	"math"
	"sort"

	"story-competition/models"
)

// Weights maps category names to their share of a weighted score.
type Weights map[string]float64

// OverallWeights builds AssessmentResult.OverallScore.
var OverallWeights = Weights{
	CategoryGrammar:              0.20,
	CategoryVocabulary:           0.15,
	CategoryStructure:            0.15,
	CategoryCharacterDevelopment: 0.15,
	CategoryPlotOriginality:      0.20,
	CategoryDescriptiveWriting:   0.10,
	CategorySpelling:             0.05,
}

// JudgingWeights builds the competition ranking score.
var JudgingWeights = Weights{
	CategoryGrammar:              0.20,
	CategoryCreativity:           0.25,
	CategoryStructure:            0.15,
	CategoryCharacterDevelopment: 0.15,
	CategoryPlotDevelopment:      0.15,
	CategoryVocabulary:           0.10,
}

const weightTolerance = 1e-6

// Validate requires non-negative weights summing to 1.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: empty weight table", models.ErrValidation)
	}
	sum := 0.0
	for name, v := range w {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: weight %s=%v", models.ErrValidation, name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, want 1", models.ErrValidation, sum)
	}
	return nil
}

// Apply computes the weighted sum rounded to two decimals. Missing categories
// count as zero. Terms are added in name order so the result is reproducible.
func (w Weights) Apply(scores map[string]float64) float64 {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	total := 0.0
	for _, name := range names {
		total += w[name] * scores[name]
	}
	return round2(total)
}

// Clone returns a copy safe to store on a competition.
func (w Weights) Clone() map[string]float64 {
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
