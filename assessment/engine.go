// Package assessment scores story text with rule-based category scorers and
// folds the sub-scores into a weighted overall score.
package assessment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"story-competition/integrity"
	"story-competition/models"
)

const (
	CategoryGrammar              = "grammar"
	CategorySpelling             = "spelling"
	CategoryPunctuation          = "punctuation"
	CategoryVocabulary           = "vocabulary"
	CategoryStructure            = "structure"
	CategoryCohesion             = "cohesion"
	CategoryCharacterDevelopment = "character_development"
	CategoryDialogue             = "dialogue"
	CategoryPlotDevelopment      = "plot_development"
	CategoryPlotOriginality      = "plot_originality"
	CategoryCreativity           = "creativity"
	CategoryDescriptiveWriting   = "descriptive_writing"
	CategoryTheme                = "theme"
	CategoryOriginality          = "originality"
	CategoryHumanLikeness        = "human_likeness"
)

const (
	SectionMechanics        = "mechanics"
	SectionStoryElements    = "story_elements"
	SectionCreativeSkills   = "creative_skills"
	SectionOrganization     = "organization"
	SectionAdvancedElements = "advanced_elements"
	SectionIntegrity        = "integrity"
)

var sectionOf = map[string]string{
	CategoryGrammar:              SectionMechanics,
	CategorySpelling:             SectionMechanics,
	CategoryPunctuation:          SectionMechanics,
	CategoryCharacterDevelopment: SectionStoryElements,
	CategoryDialogue:             SectionStoryElements,
	CategoryPlotDevelopment:      SectionStoryElements,
	CategoryCreativity:           SectionCreativeSkills,
	CategoryDescriptiveWriting:   SectionCreativeSkills,
	CategoryVocabulary:           SectionCreativeSkills,
	CategoryPlotOriginality:      SectionCreativeSkills,
	CategoryStructure:            SectionOrganization,
	CategoryCohesion:             SectionOrganization,
	CategoryTheme:                SectionAdvancedElements,
	CategoryOriginality:          SectionIntegrity,
	CategoryHumanLikeness:        SectionIntegrity,
}

// SectionOf returns the report section a category belongs to. Categories
// added through WithScorer land in advanced_elements.
func SectionOf(category string) string {
	if s, ok := sectionOf[category]; ok {
		return s
	}
	return SectionAdvancedElements
}

// CategoryScorer produces one named 0-100 sub-score. Implementations must be
// pure functions of their inputs.
type CategoryScorer interface {
	Name() string
	Score(doc *Document, c Context) (score float64, analysis string)
}

// DefaultScorers returns one scorer per built-in category.
func DefaultScorers() []CategoryScorer {
	return []CategoryScorer{
		grammarScorer{}, spellingScorer{}, punctuationScorer{},
		vocabularyScorer{}, structureScorer{}, cohesionScorer{},
		characterScorer{}, dialogueScorer{}, plotScorer{},
		originalityOfPlotScorer{}, creativityScorer{}, descriptiveScorer{},
		themeScorer{}, originalityScorer{}, humanLikenessScorer{},
	}
}

// Fallback values used when scoring fails.
const (
	FallbackCategoryScore    = 70.0
	FallbackOriginalityScore = 75.0
	FallbackHumanScore       = 75.0
)

// MaxTextBytes caps the text the engine will score. Scoring cost grows
// linearly with length and this keeps one story well inside the default
// timeout.
const MaxTextBytes = 512 << 10

type Engine struct {
	scorers map[string]CategoryScorer
	order   []string
	weights Weights
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Engine)

// WithScorer adds or replaces the scorer for s.Name().
func WithScorer(s CategoryScorer) Option {
	return func(e *Engine) { e.register(s) }
}

// WithWeights replaces the overall weight table. NewEngine validates it.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		scorers: map[string]CategoryScorer{},
		weights: OverallWeights,
		timeout: 10 * time.Second,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, s := range DefaultScorers() {
		e.register(s)
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	for name := range e.weights {
		if _, ok := e.scorers[name]; !ok {
			return nil, fmt.Errorf("%w: weight for unknown category %q", models.ErrValidation, name)
		}
	}
	return e, nil
}

func (e *Engine) register(s CategoryScorer) {
	if _, exists := e.scorers[s.Name()]; !exists {
		e.order = append(e.order, s.Name())
	}
	e.scorers[s.Name()] = s
}

// Categories lists the category names in registration order.
func (e *Engine) Categories() []string {
	return append([]string(nil), e.order...)
}

// Compute scores text. It has no side effects. A panicking scorer surfaces as
// ErrAssessmentFailure; empty or oversized text is ErrValidation.
func (e *Engine) Compute(text string, c Context) (models.AssessmentResult, error) {
	return e.compute(context.Background(), text, c)
}

// ComputeContext is Compute bounded by the engine timeout and ctx. Scoring
// stops between categories once ctx is done.
func (e *Engine) ComputeContext(ctx context.Context, text string, c Context) (models.AssessmentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result models.AssessmentResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := e.compute(ctx, text, c)
		done <- outcome{r, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return models.AssessmentResult{}, fmt.Errorf("%w: %v", models.ErrAssessmentFailure, ctx.Err())
	}
}

func (e *Engine) compute(ctx context.Context, text string, c Context) (result models.AssessmentResult, err error) {
	if strings.TrimSpace(text) == "" {
		return result, fmt.Errorf("%w: empty text", models.ErrValidation)
	}
	if len(text) > MaxTextBytes {
		return result, fmt.Errorf("%w: text is %d bytes, limit is %d", models.ErrValidation, len(text), MaxTextBytes)
	}
	defer func() {
		if r := recover(); r != nil {
			result = models.AssessmentResult{}
			err = fmt.Errorf("%w: %v", models.ErrAssessmentFailure, r)
		}
	}()

	doc := Parse(text)
	if doc.WordCount() == 0 {
		return result, fmt.Errorf("%w: text has no words", models.ErrValidation)
	}

	categories := make(map[string]models.CategoryResult, len(e.order))
	for _, name := range e.order {
		if err := ctx.Err(); err != nil {
			return models.AssessmentResult{}, fmt.Errorf("%w: %v", models.ErrAssessmentFailure, err)
		}
		score, analysis := e.scorers[name].Score(doc, c)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return models.AssessmentResult{}, fmt.Errorf("%w: category %s produced %v", models.ErrAssessmentFailure, name, score)
		}
		categories[name] = models.CategoryResult{
			Score:    round2(clamp100(score)),
			Analysis: analysis,
			Section:  SectionOf(name),
		}
	}

	result = models.AssessmentResult{
		Categories: categories,
		Sections:   sectionAverages(categories),
		WordCount:  doc.WordCount(),
		AssessedAt: e.now().UTC(),
	}
	result.OverallScore = e.weights.Apply(result.CategoryScores())
	result.Integrity = integrity.ClassifyScores(
		scoreOr(categories, CategoryOriginality, 100),
		scoreOr(categories, CategoryHumanLikeness, 100),
	)
	result.Feedback = feedbackFor(categories)
	return result, nil
}

// Assess runs ComputeContext. Any failure (timeout, cancellation, panic)
// yields the fallback result together with the error so callers can log it.
func (e *Engine) Assess(ctx context.Context, submissionID, text string, c Context) (models.AssessmentResult, error) {
	result, err := e.ComputeContext(ctx, text, c)
	if err != nil {
		e.log.Warn("assessment failed, using fallback",
			zap.String("submission_id", submissionID), zap.Error(err))
		return e.Fallback(submissionID, err.Error()), err
	}
	result.SubmissionID = submissionID
	return result, nil
}

// Fallback is the fixed result substituted when scoring fails.
func (e *Engine) Fallback(submissionID, reason string) models.AssessmentResult {
	categories := make(map[string]models.CategoryResult, len(e.order))
	for _, name := range e.order {
		score := FallbackCategoryScore
		switch name {
		case CategoryOriginality:
			score = FallbackOriginalityScore
		case CategoryHumanLikeness:
			score = FallbackHumanScore
		}
		categories[name] = models.CategoryResult{Score: score, Analysis: "default score, manual assessment required", Section: SectionOf(name)}
	}
	result := models.AssessmentResult{
		SubmissionID:          submissionID,
		Categories:            categories,
		Sections:              sectionAverages(categories),
		NeedsManualAssessment: true,
		FailureReason:         reason,
		AssessedAt:            e.now().UTC(),
	}
	result.OverallScore = e.weights.Apply(result.CategoryScores())
	result.Integrity = integrity.ClassifyScores(FallbackOriginalityScore, FallbackHumanScore)
	result.Feedback = models.Feedback{
		Strengths:    []string{},
		Improvements: []string{"Automatic assessment was unavailable; a mentor will review this story."},
	}
	return result
}

func scoreOr(categories map[string]models.CategoryResult, name string, def float64) float64 {
	if c, ok := categories[name]; ok {
		return c.Score
	}
	return def
}

func sectionAverages(categories map[string]models.CategoryResult) map[string]float64 {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, name := range names {
		c := categories[name]
		sums[c.Section] += c.Score
		counts[c.Section]++
	}
	out := make(map[string]float64, len(sums))
	for s, sum := range sums {
		out[s] = round2(sum / float64(counts[s]))
	}
	return out
}

var categoryAdvice = map[string][2]string{
	CategoryGrammar:              {"Sentences are well formed.", "Start every sentence with a capital letter and end it with punctuation."},
	CategorySpelling:             {"Spelling is accurate.", "Check the spelling of tricky words."},
	CategoryPunctuation:          {"Punctuation is used carefully.", "Use apostrophes in contractions like don't and can't."},
	CategoryVocabulary:           {"Word choice is varied and rich.", "Try using more varied and precise words."},
	CategoryStructure:            {"The story has a clear beginning, middle and end.", "Give the story a clear opening and a satisfying ending."},
	CategoryCohesion:             {"Events are linked by cause and effect.", "Use words like because and so to connect events."},
	CategoryCharacterDevelopment: {"Characters feel real.", "Show what your characters think and feel."},
	CategoryDialogue:             {"Dialogue brings the characters to life.", "Let your characters speak to each other."},
	CategoryPlotDevelopment:      {"The plot builds a problem and solves it.", "Add a problem for the characters and show how it is solved."},
	CategoryPlotOriginality:      {"The plot has fresh ideas.", "Avoid familiar phrases and surprise the reader."},
	CategoryCreativity:           {"The writing is imaginative.", "Try similes, sound words and different sentence openings."},
	CategoryDescriptiveWriting:   {"Descriptions use the senses well.", "Describe what characters see, hear, smell and touch."},
	CategoryTheme:                {"The theme comes through clearly.", "Let the story's message run through the whole piece."},
}

// feedbackFor picks the three strongest and three weakest advisable categories.
func feedbackFor(categories map[string]models.CategoryResult) models.Feedback {
	names := make([]string, 0, len(categories))
	for name := range categories {
		if _, ok := categoryAdvice[name]; ok {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := categories[names[i]].Score, categories[names[j]].Score
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})

	fb := models.Feedback{Strengths: []string{}, Improvements: []string{}}
	for _, name := range names {
		if categories[name].Score >= 75 && len(fb.Strengths) < 3 {
			fb.Strengths = append(fb.Strengths, categoryAdvice[name][0])
		}
	}
	for i := len(names) - 1; i >= 0; i-- {
		if categories[names[i]].Score < 60 && len(fb.Improvements) < 3 {
			fb.Improvements = append(fb.Improvements, categoryAdvice[names[i]][1])
		}
	}
	return fb
}
