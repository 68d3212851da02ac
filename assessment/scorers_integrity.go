package assessment

import (
	"fmt"
	"strings"
)

// Below this many words the style signals are too noisy to act on.
const minWordsForStyle = 60

type originalityScorer struct{}

func (originalityScorer) Name() string { return CategoryOriginality }

func (originalityScorer) Score(doc *Document, c Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	overlap := maxOverlap(doc.Words, c.References)

	seen := map[string]int{}
	duplicated := 0
	for _, p := range doc.Paragraphs {
		key := strings.Join(strings.Fields(strings.ToLower(p)), " ")
		if len(key) < 40 {
			continue
		}
		if seen[key]++; seen[key] == 2 {
			duplicated++
		}
	}
	famous := famousLines.count(doc.Lower)

	score := 100 - overlap*100 - float64(duplicated)*15 - float64(famous)*40
	return clamp100(score), fmt.Sprintf("overlap with references %.2f, %d repeated paragraphs, %d known passages",
		overlap, duplicated, famous)
}

type humanLikenessScorer struct{}

func (humanLikenessScorer) Name() string { return CategoryHumanLikeness }

func (humanLikenessScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.WordCount() < minWordsForStyle {
		return 90, "too short for style analysis"
	}
	uniformity := styleUniformity(doc)
	polish := polishSignal(doc)
	score := 100 * (1 - (0.5*uniformity + 0.5*polish))
	return clamp100(score), fmt.Sprintf("style uniformity %.2f, stock-phrase polish %.2f", uniformity, polish)
}

// styleUniformity is high when sentence lengths barely vary, punctuation is
// sparse and vocabulary is repetitive.
func styleUniformity(doc *Document) float64 {
	lengths := make([]float64, 0, len(doc.Sentences))
	marks := 0
	for _, s := range doc.Sentences {
		lengths = append(lengths, float64(len(sentenceWords(s))))
		marks += strings.Count(s, ",") + strings.Count(s, ";")
	}
	_, sd := meanStd(lengths)
	punctRate := float64(marks) / float64(doc.WordCount())
	variety := mattr(doc.Words, 200)

	a := clamp01((8.0 - sd) / 8.0)
	b := clamp01((0.04 - punctRate) / 0.04)
	c := clamp01((0.62 - variety) / 0.30)
	return clamp01(0.55*a + 0.20*b + 0.25*c)
}

func polishSignal(doc *Document) float64 {
	density := float64(intensifiers.count(doc.Lower)) / float64(doc.WordCount()) * 1000
	frames := float64(machinePhrases.count(doc.Lower)) / float64(max(1, doc.SentenceCount())) * 1000
	return clamp01(0.6*clamp01(density/22.0) + 0.4*clamp01(frames/45.0))
}
