package assessment

import (
	"fmt"
	"math"
	"strings"
)

var pronounWords = map[string]struct{}{"I": {}, "He": {}, "She": {}, "They": {}, "We": {}, "It": {}, "The": {}, "A": {}, "An": {}}

type characterScorer struct{}

func (characterScorer) Name() string { return CategoryCharacterDevelopment }

func (characterScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	names := properNames(doc)
	feelings := doc.per100(feelingWords.count(doc.Lower))
	traits := traitWords.distinct(doc.Lower)

	score := math.Min(40, float64(len(names))*15) + math.Min(35, feelings*10) + math.Min(25, float64(traits)*8)
	if len(names) == 0 {
		score += math.Min(20, float64(thirdPersonPronouns.count(doc.Lower))*2)
	}
	return clamp100(score), fmt.Sprintf("%d named characters, %.1f feeling words per 100, %d traits",
		len(names), feelings, traits)
}

// properNames collects capitalized words that appear mid-sentence.
func properNames(doc *Document) map[string]struct{} {
	names := map[string]struct{}{}
	for _, s := range doc.Sentences {
		words := sentenceWords(s)
		for i := 1; i < len(words); i++ {
			w := words[i]
			if len(w) < 2 || w[0] < 'A' || w[0] > 'Z' {
				continue
			}
			if _, skip := pronounWords[w]; skip {
				continue
			}
			names[w] = struct{}{}
		}
	}
	return names
}

type dialogueScorer struct{}

func (dialogueScorer) Name() string { return CategoryDialogue }

func (dialogueScorer) Score(doc *Document, c Context) (float64, string) {
	if c.isPoetry() {
		return 60, "dialogue not expected for poetry"
	}
	pairs := strings.Count(doc.Text, `"`) / 2
	verbs := speechVerbs.count(doc.Lower)
	if pairs == 0 && verbs == 0 {
		return 30, "no dialogue"
	}
	score := 40 + math.Min(40, float64(pairs)*10) + math.Min(20, float64(verbs)*5)
	return clamp100(score), fmt.Sprintf("%d quoted lines, %d speech verbs", pairs, verbs)
}

type plotScorer struct{}

func (plotScorer) Name() string { return CategoryPlotDevelopment }

func (plotScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	conflict := conflictWords.count(doc.Lower)
	resolution := resolutionWords.count(doc.Lower)
	score := 20 + math.Min(30, float64(conflict)*10) + math.Min(30, float64(resolution)*10)
	ordered := conflict > 0 && resolution > 0 && conflictWords.first(doc.Lower) < resolutionWords.last(doc.Lower)
	if ordered {
		score += 20
	}
	return clamp100(score), fmt.Sprintf("conflict markers %d, resolution markers %d, resolved after conflict: %t",
		conflict, resolution, ordered)
}
