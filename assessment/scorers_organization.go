package assessment

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type structureScorer struct{}

func (structureScorer) Name() string { return CategoryStructure }

func (structureScorer) Score(doc *Document, c Context) (float64, string) {
	words := doc.WordCount()
	if words == 0 {
		return 0, "no words found"
	}
	p := c.Profile()

	// Beginning: an opening or setting marker in the first fifth of the text.
	head := doc.Lower[:len(doc.Lower)/5+1]
	hasBeginning := openingPhrases.count(head) > 0 || settingWords.count(head) > 0
	// Ending: a closing marker in the last quarter.
	tail := doc.Lower[len(doc.Lower)*3/4:]
	hasEnding := closingPhrases.count(tail) > 0

	score := 0.0
	if hasBeginning {
		score += 25
	}
	if hasEnding {
		score += 25
	}
	switch n := len(doc.Paragraphs); {
	case n >= 3:
		score += 20
	case n == 2:
		score += 10
	}
	score += math.Min(15, float64(transitionWords.count(doc.Lower))*3)
	score += 15 * ratio(float64(words), float64(p.MinWords))

	return clamp100(score), fmt.Sprintf("beginning: %t, ending: %t, %d paragraphs, %d words (expected %d)",
		hasBeginning, hasEnding, len(doc.Paragraphs), words, p.MinWords)
}

type cohesionScorer struct{}

func (cohesionScorer) Name() string { return CategoryCohesion }

func (cohesionScorer) Score(doc *Document, _ Context) (float64, string) {
	sentences := doc.SentenceCount()
	if sentences == 0 {
		return 0, "no sentences found"
	}
	connectives := causeEffect.count(doc.Lower)
	rate := float64(connectives) / float64(sentences)
	return clamp100(40 + math.Min(60, rate*200)), fmt.Sprintf("%d cause-effect connectives across %d sentences",
		connectives, sentences)
}

type themeScorer struct{}

func (themeScorer) Name() string { return CategoryTheme }

func (themeScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	names := make([]string, 0, len(themeLexicons))
	for name := range themeLexicons {
		names = append(names, name)
	}
	sort.Strings(names)

	dominant, best := "", 0
	for _, name := range names {
		if n := themeLexicons[name].count(doc.Lower); n > best {
			dominant, best = name, n
		}
	}
	if dominant == "" {
		return 30, "no clear theme"
	}
	covered := 0
	for _, p := range doc.Paragraphs {
		if themeLexicons[dominant].count(strings.ToLower(p)) > 0 {
			covered++
		}
	}
	coverage := ratio(float64(covered), float64(len(doc.Paragraphs)))
	score := 40 + math.Min(30, float64(best)*5) + 30*coverage
	return clamp100(score), fmt.Sprintf("theme %s (%d mentions, %.0f%% of paragraphs)", dominant, best, coverage*100)
}
