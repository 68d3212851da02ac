package assessment

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	similePattern   = regexp.MustCompile(`\b(?:like an?|as [a-z]+ as)\b`)
	adjectiveSuffix = regexp.MustCompile(`^[a-z]{3,}(?:ful|ous|ive|less|ish|able|ible)$`)
	lyAdverb        = regexp.MustCompile(`^[a-z]{3,}ly$`)
	notAdverbs      = map[string]struct{}{"only": {}, "family": {}, "early": {}, "really": {}, "lonely": {}, "friendly": {}, "holy": {}, "silly": {}, "ugly": {}, "jelly": {}, "belly": {}, "lily": {}}
)

const mattrWindowWords = 50

type vocabularyScorer struct{}

func (vocabularyScorer) Name() string { return CategoryVocabulary }

func (vocabularyScorer) Score(doc *Document, c Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	p := c.Profile()
	m := mattr(doc.Words, mattrWindowWords)
	total, long := 0, 0
	for _, w := range doc.Words {
		total += len(w)
		if len(w) >= 7 {
			long++
		}
	}
	avg := float64(total) / float64(doc.WordCount())
	longRatio := float64(long) / float64(doc.WordCount())

	score := 40*ratio(m, p.TargetMATTR) + 30*ratio(avg, p.TargetWordLength) + 30*ratio(longRatio, 0.12)
	return clamp100(score), fmt.Sprintf("lexical variety %.2f (target %.2f), average word length %.1f",
		m, p.TargetMATTR, avg)
}

type creativityScorer struct{}

func (creativityScorer) Name() string { return CategoryCreativity }

func (creativityScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	similes := len(similePattern.FindAllStringIndex(doc.Lower, -1))
	sounds := onomatopoeia.count(doc.Lower)
	imaginative := imaginativeWords.count(doc.Lower)

	openers := map[string]struct{}{}
	for _, s := range doc.Sentences {
		if ws := sentenceWords(s); len(ws) > 0 {
			openers[strings.ToLower(ws[0])] = struct{}{}
		}
	}
	variety := ratio(float64(len(openers)), float64(doc.SentenceCount()))

	adverbs := 0
	for _, w := range doc.Words {
		if _, no := notAdverbs[w]; !no && lyAdverb.MatchString(w) {
			adverbs++
		}
	}

	score := 20 + math.Min(20, float64(similes)*7) + math.Min(15, float64(sounds)*5) +
		math.Min(20, float64(imaginative)*4) + 15*variety + math.Min(10, doc.per100(adverbs)*2)
	return clamp100(score), fmt.Sprintf("%d similes, %d sound words, %d imaginative words, opener variety %.2f",
		similes, sounds, imaginative, variety)
}

type descriptiveScorer struct{}

func (descriptiveScorer) Name() string { return CategoryDescriptiveWriting }

func (descriptiveScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	sensory := doc.per100(sensoryWords.count(doc.Lower))
	colors := colorWords.distinct(doc.Lower)
	adjectives := 0
	for _, w := range doc.Words {
		if adjectiveSuffix.MatchString(w) {
			adjectives++
		}
	}
	score := 20 + math.Min(40, sensory*5) + math.Min(20, float64(colors)*5) + math.Min(20, doc.per100(adjectives)*4)
	return clamp100(score), fmt.Sprintf("%.1f sensory words per 100, %d colours, %d descriptive adjectives",
		sensory, colors, adjectives)
}

type originalityOfPlotScorer struct{}

func (originalityOfPlotScorer) Name() string { return CategoryPlotOriginality }

func (originalityOfPlotScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.WordCount() == 0 {
		return 0, "no words found"
	}
	cliches := clichePhrases.count(doc.Lower)
	uncommon := 0
	for _, w := range doc.Words {
		if _, common := commonWords[w]; !common && len(w) > 3 {
			uncommon++
		}
	}
	uncommonRatio := float64(uncommon) / float64(doc.WordCount())
	score := 30 + 60*ratio(uncommonRatio, 0.4) - float64(cliches)*10
	if imaginativeWords.count(doc.Lower) > 0 {
		score += 10
	}
	return clamp100(score), fmt.Sprintf("%d cliches, %.0f%% uncommon words", cliches, uncommonRatio*100)
}
