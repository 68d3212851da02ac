package assessment

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	lowercaseI  = regexp.MustCompile(`(^|[^A-Za-z'])i([^A-Za-z']|$)`)
	vowelLetter = regexp.MustCompile(`[aeiouy]`)
	runOnMarks  = regexp.MustCompile(`!{2,}|\?{2,}`)
)

type grammarScorer struct{}

func (grammarScorer) Name() string { return CategoryGrammar }

func (grammarScorer) Score(doc *Document, c Context) (float64, string) {
	sentences := doc.SentenceCount()
	if sentences == 0 {
		return 0, "no sentences found"
	}
	lowerStarts, unterminated, runOns := 0, 0, 0
	maxWords := c.Profile().MaxSentenceWords
	for i, s := range doc.Sentences {
		if c := firstLetter(s); c >= 'a' && c <= 'z' {
			lowerStarts++
		}
		// The last sentence may legitimately trail off; all others were split on punctuation.
		if i == len(doc.Sentences)-1 && !endsWithTerminal(s) {
			unterminated++
		}
		if len(sentenceWords(s)) > maxWords {
			runOns++
		}
	}
	lowerI := len(lowercaseI.FindAllStringIndex(doc.Text, -1))
	repeats := 0
	for i := 1; i < len(doc.Words); i++ {
		if doc.Words[i] == doc.Words[i-1] && doc.Words[i] != "had" && doc.Words[i] != "that" {
			repeats++
		}
	}
	agreement := agreementErrors.count(doc.Lower)

	penalty := float64(lowerStarts) + float64(unterminated) + float64(lowerI)*0.5 +
		float64(repeats)*0.5 + float64(agreement) + float64(runOns)*0.5
	score := clamp100(100 - penalty/float64(sentences)*50)
	return score, fmt.Sprintf("%d sentences, %d lowercase starts, %d agreement errors, %d run-ons",
		sentences, lowerStarts, agreement, runOns)
}

type spellingScorer struct{}

func (spellingScorer) Name() string { return CategorySpelling }

func (spellingScorer) Score(doc *Document, _ Context) (float64, string) {
	words := doc.WordCount()
	if words == 0 {
		return 0, "no words found"
	}
	errors := commonMisspellings.count(doc.Lower)
	odd := 0
	for _, w := range doc.Words {
		if len(w) < 3 || strings.ContainsAny(w, "0123456789'") {
			continue
		}
		if hasTripleLetter(w) || !vowelLetter.MatchString(w) {
			odd++
		}
	}
	rate := float64(errors+odd) / float64(words)
	return clamp100(100 - rate*1000), fmt.Sprintf("%d likely misspellings in %d words", errors+odd, words)
}

type punctuationScorer struct{}

func (punctuationScorer) Name() string { return CategoryPunctuation }

func (punctuationScorer) Score(doc *Document, _ Context) (float64, string) {
	if doc.SentenceCount() == 0 {
		return 0, "no sentences found"
	}
	missing := missingApostrophes.count(doc.Lower)
	runs := len(runOnMarks.FindAllStringIndex(doc.Text, -1))
	unbalanced := 0
	if strings.Count(doc.Text, `"`)%2 != 0 {
		unbalanced++
	}
	terminated := 0
	for _, s := range doc.Sentences {
		if endsWithTerminal(s) {
			terminated++
		}
	}
	base := 100 * float64(terminated) / float64(doc.SentenceCount())
	score := clamp100(base - float64(missing)*5 - float64(runs)*4 - float64(unbalanced)*10)
	return score, fmt.Sprintf("%d missing apostrophes, %d repeated marks, quotes balanced: %t",
		missing, runs, unbalanced == 0)
}

func hasTripleLetter(w string) bool {
	for i := 2; i < len(w); i++ {
		if w[i] == w[i-1] && w[i] == w[i-2] {
			return true
		}
	}
	return false
}
