package assessment

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	wordFinder    = regexp.MustCompile(`[A-Za-z0-9']+`)
	sentenceFind  = regexp.MustCompile(`[^.!?]+(?:[.!?]+["']?|$)`)
	paragraphSep  = regexp.MustCompile(`\n[ \t]*\n`)
	multiSpace    = regexp.MustCompile(`[ \t]+`)
	letterFinder  = regexp.MustCompile(`[A-Za-z]`)
	terminalPunct = regexp.MustCompile(`[.!?]["']?$`)
)

// Document is a story partitioned into words, sentences and paragraphs.
type Document struct {
	Text       string   // folded to ASCII, original case
	Lower      string   // Text lower-cased
	Words      []string // lower-cased tokens
	RawWords   []string // tokens in original case
	Sentences  []string
	Paragraphs []string
}

// Parse normalizes text (NFKC, ASCII folding, newline cleanup) and partitions it.
func Parse(text string) *Document {
	folded := unidecode.Unidecode(norm.NFKC.String(text))
	folded = strings.ReplaceAll(folded, "\r\n", "\n")
	folded = strings.ReplaceAll(folded, "\r", "\n")
	folded = strings.TrimSpace(folded)

	doc := &Document{Text: folded, Lower: strings.ToLower(folded)}
	doc.RawWords = wordFinder.FindAllString(folded, -1)
	doc.Words = make([]string, len(doc.RawWords))
	for i, w := range doc.RawWords {
		doc.Words[i] = strings.ToLower(w)
	}

	flat := multiSpace.ReplaceAllString(strings.ReplaceAll(folded, "\n", " "), " ")
	for _, s := range sentenceFind.FindAllString(flat, -1) {
		s = strings.TrimSpace(s)
		if letterFinder.MatchString(s) {
			doc.Sentences = append(doc.Sentences, s)
		}
	}

	for _, p := range paragraphSep.Split(folded, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			doc.Paragraphs = append(doc.Paragraphs, p)
		}
	}
	// Single block of short lines: treat each line as a paragraph (poems, lists).
	if len(doc.Paragraphs) == 1 && strings.Count(folded, "\n") >= 3 {
		doc.Paragraphs = doc.Paragraphs[:0]
		for _, line := range strings.Split(folded, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				doc.Paragraphs = append(doc.Paragraphs, line)
			}
		}
	}
	return doc
}

func (d *Document) WordCount() int { return len(d.Words) }

func (d *Document) SentenceCount() int { return len(d.Sentences) }

// per100 is the rate of n per hundred words.
func (d *Document) per100(n int) float64 {
	if len(d.Words) == 0 {
		return 0
	}
	return float64(n) * 100 / float64(len(d.Words))
}

func sentenceWords(s string) []string {
	return wordFinder.FindAllString(s, -1)
}

func endsWithTerminal(s string) bool {
	return terminalPunct.MatchString(strings.TrimSpace(s))
}

// firstLetter returns the first ASCII letter of s, skipping quotes and dashes.
func firstLetter(s string) byte {
	loc := letterFinder.FindStringIndex(s)
	if loc == nil {
		return 0
	}
	return s[loc[0]]
}
