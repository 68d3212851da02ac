package assessment

import "strings"

type AgeBracket string

const (
	BracketEarly   AgeBracket = "early"   // 5-7
	BracketPrimary AgeBracket = "primary" // 8-10
	BracketMiddle  AgeBracket = "middle"  // 11-13
	BracketTeen    AgeBracket = "teen"    // 14-17
	BracketAdult   AgeBracket = "adult"
)

// Profile holds the expectations a story is measured against for one age bracket.
type Profile struct {
	MinWords         int
	TargetMATTR      float64 // moving-average type/token ratio
	TargetWordLength float64
	MaxSentenceWords int
}

var profiles = map[AgeBracket]Profile{
	BracketEarly:   {MinWords: 50, TargetMATTR: 0.45, TargetWordLength: 3.6, MaxSentenceWords: 18},
	BracketPrimary: {MinWords: 120, TargetMATTR: 0.50, TargetWordLength: 3.9, MaxSentenceWords: 22},
	BracketMiddle:  {MinWords: 250, TargetMATTR: 0.55, TargetWordLength: 4.2, MaxSentenceWords: 28},
	BracketTeen:    {MinWords: 400, TargetMATTR: 0.58, TargetWordLength: 4.4, MaxSentenceWords: 32},
	BracketAdult:   {MinWords: 500, TargetMATTR: 0.60, TargetWordLength: 4.5, MaxSentenceWords: 35},
}

// ParseAgeBracket accepts bracket names and a few common aliases. Unknown
// values fall back to primary.
func ParseAgeBracket(raw string) AgeBracket {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "early", "5-7", "early_years", "k-2":
		return BracketEarly
	case "middle", "11-13", "middle_school":
		return BracketMiddle
	case "teen", "14-17", "high_school", "young_adult":
		return BracketTeen
	case "adult", "18+":
		return BracketAdult
	}
	return BracketPrimary
}

// Context is what the engine knows about a story besides its text.
type Context struct {
	AgeBracket      AgeBracket
	Genre           string
	IsCollaborative bool
	// References are other texts (e.g. sibling entries) checked for overlap.
	References []string
}

// Profile returns the bracket expectations adjusted for collaborative work.
func (c Context) Profile() Profile {
	p, ok := profiles[c.AgeBracket]
	if !ok {
		p = profiles[BracketPrimary]
	}
	if c.IsCollaborative {
		p.MinWords = p.MinWords * 3 / 2
	}
	return p
}

func (c Context) isPoetry() bool {
	g := strings.ToLower(c.Genre)
	return strings.Contains(g, "poem") || strings.Contains(g, "poetry")
}
