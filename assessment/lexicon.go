package assessment

import (
	"regexp"
	"sort"
	"strings"
)

// lexicon matches whole words or phrases, case-insensitive, against lower-cased text.
type lexicon struct {
	re *regexp.Regexp
}

func newLexicon(terms ...string) lexicon {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(t)))
	}
	// Longest first so "as a result" wins over "as".
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return lexicon{re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func (l lexicon) count(lower string) int {
	return len(l.re.FindAllStringIndex(lower, -1))
}

func (l lexicon) first(lower string) int {
	loc := l.re.FindStringIndex(lower)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func (l lexicon) last(lower string) int {
	all := l.re.FindAllStringIndex(lower, -1)
	if len(all) == 0 {
		return -1
	}
	return all[len(all)-1][0]
}

func (l lexicon) distinct(lower string) int {
	seen := map[string]struct{}{}
	for _, m := range l.re.FindAllString(lower, -1) {
		seen[m] = struct{}{}
	}
	return len(seen)
}

var (
	agreementErrors = newLexicon(
		"he don't", "she don't", "it don't", "they was", "we was", "you was",
		"i is", "he have", "she have", "it have", "i has", "they is", "we is",
		"he were", "she were", "me and him went", "could of", "should of", "would of",
	)

	commonMisspellings = newLexicon(
		"teh", "recieve", "becuase", "beacuse", "alot", "definately", "wierd", "untill",
		"freind", "beleive", "thier", "truely", "tommorow", "tomorow", "occured", "seperate",
		"wich", "realy", "finaly", "goverment", "begining", "suprise", "sudenly",
		"happend", "didnt", "dont", "cant", "wont", "wasnt", "isnt", "couldnt", "shouldnt",
		"im", "ive", "thats", "whats", "becaus", "butiful", "beutiful", "frend", "runing",
		"stoped", "hopeing", "wanna", "gonna", "gotta", "evryone", "evrything", "peaple",
	)

	missingApostrophes = newLexicon(
		"dont", "cant", "wont", "wasnt", "isnt", "couldnt", "shouldnt", "didnt", "doesnt",
		"im", "ive", "thats", "whats", "theyre", "youre", "hes", "shes", "lets",
	)

	openingPhrases = newLexicon(
		"once upon a time", "one day", "long ago", "there once", "there was", "there were",
		"it was", "last summer", "last winter", "yesterday", "when i was", "in a small",
		"in a land", "early one morning", "one morning", "one night", "on a", "a long time ago",
	)

	settingWords = newLexicon(
		"village", "town", "city", "forest", "school", "house", "castle", "kingdom",
		"island", "beach", "garden", "park", "mountain", "river", "ocean", "street",
		"morning", "evening", "night", "summer", "winter", "spring", "autumn",
	)

	closingPhrases = newLexicon(
		"the end", "finally", "in the end", "at last", "from that day", "ever after",
		"ever since", "never again", "learned that", "learnt that", "went home",
		"fell asleep", "smiled", "and so", "that is how", "that's how", "forever",
	)

	transitionWords = newLexicon(
		"then", "next", "after", "afterwards", "later", "suddenly", "meanwhile",
		"soon", "before", "while", "when", "after that", "the next day", "by the time",
	)

	feelingWords = newLexicon(
		"felt", "feel", "feels", "thought", "wanted", "wished", "hoped", "afraid", "happy",
		"sad", "angry", "worried", "excited", "scared", "nervous", "proud", "realized",
		"realised", "decided", "remembered", "lonely", "jealous", "brave", "frightened",
		"curious", "surprised", "ashamed", "grateful",
	)

	traitWords = newLexicon(
		"tall", "short", "old", "young", "kind", "brave", "shy", "clever", "curious",
		"grumpy", "gentle", "strong", "wise", "silly", "stubborn", "loyal", "honest",
		"greedy", "friendly", "quiet", "loud", "smart",
	)

	thirdPersonPronouns = newLexicon("he", "she", "they", "him", "her", "them", "his", "hers", "their")

	speechVerbs = newLexicon(
		"said", "asked", "replied", "shouted", "whispered", "yelled", "called", "answered",
		"cried", "exclaimed", "muttered", "screamed", "laughed", "explained", "told",
	)

	conflictWords = newLexicon(
		"problem", "but", "suddenly", "however", "lost", "afraid", "danger", "fight",
		"trouble", "couldn't", "could not", "stuck", "trapped", "broke", "broken", "storm",
		"monster", "missing", "argued", "worried", "chased", "attack", "accident", "challenge",
	)

	resolutionWords = newLexicon(
		"finally", "solved", "saved", "found", "realized", "realised", "at last", "happily",
		"fixed", "rescued", "escaped", "won", "helped", "apologized", "apologised",
		"forgave", "returned", "together", "safe", "learned", "learnt",
	)

	clichePhrases = newLexicon(
		"once upon a time", "happily ever after", "it was all a dream", "dark and stormy night",
		"the end", "and then i woke up", "little did they know", "out of nowhere",
		"in the nick of time", "all of a sudden", "as fast as lightning", "best day ever",
	)

	onomatopoeia = newLexicon(
		"boom", "crash", "bang", "whoosh", "buzz", "splash", "pop", "sizzle", "thud",
		"crack", "swoosh", "zoom", "woof", "meow", "drip", "rumble", "clang", "hiss",
	)

	imaginativeWords = newLexicon(
		"magic", "magical", "dragon", "invent", "invented", "dream", "imagine", "imagined",
		"wizard", "spell", "secret", "portal", "robot", "alien", "unicorn", "giant",
		"enchanted", "mysterious", "treasure", "spaceship", "talking", "invisible",
	)

	sensoryWords = newLexicon(
		"saw", "see", "looked", "glimmer", "glowed", "sparkled", "heard", "hear", "listened",
		"whispered", "smell", "smelled", "scent", "taste", "tasted", "touch", "touched",
		"felt", "bright", "dark", "soft", "loud", "quiet", "sweet", "sour", "bitter",
		"rough", "smooth", "cold", "warm", "hot", "icy", "fuzzy", "sticky", "crunchy",
		"shiny", "fragrant", "damp", "silky",
	)

	colorWords = newLexicon(
		"red", "blue", "green", "yellow", "orange", "purple", "pink", "golden", "silver",
		"black", "white", "grey", "gray", "brown", "crimson", "violet", "emerald",
	)

	causeEffect = newLexicon(
		"because", "so", "therefore", "since", "as a result", "consequently", "which meant",
		"that is why", "that's why", "thus", "due to", "so that", "caused", "led to",
	)

	themeLexicons = map[string]lexicon{
		"friendship":   newLexicon("friend", "friends", "friendship", "together", "share", "shared", "play", "played", "helped"),
		"courage":      newLexicon("brave", "courage", "fear", "afraid", "scared", "dared", "bravery", "hero"),
		"family":       newLexicon("mom", "mum", "dad", "mother", "father", "sister", "brother", "grandma", "grandpa", "family", "home"),
		"honesty":      newLexicon("truth", "lie", "lied", "honest", "honesty", "sorry", "confessed", "trust"),
		"kindness":     newLexicon("kind", "kindness", "help", "helped", "care", "cared", "gentle", "gift"),
		"perseverance": newLexicon("tried", "try", "again", "practice", "practised", "practiced", "never gave up", "kept going", "hard work"),
		"nature":       newLexicon("tree", "trees", "forest", "river", "animals", "bird", "birds", "flowers", "ocean", "earth", "sky"),
	}

	// Phrases typical of machine-generated prose.
	machinePhrases = newLexicon(
		"a testament to", "tapestry", "delve", "delved", "in conclusion", "it is important to note",
		"embark on a journey", "embarked on a journey", "a sense of", "navigate the complexities",
		"vibrant", "bustling", "whispering winds", "an unbreakable bond", "filled with wonder",
		"couldn't help but", "a newfound", "little did", "palpable", "in the heart of",
		"the air was thick", "a symphony of", "intertwined", "resilience",
	)

	intensifiers = newLexicon(
		"very", "extremely", "utterly", "absolutely", "perfectly", "incredibly", "deeply",
		"completely", "truly", "profoundly", "remarkably", "undeniably",
	)

	// Well-known published lines; a hit strongly suggests copied text.
	famousLines = newLexicon(
		"it was the best of times", "call me ishmael", "in a hole in the ground there lived a hobbit",
		"all children, except one, grow up", "mr. and mrs. dursley", "it is a truth universally acknowledged",
		"happy families are all alike", "the boy with the striped pyjamas", "where the wild things are",
		"in an old house in paris that was covered with vines",
	)
)

var commonWords = toSet(`the be to of and a in that have i it for not on with he as you do at this but his by
from they we say her she or an will my one all would there their what so up out if about who get which go me when
make can like time no just him know take people into year your good some could them see other than then now look
only come its over think also back after use two how our work first well way even new want because any these give
day most us was were had has did said went got saw came made told asked is are been very little big mom dad home
school friend friends play played day night went looked around again down off too here where why know knew
wanted thought felt long more much many next last day days house room door tree dog cat boy girl man woman`)

func toSet(words string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(words) {
		out[w] = struct{}{}
	}
	return out
}
