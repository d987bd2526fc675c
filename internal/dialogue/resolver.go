package dialogue

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"lumiere-assistant-backend/internal/catalog"
)

var (
	quantityPattern = regexp.MustCompile(`(\d+)\s*(x|pieces?|orders?|glass|glasses)?`)

	// Removed by plain substring replacement, in this order.
	stopPhrases = []string{"add", "order", "want", "get", "i'll have", "i want", "give me", "wanna", "i'd like", "please", "for me"}
)

// ScoreFunc rates how well a residual phrase names a dish. exact reports a
// match that should end the search immediately.
type ScoreFunc func(phrase, name string) (score int, exact bool)

// Score prefers exact equality, then containment scored by the longer
// string's length, then 20 points per shared word longer than three letters.
func Score(phrase, name string) (int, bool) {
	if phrase == "" {
		return 0, false
	}
	if phrase == name {
		return len(name), true
	}
	best := 0
	if strings.Contains(name, phrase) || strings.Contains(phrase, name) {
		best = max(len(phrase), len(name))
	}
	words := make(map[string]bool)
	for _, w := range strings.Fields(name) {
		if len(w) > 3 {
			words[w] = true
		}
	}
	shared := 0
	for _, w := range strings.Fields(phrase) {
		if len(w) > 3 && words[w] {
			shared++
			delete(words, w)
		}
	}
	return max(best, 20*shared), false
}

// fold lower-cases and strips combining marks so "creme brulee" meets "Crème Brûlée".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

type Resolution struct {
	Item     catalog.Item
	Found    bool
	Quantity int
}

// Resolver finds the catalog item an utterance refers to.
type Resolver struct {
	items []catalog.Item
	names []string
	score ScoreFunc
}

func NewResolver(cat *catalog.Catalog, score ScoreFunc) *Resolver {
	if score == nil {
		score = Score
	}
	items := cat.Items()
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = fold(it.Name)
	}
	return &Resolver{items: items, names: names, score: score}
}

// Quantity returns the first integer in text, or 1. Numbers too large for
// an int saturate at math.MaxInt so callers can reject them.
func Quantity(text string) int {
	m := quantityPattern.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Residual strips ordering verbs and quantities, leaving the dish phrase.
func Residual(text string) string {
	clean := strings.ToLower(text)
	for _, p := range stopPhrases {
		clean = strings.ReplaceAll(clean, p, " ")
	}
	clean = quantityPattern.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

// Resolve picks the best scoring item; ties go to the earlier catalog item.
func (r *Resolver) Resolve(text string) Resolution {
	res := Resolution{Quantity: Quantity(strings.ToLower(text))}
	phrase := fold(Residual(text))
	best := 0
	for i, name := range r.names {
		score, exact := r.score(phrase, name)
		if exact {
			res.Item, res.Found = r.items[i], true
			return res
		}
		if score > best {
			best = score
			res.Item, res.Found = r.items[i], true
		}
	}
	return res
}
