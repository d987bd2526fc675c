package dialogue

import "strings"

// DefaultAllergenVocabulary is the set of allergens recognised in free text.
var DefaultAllergenVocabulary = []string{"milk", "dairy", "eggs", "fish", "shellfish", "nuts", "peanuts", "wheat", "gluten", "soy", "sesame", "sulfites"}

var declarationPhrases = []string{"i am allergic", "i'm allergic", "allergic to", "i have", "allergy to"}

// ExtractAllergens returns the vocabulary words found in text, in vocabulary
// order. Matching is by substring, so "peanuts" also yields "nuts". "dairy"
// implies "milk".
func ExtractAllergens(text string, vocab []string) []string {
	lower := strings.ToLower(text)
	var found []string
	seen := make(map[string]bool)
	add := func(a string) {
		if !seen[a] {
			seen[a] = true
			found = append(found, a)
		}
	}
	for _, a := range vocab {
		if !strings.Contains(lower, a) {
			continue
		}
		if a == "dairy" {
			add("milk")
		}
		add(a)
	}
	return found
}

// IsAllergenDeclaration tells "I'm allergic to X" apart from "is X safe for me?".
func IsAllergenDeclaration(text string) bool {
	return containsAny(strings.ToLower(text), declarationPhrases)
}
