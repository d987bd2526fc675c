package compose

import (
	"fmt"
	"slices"
	"strings"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/ledger"
)

const shortlistSize = 3

type shortlistRule struct {
	keywords []string
	category catalog.Category
	title    string
}

var shortlistRules = []shortlistRule{
	{keywords: []string{"vegetarian", "vegan", "plant"}, category: catalog.CategoryVegetarian, title: "🥗 **Vegetarian & Vegan Recommendations**"},
	{keywords: []string{"dessert", "sweet", "cake", "chocolate"}, category: catalog.CategoryDessert, title: "🍰 **Dessert Recommendations**"},
	{keywords: []string{"drink", "beverage", "wine", "beer", "juice"}, category: catalog.CategoryBeverage, title: "🍹 **Beverage Recommendations**"},
}

// SafeItems returns the items containing none of the allergens, in catalog order.
func SafeItems(cat *catalog.Catalog, allergens []string) []catalog.Item {
	var out []catalog.Item
	for _, it := range cat.Items() {
		if len(it.Matching(allergens)) == 0 {
			out = append(out, it)
		}
	}
	return out
}

// Shortlist picks up to three allergen-safe items. The category follows
// keywords in text; otherwise the popular ids are used. When the chosen
// group is empty the first safe items are returned instead.
func Shortlist(cat *catalog.Catalog, allergens []string, text string, popular []string) (string, []catalog.Item) {
	safe := SafeItems(cat, allergens)
	lower := strings.ToLower(text)

	title := "✨ **Most Popular Dishes**"
	var picks []catalog.Item
	matched := false
	for _, r := range shortlistRules {
		if containsAny(lower, r.keywords) {
			title = r.title
			for _, it := range safe {
				if it.Category == r.category {
					picks = append(picks, it)
				}
			}
			matched = true
			break
		}
	}
	if !matched {
		for _, it := range safe {
			if slices.Contains(popular, it.ID) {
				picks = append(picks, it)
			}
		}
	}
	if len(picks) == 0 {
		picks = safe
	}
	if len(picks) > shortlistSize {
		picks = picks[:shortlistSize]
	}
	return title, picks
}

// Recommendations renders the shortlist as a reply.
func Recommendations(cat *catalog.Catalog, allergens []string, text string, popular []string) string {
	title, picks := Shortlist(cat, allergens, text, popular)
	if len(picks) == 0 {
		return "I'm sorry, I couldn't find a dish that avoids all of your allergens. Please ask our staff for help."
	}
	mark := ""
	if len(allergens) > 0 {
		mark = " ✅"
	}
	lines := []string{title, ""}
	for i, it := range picks {
		lines = append(lines,
			fmt.Sprintf("**%d. %s** - %s%s", i+1, it.Name, ledger.FormatEUR(it.PriceCents), mark),
			fmt.Sprintf("   _%s_", it.Description),
		)
	}
	lines = append(lines, "", "💬 Would you like to order any of these?")
	return strings.Join(lines, "\n")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
