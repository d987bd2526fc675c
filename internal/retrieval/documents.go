package retrieval

import (
	"fmt"
	"strings"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/ledger"
)

const (
	KindMenu = "menu"
	KindFAQ  = "faq"
)

// Document is one retrievable snippet.
type Document struct {
	ID   string
	Kind string
	Text string
}

// Documents renders every menu item and FAQ line as a snippet, menu first.
func Documents(cat *catalog.Catalog, faq []string) []Document {
	items := cat.Items()
	docs := make([]Document, 0, len(items)+len(faq))
	for _, it := range items {
		docs = append(docs, Document{ID: it.ID, Kind: KindMenu, Text: menuText(it)})
	}
	for i, line := range faq {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		docs = append(docs, Document{ID: fmt.Sprintf("faq-%d", i+1), Kind: KindFAQ, Text: line})
	}
	return docs
}

func menuText(it catalog.Item) string {
	ingredients := "not specified"
	if len(it.Ingredients) > 0 {
		ingredients = strings.Join(it.Ingredients, ", ")
	}
	allergens := "none"
	if len(it.Allergens) > 0 {
		allergens = strings.Join(it.Allergens, ", ")
	}
	return fmt.Sprintf("%s (%s): %s. Price: %s. Ingredients: %s. Allergens: %s.",
		it.Name, it.Category, strings.TrimRight(it.Description, ". "), ledger.FormatEUR(it.PriceCents), ingredients, allergens)
}
