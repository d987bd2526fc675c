package dialogue

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"lumiere-assistant-backend/internal/ledger"
	"lumiere-assistant-backend/internal/session"
)

// Policy holds the menu-specific business data the handler applies. It is
// loaded from YAML so it can change with the menu.
type Policy struct {
	VATRate           float64  `yaml:"vat_rate"`
	MaxQuantity       int      `yaml:"max_quantity"`
	UpsellPrefixes    []string `yaml:"upsell_prefixes"`
	BeverageMarkers   []string `yaml:"beverage_markers"`
	UpsellPrompt      string   `yaml:"upsell_prompt"`
	AllergenVocab     []string `yaml:"allergen_vocabulary"`
	PopularIDs        []string `yaml:"popular_ids"`
	RecommendFallback string   `yaml:"recommend_fallback"`
	ChatFallback      string   `yaml:"chat_fallback"`
}

func DefaultPolicy() Policy {
	return Policy{
		VATRate:           ledger.DefaultVATRate,
		MaxQuantity:       ledger.DefaultMaxQuantity,
		UpsellPrefixes:    []string{"Mediterranean", "Truffle"},
		BeverageMarkers:   []string{"Wine", "Juice"},
		UpsellPrompt:      "🍷 Would you like to add a beverage? (wine, juice, or water)",
		AllergenVocab:     append([]string(nil), DefaultAllergenVocabulary...),
		PopularIDs:        []string{"m3", "m1", "v1"},
		RecommendFallback: "Based on your preferences, any of our popular dishes would be a great choice.",
		ChatFallback:      "I'm here to help! Would you like to see the menu, order food, or make a reservation?",
	}
}

// LoadPolicy overlays the YAML file at path on the defaults. An empty path
// returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	if p.VATRate < 0 || p.VATRate >= 1 {
		return fmt.Errorf("vat_rate must be in [0, 1), got %v", p.VATRate)
	}
	if p.MaxQuantity < 1 {
		return fmt.Errorf("max_quantity must be at least 1, got %d", p.MaxQuantity)
	}
	if len(p.AllergenVocab) == 0 {
		return fmt.Errorf("allergen_vocabulary must not be empty")
	}
	return nil
}

// WantsUpsell reports whether the order holds an upsell dish but no
// beverage marker yet.
func (p Policy) WantsUpsell(order []session.OrderLine) bool {
	eligible := false
	for _, l := range order {
		for _, m := range p.BeverageMarkers {
			if strings.Contains(l.Name, m) {
				return false
			}
		}
		for _, pre := range p.UpsellPrefixes {
			if strings.HasPrefix(l.Name, pre) {
				eligible = true
			}
		}
	}
	return eligible
}
