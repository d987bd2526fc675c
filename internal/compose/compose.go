// Package compose renders catalog, order and reservation data as reply text.
// Nothing here mutates session state.
package compose

import (
	"fmt"
	"strings"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/ledger"
	"lumiere-assistant-backend/internal/session"
)

const rule = "═════════════════════════════════════════"

var categoryTitles = map[catalog.Category]string{
	catalog.CategoryMain:       "🍝 Main Courses",
	catalog.CategoryVegetarian: "🥗 Vegetarian & Vegan",
	catalog.CategoryDessert:    "🍰 Desserts",
	catalog.CategoryBeverage:   "🍹 Beverages",
}

// annotation marks an item against the customer's allergens. It is empty
// when no allergens are known.
func annotation(it catalog.Item, allergens []string) string {
	if len(allergens) == 0 {
		return ""
	}
	if m := it.Matching(allergens); len(m) > 0 {
		return " ⚠️ Contains: " + strings.Join(m, ", ")
	}
	return " ✅ Safe for you"
}

func allergenList(it catalog.Item, none string) string {
	if len(it.Allergens) == 0 {
		return none
	}
	return strings.Join(it.Allergens, ", ")
}

// Menu lists every item grouped by category.
func Menu(cat *catalog.Catalog, allergens []string) string {
	var b strings.Builder
	b.WriteString("🍽️ **OUR MENU**\n")
	if len(allergens) > 0 {
		fmt.Fprintf(&b, "⚠️ **Your allergies:** %s\n", strings.Join(allergens, ", "))
	}
	for _, c := range catalog.Categories {
		items := cat.InCategory(c)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", categoryTitles[c])
		for i, it := range items {
			fmt.Fprintf(&b, "%d. **%s**%s\n", i+1, it.Name, annotation(it, allergens))
			fmt.Fprintf(&b, "   💰 %s\n", ledger.FormatEUR(it.PriceCents))
			fmt.Fprintf(&b, "   📝 %s\n", it.Description)
			fmt.Fprintf(&b, "   🚨 Allergens: %s\n", allergenList(it, "none"))
		}
	}
	b.WriteString("\n💬 To order: say 'I want [dish name]' or 'Add 2 [dish name]'")
	return b.String()
}

// Beverages lists only the drinks.
func Beverages(cat *catalog.Catalog, allergens []string) string {
	lines := []string{rule, "🍹  **OUR BEVERAGES**", rule}
	for _, it := range cat.Beverages() {
		lines = append(lines,
			fmt.Sprintf("• **%s**%s", it.Name, annotation(it, allergens)),
			fmt.Sprintf("  💰 %s", ledger.FormatEUR(it.PriceCents)),
			fmt.Sprintf("  📝 %s", it.Description),
		)
	}
	lines = append(lines, rule, "💬 **To order:** say 'I want [beverage name]' or 'Add 2 wines'")
	return strings.Join(lines, "\n")
}

// OrderSummary itemizes the order followed by subtotal, VAT and total.
func OrderSummary(st *session.State, rate float64) string {
	if len(st.Order) == 0 {
		return "Your order is empty."
	}
	lines := []string{rule, "📋  **YOUR CURRENT ORDER**", rule}
	for _, l := range st.Order {
		lines = append(lines,
			fmt.Sprintf("• **%dx %s**", l.Quantity, l.Name),
			fmt.Sprintf("  %s each = %s", ledger.FormatEUR(l.UnitPriceCents), ledger.FormatEUR(l.TotalCents())),
		)
	}
	t := ledger.Compute(st.SubtotalCents, rate)
	lines = append(lines,
		rule,
		fmt.Sprintf("💰 **Subtotal:** %s", ledger.FormatEUR(t.Subtotal)),
		fmt.Sprintf("📊 **VAT (%s):** %s", ledger.RatePercent(rate), ledger.FormatEUR(t.VAT)),
		fmt.Sprintf("💳 **TOTAL:** %s", ledger.FormatEUR(t.Total)),
		rule,
	)
	return strings.Join(lines, "\n")
}

// OrderLineList renders "2x Name, 1x Other".
func OrderLineList(order []session.OrderLine) string {
	parts := make([]string, 0, len(order))
	for _, l := range order {
		parts = append(parts, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
	}
	return strings.Join(parts, ", ")
}

// DishInfo describes a dish with its allergens and a personal verdict.
func DishInfo(it catalog.Item, allergens []string) string {
	note := ""
	if len(allergens) > 0 {
		if m := it.Matching(allergens); len(m) > 0 {
			note = fmt.Sprintf("\n\n⚠️ **Warning:** Contains %s - NOT safe for you!", strings.Join(m, ", "))
		} else {
			note = "\n\n✅ **Safe for your allergies!**"
		}
	}
	return fmt.Sprintf("**%s** - %s\n\n📝 %s\n\n🚨 **Allergens:** %s%s\n\n💬 Would you like to order this dish?",
		it.Name, ledger.FormatEUR(it.PriceCents), it.Description, allergenList(it, "None"), note)
}

func Ingredients(it catalog.Item) string {
	if len(it.Ingredients) == 0 {
		return fmt.Sprintf("We did not list detailed ingredients for %s, but the description is: %s", it.Name, it.Description)
	}
	return fmt.Sprintf("The main ingredients in %s are: %s.", it.Name, strings.Join(it.Ingredients, ", "))
}

// AllergenVerdict checks a dish against the declared allergens. Without
// declared allergens it just lists what the dish contains.
func AllergenVerdict(it catalog.Item, allergens []string) string {
	if len(allergens) == 0 {
		return fmt.Sprintf("The listed allergens for %s are: %s.", it.Name, allergenList(it, "none"))
	}
	if m := it.Matching(allergens); len(m) > 0 {
		return fmt.Sprintf("⚠️  **ALLERGEN WARNING**\n\n**%s** contains allergens that you're sensitive to:\n🚨 **%s**\n\n❌ **This dish is NOT SAFE for you.**\n\nPlease choose another option from our menu.",
			it.Name, strings.ToUpper(strings.Join(m, ", ")))
	}
	return fmt.Sprintf("✅  **SAFE FOR YOUR ALLERGIES**\n\n**%s** does not contain:\n%s\n\n💚 **This dish should be SAFE for you.**\n\nHowever, please always inform our staff about your allergies to prevent cross-contamination.",
		it.Name, strings.Join(allergens, ", "))
}
