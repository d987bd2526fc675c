package dialogue

import (
	"fmt"
	"strings"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/ledger"
	"lumiere-assistant-backend/internal/session"
)

const (
	greetingReply = "Hello! 👋 Welcome to Maison Lumière. Would you like to see our menu or place an order?"
	thanksReply   = "You're very welcome! 😊 Anything else I can help with?"
	helpReply     = `I can help with:
• 🍽️ **Show menu** - See all our dishes
• 🛒 **Order food** - Add items to your order
• ⚠️ **Check allergens** - Food safety information
• 📅 **Make reservations** - Book a table
• 💰 **Get bill** - Checkout and pay

What would you like?`

	bookingFormat  = "Format: 'Book for [X] people on YYYY-MM-DD at HH:MM'"
	bookingExample = "**Example:** 'Book for 4 people on 2025-12-15 at 19:00'"

	hoursReply            = "We're open daily from **11:00 to 22:00**. Would you like to make a reservation or see our menu?"
	reservationHoursReply = `We're open every day from **11:00 to 22:00**.

For reservations:
• **Lunch**: 11:00 - 15:00
• **Dinner**: 17:00 - 22:00

What date and time works best for you? (` + bookingFormat + ")"
	paymentReply  = "We accept:\n• Credit/Debit cards 💳\n• Cash 💵\n• Mobile payments 📱\n\nYou can pay when you receive your order or at the restaurant. Would you like to proceed with checkout?"
	deliveryReply = "Yes, we offer delivery! Once you complete your order, we'll send you the bill and delivery details via email. The delivery fee is €3.50 and takes about 30-45 minutes."
)

var (
	greetingWords = []string{"hello", "hi", "hey"}
	hoursWords    = []string{"open", "hours", "time", "when", "available"}
	priceWords    = []string{"price", "cost", "how much", "expensive"}
	paymentWords  = []string{"payment", "pay", "credit card", "cash"}
	opinionWords  = []string{"legendary", "favourite", "favorite", "what do you like"}
)

// hasWord matches whole words only, so "hi" does not fire on "which".
func hasWord(text string, words []string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '\'')
	}) {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

// quickReply answers greetings, a bare "help" and thanks without the bridge.
func quickReply(text string) (string, bool) {
	switch {
	case hasWord(text, greetingWords):
		return greetingReply, true
	case strings.Contains(text, "help") && len(text) < 10:
		return helpReply, true
	case strings.Contains(text, "thank"):
		return thanksReply, true
	}
	return "", false
}

// cannedReply answers common restaurant questions from the catalog and
// house facts. It returns false when the bridge should answer instead.
func cannedReply(text string, st *session.State, cat *catalog.Catalog) (string, bool) {
	switch {
	case containsAny(text, hoursWords):
		if strings.Contains(text, "reservation") || st.Reservation != nil {
			return reservationHoursReply, true
		}
		return hoursReply, true
	case containsAny(text, priceWords):
		lo, hi := cat.PriceRange()
		return fmt.Sprintf("Our menu ranges from %s (%s) to %s (%s). Would you like to see the full menu with prices?",
			ledger.FormatEUR(lo.PriceCents), lo.Name, ledger.FormatEUR(hi.PriceCents), hi.Name), true
	case containsAny(text, paymentWords):
		return paymentReply, true
	case strings.Contains(text, "deliver"):
		return deliveryReply, true
	case strings.Contains(text, "gluten free") || strings.Contains(text, "gluten-free"):
		var names []string
		for _, it := range cat.Items() {
			if it.Category == catalog.CategoryBeverage || it.Category == catalog.CategoryDessert {
				continue
			}
			if !it.HasAllergen("gluten") && !it.HasAllergen("wheat") {
				names = append(names, "• "+it.Name)
			}
		}
		return "We have several gluten-free options! Check out:\n" + strings.Join(names, "\n") +
			"\n\nSay 'show menu' to see all dishes with allergen info.", true
	case strings.Contains(text, "vegetarian"):
		var lines []string
		for _, it := range cat.InCategory(catalog.CategoryVegetarian) {
			lines = append(lines, fmt.Sprintf("• %s (%s)", it.Name, ledger.FormatEUR(it.PriceCents)))
		}
		return "Great choice! We have delicious vegetarian options:\n" + strings.Join(lines, "\n") +
			"\n\nWould you like to order?", true
	}
	return "", false
}

func isOpinionQuestion(text string) bool {
	return containsAny(text, opinionWords)
}
