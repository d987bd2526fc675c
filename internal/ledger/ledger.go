// Package ledger owns the order lines of a session and the money math derived from them.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/session"
)

// DefaultVATRate is applied when no policy overrides it.
const DefaultVATRate = 0.12

// DefaultMaxQuantity caps a single order line.
const DefaultMaxQuantity = 99

var (
	ErrDishNotFound  = errors.New("dish not found")
	ErrQuantityLimit = errors.New("quantity limit exceeded")
)

// Totals is derived from the subtotal on demand and never stored.
type Totals struct {
	Subtotal int64
	VAT      int64
	Total    int64
}

func Compute(subtotalCents int64, rate float64) Totals {
	vat := int64(math.Round(float64(subtotalCents) * rate))
	return Totals{Subtotal: subtotalCents, VAT: vat, Total: subtotalCents + vat}
}

// FormatEUR renders cents as "€12.34".
func FormatEUR(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s€%d.%02d", sign, cents/100, cents%100)
}

// RatePercent renders a rate such as 0.12 as "12%".
func RatePercent(rate float64) string {
	return fmt.Sprintf("%g%%", math.Round(rate*10000)/100)
}

// Add resolves dishName by partial name match and adds qty of it. An item
// already in the order has its quantity increased. Lines are capped at
// DefaultMaxQuantity.
func Add(st *session.State, cat *catalog.Catalog, dishName string, qty int) (string, error) {
	return AddCapped(st, cat, dishName, qty, DefaultMaxQuantity)
}

// AddCapped is Add with an explicit per-line maximum. A request that would
// take the line above maxQty leaves the order unchanged.
func AddCapped(st *session.State, cat *catalog.Catalog, dishName string, qty, maxQty int) (string, error) {
	item, ok := cat.FindByName(dishName)
	if !ok {
		return fmt.Sprintf("Sorry, I could not find a dish matching '%s'. Please check the menu.", dishName), ErrDishNotFound
	}
	if qty < 1 {
		qty = 1
	}
	if maxQty < 1 {
		maxQty = DefaultMaxQuantity
	}
	current := 0
	if i := st.Line(item.ID); i >= 0 {
		current = st.Order[i].Quantity
	}
	if qty > maxQty-current {
		msg := fmt.Sprintf("Sorry, we can take at most %d x %s per order.", maxQty, item.Name)
		if current > 0 {
			msg += fmt.Sprintf(" You already have %d in your order.", current)
		}
		return msg, ErrQuantityLimit
	}
	if i := st.Line(item.ID); i >= 0 {
		st.Order[i].Quantity += qty
	} else {
		st.Order = append(st.Order, session.OrderLine{
			ItemID:         item.ID,
			Name:           item.Name,
			Quantity:       qty,
			UnitPriceCents: item.PriceCents,
		})
	}
	st.Recalculate()
	return fmt.Sprintf("Added %d x %s to your order. Current total is %s.", qty, item.Name, FormatEUR(st.SubtotalCents)), nil
}

// Remove drops the line for dishName. Removing a dish that is not in the
// order leaves the order untouched.
func Remove(st *session.State, cat *catalog.Catalog, dishName string) (string, error) {
	if len(st.Order) == 0 {
		return "Your order is empty.", nil
	}
	item, ok := cat.FindByName(dishName)
	if !ok {
		return fmt.Sprintf("Sorry, I could not find '%s' in the menu.", dishName), ErrDishNotFound
	}
	i := st.Line(item.ID)
	if i < 0 {
		return fmt.Sprintf("%s was not found in your order. Current total is %s.", item.Name, FormatEUR(st.SubtotalCents)), nil
	}
	st.Order = append(st.Order[:i], st.Order[i+1:]...)
	st.Recalculate()
	return fmt.Sprintf("Removed %s from your order. Current total is %s.", item.Name, FormatEUR(st.SubtotalCents)), nil
}

// Clear empties the order. Clearing an empty order is not an error.
func Clear(st *session.State) string {
	if len(st.Order) == 0 {
		st.Recalculate()
		return "Your order is already empty. Would you like to see the menu?"
	}
	st.Order = st.Order[:0]
	st.Recalculate()
	return "Your order has been cleared. Would you like to see the menu again or start a new order?"
}
