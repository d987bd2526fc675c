package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/ledger"
	"lumiere-assistant-backend/internal/session"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func orderedState(t *testing.T) *session.State {
	t.Helper()
	st := session.New()
	_, err := ledger.Add(st, testCatalog(t), "Classic Margherita Pizza", 2)
	require.NoError(t, err)
	_, err = ledger.Add(st, testCatalog(t), "House Red Wine", 1)
	require.NoError(t, err)
	return st
}

func TestMenuGroupsAndAnnotates(t *testing.T) {
	cat := testCatalog(t)
	out := Menu(cat, []string{"milk"})

	mains := strings.Index(out, "Main Courses")
	veg := strings.Index(out, "Vegetarian & Vegan")
	desserts := strings.Index(out, "Desserts")
	drinks := strings.Index(out, "Beverages")
	assert.True(t, mains < veg && veg < desserts && desserts < drinks, "categories out of order")

	assert.Contains(t, out, "**Truffle Mushroom Risotto** ⚠️ Contains: milk")
	assert.Contains(t, out, "**Mediterranean Grilled Salmon** ✅ Safe for you")
	assert.Contains(t, out, "€24.50")
}

func TestMenuWithoutAllergensHasNoVerdicts(t *testing.T) {
	out := Menu(testCatalog(t), nil)
	assert.NotContains(t, out, "Safe for you")
	assert.NotContains(t, out, "Contains:")
}

func TestBeveragesOnlyListsDrinks(t *testing.T) {
	out := Beverages(testCatalog(t), []string{"gluten"})
	assert.Contains(t, out, "House Red Wine")
	assert.Contains(t, out, "**Craft Pale Ale** ⚠️ Contains: gluten")
	assert.NotContains(t, out, "Chocolate Lava Cake")
}

func TestOrderSummaryTotals(t *testing.T) {
	st := orderedState(t)
	out := OrderSummary(st, ledger.DefaultVATRate)

	// 33.00 + 7.50 = 40.50; VAT 4.86; total 45.36
	assert.Contains(t, out, "**2x Classic Margherita Pizza**")
	assert.Contains(t, out, "€16.50 each = €33.00")
	assert.Contains(t, out, "**Subtotal:** €40.50")
	assert.Contains(t, out, "**VAT (12%):** €4.86")
	assert.Contains(t, out, "**TOTAL:** €45.36")

	assert.Equal(t, "Your order is empty.", OrderSummary(session.New(), ledger.DefaultVATRate))
}

func TestBillMatchesSummary(t *testing.T) {
	st := orderedState(t)
	st.Reservation = &session.Reservation{Date: "2025-12-15", Time: "19:00", PartySize: 4, HasPreorder: true}

	html, err := BillHTML(st, ledger.DefaultVATRate)
	require.NoError(t, err)
	assert.Contains(t, html, "€40.50")
	assert.Contains(t, html, "€4.86")
	assert.Contains(t, html, "Total: €45.36")
	assert.Contains(t, html, "2025-12-15")
	assert.Contains(t, html, "4 people")

	st.Reservation = nil
	html, err = BillHTML(st, ledger.DefaultVATRate)
	require.NoError(t, err)
	assert.NotContains(t, html, "Your Reservation")
}

func TestReservationHTML(t *testing.T) {
	res := session.Reservation{Date: "2025-12-15", Time: "19:00", PartySize: 2}

	html, err := ReservationHTML(res, nil)
	require.NoError(t, err)
	assert.Contains(t, html, "2 people")
	assert.NotContains(t, html, "Pre-Order")

	html, err = ReservationHTML(res, orderedState(t).Order)
	require.NoError(t, err)
	assert.Contains(t, html, "Pre-Order")
	assert.Contains(t, html, "2x Classic Margherita Pizza - €33.00")
}

func TestAllergenVerdict(t *testing.T) {
	cat := testCatalog(t)
	noodles, ok := cat.ByID("m5")
	require.True(t, ok)

	out := AllergenVerdict(noodles, []string{"milk", "nuts", "peanuts"})
	assert.Contains(t, out, "NOT SAFE")
	assert.Contains(t, out, "PEANUTS")

	salmon, _ := cat.ByID("m1")
	out = AllergenVerdict(salmon, []string{"milk"})
	assert.Contains(t, out, "SAFE")
	assert.NotContains(t, out, "NOT SAFE")
	assert.Contains(t, out, "cross-contamination")

	assert.Equal(t, "The listed allergens for Mediterranean Grilled Salmon are: fish.", AllergenVerdict(salmon, nil))
}

func TestDishInfoAndIngredients(t *testing.T) {
	cat := testCatalog(t)
	risotto, _ := cat.ByID("m2")
	out := DishInfo(risotto, []string{"milk"})
	assert.Contains(t, out, "**Truffle Mushroom Risotto** - €22.00")
	assert.Contains(t, out, "NOT safe for you")

	water, _ := cat.ByID("dr3")
	assert.Contains(t, DishInfo(water, nil), "**Allergens:** None")

	assert.Contains(t, Ingredients(risotto), "The main ingredients in Truffle Mushroom Risotto are: arborio rice")
	water.Ingredients = nil
	assert.Contains(t, Ingredients(water), "did not list detailed ingredients")
}

func TestShortlist(t *testing.T) {
	cat := testCatalog(t)
	popular := []string{"m3", "m1", "v1"}

	tests := []struct {
		name      string
		allergens []string
		text      string
		wantIDs   []string
	}{
		{name: "popular", text: "what do you recommend", wantIDs: []string{"m1", "m3", "v1"}},
		{name: "popular without milk", allergens: []string{"milk"}, text: "recommend something", wantIDs: []string{"m1", "v1"}},
		{name: "vegetarian", text: "any vegan recommendation", wantIDs: []string{"v1", "v2", "v3"}},
		{name: "dessert safe for eggs", allergens: []string{"eggs"}, text: "a sweet treat", wantIDs: []string{"m1", "m2", "m3"}},
		{name: "drinks", text: "suggest a drink", wantIDs: []string{"dr1", "dr2", "dr3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, picks := Shortlist(cat, tt.allergens, tt.text, popular)
			var ids []string
			for _, p := range picks {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	out := Recommendations(cat, []string{"fish"}, "recommend", popular)
	assert.Contains(t, out, "Most Popular Dishes")
	assert.Contains(t, out, "Grilled Ribeye Steak** - €32.00 ✅")
	assert.NotContains(t, out, "Salmon")
}
