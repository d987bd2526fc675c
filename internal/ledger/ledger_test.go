package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/session"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func sum(st *session.State) int64 {
	var total int64
	for _, l := range st.Order {
		total += l.UnitPriceCents * int64(l.Quantity)
	}
	return total
}

func TestAddMergesLines(t *testing.T) {
	cat := defaultCatalog(t)
	st := session.New()

	msg, err := Add(st, cat, "Classic Margherita Pizza", 2)
	require.NoError(t, err)
	assert.Equal(t, "Added 2 x Classic Margherita Pizza to your order. Current total is €33.00.", msg)

	_, err = Add(st, cat, "margherita", 1)
	require.NoError(t, err)

	require.Len(t, st.Order, 1)
	assert.Equal(t, 3, st.Order[0].Quantity)
	assert.Equal(t, int64(4950), st.SubtotalCents)
}

func TestAddUnknownDish(t *testing.T) {
	st := session.New()
	msg, err := Add(st, defaultCatalog(t), "unicorn burger", 1)
	assert.ErrorIs(t, err, ErrDishNotFound)
	assert.Contains(t, msg, "could not find a dish matching 'unicorn burger'")
	assert.Empty(t, st.Order)
}

func TestAddClampsQuantity(t *testing.T) {
	st := session.New()
	_, err := Add(st, defaultCatalog(t), "Crème Brûlée", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Order[0].Quantity)
}

func TestAddRejectsQuantityAboveLimit(t *testing.T) {
	cat := defaultCatalog(t)
	tests := []struct {
		name    string
		initial int
		qty     int
		max     int
		want    string
	}{
		{name: "huge quantity", qty: 6000000000000000, max: DefaultMaxQuantity, want: "at most 99 x Classic Margherita Pizza"},
		{name: "max int", qty: math.MaxInt, max: DefaultMaxQuantity, want: "at most 99"},
		{name: "increment past cap", initial: 98, qty: 2, max: DefaultMaxQuantity, want: "You already have 98 in your order."},
		{name: "custom cap", initial: 1, qty: 5, max: 5, want: "at most 5 x Classic Margherita Pizza"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := session.New()
			if tt.initial > 0 {
				_, err := AddCapped(st, cat, "Classic Margherita Pizza", tt.initial, tt.max)
				require.NoError(t, err)
			}
			before := st.SubtotalCents

			msg, err := AddCapped(st, cat, "Classic Margherita Pizza", tt.qty, tt.max)
			assert.ErrorIs(t, err, ErrQuantityLimit)
			assert.Contains(t, msg, tt.want)
			assert.Equal(t, before, st.SubtotalCents)
			assert.Equal(t, sum(st), st.SubtotalCents)
			for _, l := range st.Order {
				assert.LessOrEqual(t, l.Quantity, tt.max)
				assert.Positive(t, l.Quantity)
			}
		})
	}
}

func TestAddUpToLimit(t *testing.T) {
	st := session.New()
	_, err := Add(st, defaultCatalog(t), "Classic Margherita Pizza", DefaultMaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxQuantity, st.Order[0].Quantity)
	assert.Equal(t, int64(99*1650), st.SubtotalCents)

	_, err = Add(st, defaultCatalog(t), "Classic Margherita Pizza", 1)
	assert.ErrorIs(t, err, ErrQuantityLimit)
	assert.Equal(t, DefaultMaxQuantity, st.Order[0].Quantity)
}

func TestRemove(t *testing.T) {
	cat := defaultCatalog(t)

	t.Run("empty order", func(t *testing.T) {
		st := session.New()
		msg, err := Remove(st, cat, "nonexistent thing")
		require.NoError(t, err)
		assert.Equal(t, "Your order is empty.", msg)
	})

	t.Run("not in order is a no-op", func(t *testing.T) {
		st := session.New()
		_, err := Add(st, cat, "Seafood Linguine", 1)
		require.NoError(t, err)
		before := st.SubtotalCents

		msg, err := Remove(st, cat, "Chocolate Lava Cake")
		require.NoError(t, err)
		assert.Contains(t, msg, "not found")
		assert.Len(t, st.Order, 1)
		assert.Equal(t, before, st.SubtotalCents)
	})

	t.Run("unknown dish", func(t *testing.T) {
		st := session.New()
		_, _ = Add(st, cat, "Seafood Linguine", 1)
		_, err := Remove(st, cat, "pancakes")
		assert.ErrorIs(t, err, ErrDishNotFound)
		assert.Len(t, st.Order, 1)
	})

	t.Run("removes the line", func(t *testing.T) {
		st := session.New()
		_, _ = Add(st, cat, "Seafood Linguine", 2)
		_, _ = Add(st, cat, "House Red Wine", 1)
		msg, err := Remove(st, cat, "linguine")
		require.NoError(t, err)
		assert.Equal(t, "Removed Seafood Linguine from your order. Current total is €7.50.", msg)
		require.Len(t, st.Order, 1)
		assert.Equal(t, "dr1", st.Order[0].ItemID)
	})
}

func TestClearIsIdempotent(t *testing.T) {
	st := session.New()
	_, _ = Add(st, defaultCatalog(t), "Vegan Buddha Bowl", 1)

	assert.Contains(t, Clear(st), "has been cleared")
	assert.Contains(t, Clear(st), "already empty")
	assert.Empty(t, st.Order)
	assert.Zero(t, st.SubtotalCents)
}

func TestSubtotalMatchesLinesAfterAnySequence(t *testing.T) {
	cat := defaultCatalog(t)
	st := session.New()
	steps := []func(){
		func() { _, _ = Add(st, cat, "Grilled Ribeye", 2) },
		func() { _, _ = Add(st, cat, "Fresh Orange Juice", 3) },
		func() { _, _ = Remove(st, cat, "Grilled Ribeye") },
		func() { _, _ = Add(st, cat, "Pistachio Tiramisu", 1) },
		func() { _, _ = Remove(st, cat, "Thai Peanut Noodles") },
		func() { Clear(st) },
		func() { _, _ = Add(st, cat, "Craft Pale Ale", 4) },
	}
	for _, step := range steps {
		step()
		assert.Equal(t, sum(st), st.SubtotalCents)
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		vat      int64
	}{
		{name: "zero", subtotal: 0, vat: 0},
		{name: "pizza pair", subtotal: 3300, vat: 396},
		{name: "exact", subtotal: 1250, vat: 150},
		{name: "rounds up", subtotal: 1005, vat: 121},
		{name: "rounds down", subtotal: 1001, vat: 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.subtotal, DefaultVATRate)
			assert.Equal(t, tt.vat, got.VAT)
			assert.Equal(t, got.Subtotal+got.VAT, got.Total)
		})
	}
}

func TestFormatEUR(t *testing.T) {
	assert.Equal(t, "€33.00", FormatEUR(3300))
	assert.Equal(t, "€0.05", FormatEUR(5))
	assert.Equal(t, "-€1.20", FormatEUR(-120))
	assert.Equal(t, "12%", RatePercent(0.12))
}
