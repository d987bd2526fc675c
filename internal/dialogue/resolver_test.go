package dialogue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumiere-assistant-backend/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func TestResolve(t *testing.T) {
	r := NewResolver(testCatalog(t), nil)

	tests := []struct {
		name string
		text string
		id   string
		qty  int
	}{
		{name: "quantity and partial name", text: "I want 2 margherita pizza", id: "v3", qty: 2},
		{name: "unit word", text: "add 3 glasses of house red wine", id: "dr1", qty: 3},
		{name: "exact name", text: "Classic Margherita Pizza", id: "v3", qty: 1},
		{name: "accent insensitive", text: "creme brulee", id: "d2", qty: 1},
		{name: "containment prefers longer", text: "grilled", id: "m1", qty: 1},
		{name: "overlap tie goes to catalog order", text: "steak salmon", id: "m1", qty: 1},
		{name: "stop phrases removed", text: "give me the lava cake please", id: "d1", qty: 1},
		{name: "order phrase", text: "I'd like the risotto", id: "m2", qty: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.text)
			require.True(t, got.Found)
			assert.Equal(t, tt.id, got.Item.ID)
			assert.Equal(t, tt.qty, got.Quantity)
		})
	}
}

func TestResolveNothing(t *testing.T) {
	r := NewResolver(testCatalog(t), nil)
	got := r.Resolve("unicorn")
	assert.False(t, got.Found)
	assert.Equal(t, 1, got.Quantity)
}

func TestScore(t *testing.T) {
	score, exact := Score("pizza", "classic margherita pizza")
	assert.False(t, exact)
	assert.Equal(t, 24, score)

	score, _ = Score("margherita pizza please", "classic margherita pizza")
	assert.Equal(t, 40, score)

	_, exact = Score("seafood linguine", "seafood linguine")
	assert.True(t, exact)

	score, _ = Score("", "seafood linguine")
	assert.Zero(t, score)
}

func TestCustomScore(t *testing.T) {
	last := func(_, name string) (int, bool) {
		if name == "craft pale ale" {
			return 1, false
		}
		return 0, false
	}
	got := NewResolver(testCatalog(t), last).Resolve("anything")
	require.True(t, got.Found)
	assert.Equal(t, "dr4", got.Item.ID)
}

func TestQuantityAndResidual(t *testing.T) {
	assert.Equal(t, 1, Quantity("no numbers here"))
	assert.Equal(t, 4, Quantity("4x tiramisu"))
	assert.Equal(t, 1, Quantity("0 pizzas"))
	assert.Equal(t, math.MaxInt, Quantity("add 99999999999999999999999 tiramisu"))
	assert.Equal(t, "margherita pizza", Residual("2 Margherita Pizza please"))
}
