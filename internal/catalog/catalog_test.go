package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	pizza, ok := c.FindByName("margherita")
	require.True(t, ok)
	assert.Equal(t, "Classic Margherita Pizza", pizza.Name)
	assert.Equal(t, int64(1650), pizza.PriceCents)
	assert.Equal(t, CategoryVegetarian, pizza.Category)

	for _, it := range c.Beverages() {
		assert.Equal(t, "dr", it.ID[:2])
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		id   string
		want Category
		ok   bool
	}{
		{id: "m1", want: CategoryMain, ok: true},
		{id: "v2", want: CategoryVegetarian, ok: true},
		{id: "d3", want: CategoryDessert, ok: true},
		{id: "dr1", want: CategoryBeverage, ok: true},
		{id: "x9", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := CategoryOf(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsInvalidMenus(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: `{"menu_items": []}`},
		{name: "duplicate", body: `{"menu_items": [{"id":"m1","name":"A","price":1},{"id":"m1","name":"B","price":2}]}`},
		{name: "negative", body: `{"menu_items": [{"id":"m1","name":"A","price":-1}]}`},
		{name: "prefix", body: `{"menu_items": [{"id":"z1","name":"A","price":1}]}`},
		{name: "malformed", body: `{"menu_items": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseNormalizesAllergens(t *testing.T) {
	c, err := Parse([]byte(`{"menu_items": [{"id":"m1","name":"Soup","price":4.1,"allergens":[" Milk ","CELERY",""]}]}`))
	require.NoError(t, err)

	it, ok := c.ByID("m1")
	require.True(t, ok)
	assert.Equal(t, []string{"milk", "celery"}, it.Allergens)
	assert.Equal(t, int64(410), it.PriceCents)
	assert.NotNil(t, it.Ingredients)
	assert.Equal(t, []string{"milk"}, it.Matching([]string{"nuts", "milk"}))
}

func TestLoadFromFileAndFAQ(t *testing.T) {
	dir := t.TempDir()
	menu := filepath.Join(dir, "menu.json")
	require.NoError(t, os.WriteFile(menu, []byte(`{"menu_items": [{"id":"dr1","name":"Tea","price":2}]}`), 0o600))
	faq := filepath.Join(dir, "faq.txt")
	require.NoError(t, os.WriteFile(faq, []byte("line one\n\n  line two  \n"), 0o600))

	c, err := Load(menu)
	require.NoError(t, err)
	assert.Len(t, c.Items(), 1)

	lines, err := LoadFAQ(faq)
	require.NoError(t, err)
	assert.Equal(t, []string{"line one", "line two"}, lines)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestPriceRange(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	lo, hi := c.PriceRange()
	assert.Equal(t, "Sparkling Mineral Water", lo.Name)
	assert.Equal(t, "Grilled Ribeye Steak", hi.Name)
}
