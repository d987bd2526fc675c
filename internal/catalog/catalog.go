package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

//go:embed menu.json
var defaultMenu []byte

//go:embed faq.txt
var defaultFAQ string

type Category string

const (
	CategoryMain       Category = "main"
	CategoryVegetarian Category = "vegetarian"
	CategoryDessert    Category = "dessert"
	CategoryBeverage   Category = "beverage"
)

// Categories lists display categories in menu order.
var Categories = []Category{CategoryMain, CategoryVegetarian, CategoryDessert, CategoryBeverage}

// CategoryOf derives the display category from an item id prefix.
// "dr" must be checked before "d".
func CategoryOf(id string) (Category, bool) {
	switch {
	case strings.HasPrefix(id, "dr"):
		return CategoryBeverage, true
	case strings.HasPrefix(id, "d"):
		return CategoryDessert, true
	case strings.HasPrefix(id, "v"):
		return CategoryVegetarian, true
	case strings.HasPrefix(id, "m"):
		return CategoryMain, true
	}
	return "", false
}

// Item is an orderable menu entry. Items are immutable once loaded.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Allergens   []string `json:"allergens"`
	Ingredients []string `json:"ingredients"`
	Category    Category `json:"category"`
	PriceCents  int64    `json:"-"`
}

// HasAllergen reports whether the item lists the given allergen.
func (it Item) HasAllergen(allergen string) bool {
	a := strings.ToLower(strings.TrimSpace(allergen))
	for _, x := range it.Allergens {
		if x == a {
			return true
		}
	}
	return false
}

// Matching returns the subset of allergens (in the given order) that the item contains.
func (it Item) Matching(allergens []string) []string {
	var out []string
	for _, a := range allergens {
		if it.HasAllergen(a) {
			out = append(out, a)
		}
	}
	return out
}

type Catalog struct {
	items []Item
	byID  map[string]int
}

type menuFile struct {
	MenuItems []Item `json:"menu_items"`
}

// Parse decodes a {"menu_items": [...]} document and validates it.
func Parse(b []byte) (*Catalog, error) {
	var mf menuFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("failed to decode menu: %w", err)
	}
	if len(mf.MenuItems) == 0 {
		return nil, fmt.Errorf("menu has no items")
	}
	c := &Catalog{items: make([]Item, 0, len(mf.MenuItems)), byID: make(map[string]int, len(mf.MenuItems))}
	for _, it := range mf.MenuItems {
		it.ID = strings.TrimSpace(it.ID)
		it.Name = strings.TrimSpace(it.Name)
		if it.ID == "" || it.Name == "" {
			return nil, fmt.Errorf("menu item %q: id and name are required", it.ID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("menu item %q: duplicate id", it.ID)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("menu item %q: negative price", it.ID)
		}
		cat, ok := CategoryOf(it.ID)
		if !ok {
			return nil, fmt.Errorf("menu item %q: unknown category prefix", it.ID)
		}
		it.Category = cat
		it.PriceCents = int64(math.Round(it.Price * 100))
		allergens := make([]string, 0, len(it.Allergens))
		for _, a := range it.Allergens {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				allergens = append(allergens, a)
			}
		}
		it.Allergens = allergens
		if it.Ingredients == nil {
			it.Ingredients = []string{}
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Load reads the catalog from path, or the embedded menu when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}
	return Parse(b)
}

func Default() (*Catalog, error) {
	return Parse(defaultMenu)
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Catalog) ByID(id string) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// FindByName returns the first item whose name contains name, case-insensitively.
func (c *Catalog) FindByName(name string) (Item, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Item{}, false
	}
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.Name), n) {
			return it, true
		}
	}
	return Item{}, false
}

// InCategory returns the items of one category in catalog order.
func (c *Catalog) InCategory(cat Category) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

func (c *Catalog) Beverages() []Item {
	return c.InCategory(CategoryBeverage)
}

// PriceRange returns the cheapest and the most expensive item.
func (c *Catalog) PriceRange() (lo, hi Item) {
	for i, it := range c.items {
		if i == 0 || it.PriceCents < lo.PriceCents {
			lo = it
		}
		if i == 0 || it.PriceCents > hi.PriceCents {
			hi = it
		}
	}
	return lo, hi
}

// LoadFAQ returns the non-empty lines of the FAQ file, or of the embedded FAQ when path is empty.
func LoadFAQ(path string) ([]string, error) {
	text := defaultFAQ
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read faq file: %w", err)
		}
		text = string(b)
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}
