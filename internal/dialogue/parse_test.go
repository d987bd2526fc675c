package dialogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumiere-assistant-backend/internal/session"
)

func TestParseReservation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want session.Reservation
	}{
		{name: "iso", text: "book for 4 people on 2025-12-15 at 19:00", want: session.Reservation{Date: "2025-12-15", Time: "19:00", PartySize: 4}},
		{name: "us date and short time", text: "Table on 12/5/2025 at 7:30 for 2", want: session.Reservation{Date: "2025-12-05", Time: "07:30", PartySize: 2}},
		{name: "people suffix", text: "2026-01-02 20:15, 6 people", want: session.Reservation{Date: "2026-01-02", Time: "20:15", PartySize: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReservation(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReservationRejects(t *testing.T) {
	for _, text := range []string{
		"I'd like to book a table",
		"book for 4 people on 2025-12-15",
		"book on 2025-12-15 at 19:00",
		"book for 0 people on 2025-12-15 at 19:00",
		"book for 2 people on 2025-02-30 at 19:00",
		"book for 2 people on 2025-12-15 at 25:00",
	} {
		_, err := ParseReservation(text)
		assert.ErrorIs(t, err, ErrMalformedReservation, text)
	}
}

func TestExtractAllergens(t *testing.T) {
	assert.Equal(t, []string{"milk", "nuts", "peanuts"}, ExtractAllergens("I'm allergic to milk and peanuts", DefaultAllergenVocabulary))
	assert.Equal(t, []string{"milk", "dairy"}, ExtractAllergens("No DAIRY for me", DefaultAllergenVocabulary))
	assert.Empty(t, ExtractAllergens("I'm allergic to cats", DefaultAllergenVocabulary))
}

func TestIsAllergenDeclaration(t *testing.T) {
	assert.True(t, IsAllergenDeclaration("I have a nut allergy"))
	assert.True(t, IsAllergenDeclaration("I'm allergic to soy"))
	assert.False(t, IsAllergenDeclaration("is the risotto ok for my allergy?"))
}

func TestPolicyUpsell(t *testing.T) {
	p := DefaultPolicy()
	salmon := session.OrderLine{ItemID: "m1", Name: "Mediterranean Grilled Salmon", Quantity: 1}
	wine := session.OrderLine{ItemID: "dr1", Name: "House Red Wine", Quantity: 1}
	water := session.OrderLine{ItemID: "dr3", Name: "Sparkling Mineral Water", Quantity: 1}
	steak := session.OrderLine{ItemID: "m3", Name: "Grilled Ribeye Steak", Quantity: 1}

	assert.True(t, p.WantsUpsell([]session.OrderLine{salmon}))
	assert.True(t, p.WantsUpsell([]session.OrderLine{salmon, water}))
	assert.False(t, p.WantsUpsell([]session.OrderLine{wine, salmon}))
	assert.False(t, p.WantsUpsell([]session.OrderLine{steak}))
	assert.False(t, p.WantsUpsell(nil))
}

func TestLoadPolicy(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vat_rate: 0.2\nupsell_prefixes: [Grilled]\n"), 0o600))
	p, err = LoadPolicy(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p.VATRate, 1e-9)
	assert.Equal(t, []string{"Grilled"}, p.UpsellPrefixes)
	assert.Equal(t, []string{"Wine", "Juice"}, p.BeverageMarkers)
	assert.Equal(t, 99, p.MaxQuantity)

	require.NoError(t, os.WriteFile(path, []byte("vat_rate: 1.5\n"), 0o600))
	_, err = LoadPolicy(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("max_quantity: 0\n"), 0o600))
	_, err = LoadPolicy(path)
	assert.ErrorContains(t, err, "max_quantity")
}
