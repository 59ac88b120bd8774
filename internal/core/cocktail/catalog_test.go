package cocktail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRows 測試用材料表：0 Vodka, 1 Gin, 2 Soda, 3 Tonic, 4 Lime
func testRows() []FlavorRecord {
	return []FlavorRecord{
		{Name: "Vodka", ABV: 40, Boozy: 90},
		{Name: "Gin", ABV: 40, Herbal: 70, Boozy: 85},
		{Name: "Soda", ABV: 0, Salty: 10, PerceivedTemperature: 20},
		{Name: "Tonic", ABV: 0, Sweet: 30, Bitter: 40, PerceivedTemperature: 20},
		{Name: "Lime", ABV: 0, Sour: 90, Fruity: 60},
	}
}

func testCategories() map[string][]string {
	return map[string][]string{
		"Vodka": {CategoryAlcohol},
		"Gin":   {CategoryAlcohol},
		"Soda":  {CategoryMixer},
		"Tonic": {CategoryMixer},
		"Lime":  {CategoryCondiment},
	}
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(testRows(), testCategories())
	require.NoError(t, err)
	return c
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Vodka", "Vodka"},
		{"  Vodka \n", "Vodka"},
		{`Tito\'s Vodka`, "Tito's Vodka"},
		{`\"Dry\" Vermouth`, `"Dry" Vermouth`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestNewCatalog(t *testing.T) {
	c := newTestCatalog(t)

	assert.Equal(t, 5, c.Size())
	assert.Equal(t, []string{"Vodka", "Gin", "Soda", "Tonic", "Lime"}, c.Names())

	for id, name := range c.Names() {
		got, err := c.LookupID(name)
		require.NoError(t, err)
		assert.Equal(t, id, got)

		ing, ok := c.ByID(id)
		require.True(t, ok)
		assert.Equal(t, name, ing.Name)
	}

	gin, err := c.Attributes(" Gin ")
	require.NoError(t, err)
	assert.Equal(t, 40.0, gin.ABV)
	assert.Equal(t, 70.0, gin.Taste[Herbal])
	assert.True(t, gin.HasCategory(CategoryAlcohol))
	assert.False(t, gin.HasCategory(CategoryMixer))

	assert.True(t, c.HasCategory("Soda", CategoryMixer))
	assert.Equal(t, []string{CategoryCondiment}, c.Categories("Lime"))
	assert.Nil(t, c.Categories("Rum"))
	assert.False(t, c.HasCategory("Rum", CategoryAlcohol))

	_, ok := c.ByID(5)
	assert.False(t, ok)
	_, ok = c.ByID(-1)
	assert.False(t, ok)
}

func TestCatalogUnknownIngredient(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.LookupID("Rum")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownIngredient)

	_, err = c.Attributes("Rum")
	assert.ErrorIs(t, err, ErrUnknownIngredient)
}

func TestNewCatalogDuplicateNames(t *testing.T) {
	rows := []FlavorRecord{
		{Name: "Vodka", ABV: 40},
		{Name: "Soda"},
		{Name: "Vodka ", ABV: 37.5},
	}
	c, err := NewCatalog(rows, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Size())
	id, err := c.LookupID("Vodka")
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	ing, err := c.Attributes("Vodka")
	require.NoError(t, err)
	assert.Equal(t, 37.5, ing.ABV)
}

func TestNewCatalogInvalid(t *testing.T) {
	_, err := NewCatalog(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = NewCatalog([]FlavorRecord{{Name: "Vodka"}, {Name: "  "}}, nil)
	assert.Error(t, err)
}

func TestCatalogIngredientsIsCopy(t *testing.T) {
	c := newTestCatalog(t)

	list := c.Ingredients()
	list[0].ABV = 99

	ing, err := c.Attributes("Vodka")
	require.NoError(t, err)
	assert.Equal(t, 40.0, ing.ABV)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	flavorPath := filepath.Join(dir, "flavor.json")
	categoryPath := filepath.Join(dir, "category.json")

	flavor := `[
		{"name": "Vodka", "ABV": 40, "sweet": 0, "boozy": 90},
		{"name": "Soda", "ABV": 0, "sweet": 10, "Perceived_temperature": 20}
	]`
	category := `{"Vodka": ["Alcohol"], "Soda": ["Mixer"]}`
	require.NoError(t, os.WriteFile(flavorPath, []byte(flavor), 0o644))
	require.NoError(t, os.WriteFile(categoryPath, []byte(category), 0o644))

	c, err := LoadCatalog(flavorPath, categoryPath)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Size())
	soda, err := c.Attributes("Soda")
	require.NoError(t, err)
	assert.Equal(t, 10.0, soda.Taste[Sweet])
	assert.Equal(t, 20.0, soda.Taste[PerceivedTemperature])
	assert.True(t, soda.HasCategory(CategoryMixer))

	withoutCategories, err := LoadCatalog(flavorPath, "")
	require.NoError(t, err)
	assert.Empty(t, withoutCategories.Categories("Vodka"))

	_, err = LoadCatalog(filepath.Join(dir, "missing.json"), "")
	assert.Error(t, err)
}
