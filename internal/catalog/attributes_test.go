package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/impexo/storefront/pkg/errors"
)

func newMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper()
	require.NoError(t, err)
	return m
}

func TestNewMapperWithPatternsValidation(t *testing.T) {
	_, err := NewMapperWithPatterns(nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = NewMapperWithPatterns(map[Kind][]string{KindColor: {}})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = NewMapperWithPatterns(map[Kind][]string{KindColor: {`(unclosed`}})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestMapperMatches(t *testing.T) {
	m := newMapper(t)

	tests := []struct {
		kind Kind
		name string
		want bool
	}{
		{KindModel, "Modèle", true},
		{KindModel, "modele iPhone", true},
		{KindColor, "Couleur", true},
		{KindColor, "Color", true},
		{KindColor, "Taille", false},
		{KindMaterial, "Matériau", true},
		{KindMaterial, "materiau", true},
		{KindReference, "Référence", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Matches(tt.kind, tt.name), "%s / %s", tt.kind, tt.name)
	}
}

func TestFindAttributeSkipsEmptyOptions(t *testing.T) {
	m := newMapper(t)
	p := &Product{Attributes: []Attribute{
		{Name: "Couleur", Options: nil},
		{Name: "couleur", Options: []string{"Noir", "Marron"}},
	}}

	attr := m.FindAttribute(p, KindColor)
	require.NotNil(t, attr)
	assert.Equal(t, []string{"Noir", "Marron"}, attr.Options)

	assert.Nil(t, m.FindAttribute(nil, KindColor))
	assert.Nil(t, m.FindAttribute(p, KindMaterial))
}

func TestCollectOptions(t *testing.T) {
	m := newMapper(t)
	products := []Product{
		{Attributes: []Attribute{{Name: "Couleur", Options: []string{"Noir", "Marron "}}}},
		{Attributes: []Attribute{{Name: "Couleur", Options: []string{"Marron", "", "Bleu"}}}},
	}

	assert.Equal(t, []string{"Bleu", "Marron", "Noir"}, m.CollectOptions(products, KindColor))
}

func TestMatchVariation(t *testing.T) {
	m := newMapper(t)
	variations := []Variation{
		{ID: 1, Attributes: []VariationAttribute{
			{Name: "Modèle", Option: "iPhone 15"},
			{Name: "Couleur", Option: "Marron Foncé"},
		}},
		{ID: 2, Attributes: []VariationAttribute{
			{Name: "Modèle", Option: "iPhone 15"},
			{Name: "Couleur", Option: "Noir"},
		}},
	}

	// Accent and case insensitive matching.
	v := m.MatchVariation(variations, Selection{Model: "iphone 15", Color: "marron fonce"})
	require.NotNil(t, v)
	assert.Equal(t, int64(1), v.ID)

	// Empty selection fields are wildcards.
	v = m.MatchVariation(variations, Selection{Color: "Noir"})
	require.NotNil(t, v)
	assert.Equal(t, int64(2), v.ID)

	assert.Nil(t, m.MatchVariation(variations, Selection{Color: "Rouge"}))
	assert.Nil(t, m.MatchVariation(nil, Selection{Color: "Noir"}))
}

func TestMatchVariationByReference(t *testing.T) {
	m := newMapper(t)
	variations := []Variation{
		{ID: 1, Attributes: []VariationAttribute{{Name: "Référence", Option: "REF-001"}}},
		{ID: 2, Attributes: []VariationAttribute{{Name: "Référence", Option: "REF-002"}}},
	}

	v := m.MatchVariation(variations, Selection{Reference: "ref-002"})
	require.NotNil(t, v)
	assert.Equal(t, int64(2), v.ID)
}
