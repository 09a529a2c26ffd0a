package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShippingMethod(t *testing.T) {
	m, err := ParseShippingMethod("express")
	require.NoError(t, err)
	assert.Equal(t, ShippingMethodExpress, m)

	_, err = ParseShippingMethod("Express")
	assert.Error(t, err)
	assert.False(t, ShippingMethod("drone").IsValid())
}

func TestProductSortValues(t *testing.T) {
	for _, raw := range []string{"newest", "price-asc", "price-desc", "name-asc", "name-desc"} {
		s, err := ParseProductSort(raw)
		require.NoError(t, err)
		assert.True(t, s.IsValid())
		assert.Equal(t, raw, s.String())
	}
}

func TestSavedKind(t *testing.T) {
	assert.True(t, SavedKindFavorites.IsValid())
	_, err := ParseSavedKind("cart")
	assert.Error(t, err)
}
