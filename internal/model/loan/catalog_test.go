package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	catalog := NewMemoryCatalog(Seed())

	tests := []struct {
		text   string
		wantID string
		found  bool
	}{
		{"I want a personal loan", "personal", true},
		{"need money for a house", "home", true},
		{"looking at a vehicle purchase", "car", true},
		{"funding my study abroad", "education", true},
		{"working capital for my shop", "business", true},
		{"hello there", "", false},
	}
	for _, tt := range tests {
		product, found := catalog.Match(tt.text)
		assert.Equal(t, tt.found, found, tt.text)
		if found {
			assert.Equal(t, tt.wantID, product.ID, tt.text)
		}
	}
}

func TestMatchOrderDecidesAmbiguity(t *testing.T) {
	catalog := NewMemoryCatalog(Seed())
	// Both "personal" and "home" appear; catalog order picks personal.
	product, found := catalog.Match("personal or home, not sure")
	assert.True(t, found)
	assert.Equal(t, "personal", product.ID)
}

func TestNearestTenure(t *testing.T) {
	product := Product{TenureMonths: []int{12, 24, 36}}

	assert.Equal(t, 24, product.NearestTenure(20))
	assert.Equal(t, 36, product.NearestTenure(40))
	assert.Equal(t, 12, product.NearestTenure(1))
	assert.Equal(t, 24, product.NearestTenure(24))
	// Exact midpoint: the earlier entry wins.
	assert.Equal(t, 12, product.NearestTenure(18))
	assert.Equal(t, 24, product.NearestTenure(30))
}

func TestFindByID(t *testing.T) {
	catalog := NewMemoryCatalog(Seed())

	product, found := catalog.FindByID("personal")
	assert.True(t, found)
	assert.Equal(t, 12.5, product.BaseRate)

	_, found = catalog.FindByID("payday")
	assert.False(t, found)
}
