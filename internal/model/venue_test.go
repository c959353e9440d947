package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVenueKeyIncludesKind(t *testing.T) {
	a := Venue{ProviderID: "1", Kind: KindMap}
	b := Venue{ProviderID: "1", Kind: KindDelivery}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, VenueKey{Kind: KindMap, ID: "1"}, a.Key())
}

func TestVenueStratum(t *testing.T) {
	assert.Equal(t, "korean", Venue{Category: CategoryKorean, CategoryLabel: "한식"}.Stratum())
	assert.Equal(t, "other:퓨전요리", Venue{Category: CategoryOther, CategoryLabel: "퓨전요리"}.Stratum())
	assert.Equal(t, "other", Venue{Category: CategoryOther}.Stratum())
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("tacos").Valid())
	assert.False(t, Category("").Valid())
}

func TestGeoPointOrder(t *testing.T) {
	p := GeoPoint{Lat: 37.5, Lng: 127.0}.Point()
	assert.Equal(t, 127.0, p.Lon())
	assert.Equal(t, 37.5, p.Lat())
}
