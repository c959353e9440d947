package model

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// ProviderKind identifies which upstream a venue came from.
type ProviderKind string

const (
	KindMap      ProviderKind = "map"      // in-person venues from the POI search provider
	KindDelivery ProviderKind = "delivery" // venues from the delivery catalog
)

// Category is a canonical cuisine/venue tag used for balanced sampling.
type Category string

const (
	CategoryChicken  Category = "chicken"
	CategoryPizza    Category = "pizza"
	CategoryFastFood Category = "fast-food"
	CategorySnack    Category = "snack"
	CategoryCafe     Category = "cafe"
	CategoryDessert  Category = "dessert"
	CategoryChinese  Category = "chinese"
	CategoryJapanese Category = "japanese"
	CategoryWestern  Category = "western"
	CategoryMeat     Category = "meat"
	CategorySeafood  Category = "seafood"
	CategoryNoodle   Category = "noodle"
	CategoryRiceDish Category = "rice-dish"
	CategorySalad    Category = "salad"
	CategoryBuffet   Category = "buffet"
	CategoryPub      Category = "pub"
	CategoryKorean   Category = "korean"
	CategoryOther    Category = "other"
)

// Categories lists every canonical category.
var Categories = []Category{
	CategoryChicken, CategoryPizza, CategoryFastFood, CategorySnack, CategoryCafe,
	CategoryDessert, CategoryChinese, CategoryJapanese, CategoryWestern, CategoryMeat,
	CategorySeafood, CategoryNoodle, CategoryRiceDish, CategorySalad, CategoryBuffet,
	CategoryPub, CategoryKorean, CategoryOther,
}

// Valid reports whether c belongs to the canonical set.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// GeoPoint is the shared meeting location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb.Point, which is [lng, lat].
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// SearchRegion is one sector-ring cell of the search disc.
type SearchRegion struct {
	Center      GeoPoint // disc center, not the cell center
	InnerRadius float64  // meters
	OuterRadius float64  // meters
	StartAngle  float64  // degrees
	EndAngle    float64  // degrees
	Ring        int
	Sector      int
}

// VenueKey is the identity of a venue: provider id scoped by provider kind.
type VenueKey struct {
	Kind ProviderKind
	ID   string
}

// Venue is a restaurant candidate parsed from a provider page.
type Venue struct {
	ProviderID    string          `json:"provider_id"`
	Name          string          `json:"name"`
	RawCategory   string          `json:"raw_category"`
	Category      Category        `json:"category"`
	CategoryLabel string          `json:"category_label,omitempty"`
	Distance      float64         `json:"distance_m"`
	Kind          ProviderKind    `json:"kind"`
	Rating        float64         `json:"rating"`
	Lat           float64         `json:"lat"`
	Lng           float64         `json:"lng"`
	Address       string          `json:"address,omitempty"`
	URL           string          `json:"url,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

func (v Venue) Key() VenueKey {
	return VenueKey{Kind: v.Kind, ID: v.ProviderID}
}

// Stratum is the grouping key used by balanced selection. Venues the keyword
// table could not place fall back to their structural label so that unknown
// cuisines still form distinct groups.
func (v Venue) Stratum() string {
	if v.Category == CategoryOther && v.CategoryLabel != "" {
		return string(CategoryOther) + ":" + v.CategoryLabel
	}
	return string(v.Category)
}

// SearchParams holds the knobs of one discovery run.
type SearchParams struct {
	Center             GeoPoint `json:"center"`
	Radius             float64  `json:"radius_m"`
	WantInPerson       bool     `json:"in_person"`
	WantDelivery       bool     `json:"delivery"`
	Target             int      `json:"target"`
	Keyword            string   `json:"keyword,omitempty"`              // empty = category search
	MaxDeliveryMinutes int      `json:"max_delivery_minutes,omitempty"` // 0 = no limit
}
