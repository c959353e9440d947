package geo

import (
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/rendis/mealspin/internal/model"
)

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b model.GeoPoint) float64 {
	return orbgeo.DistanceHaversine(a.Point(), b.Point())
}

// FilterWithinRadius drops venues farther than radius meters from center.
// Bounding-box queries over-select near the box corners, so every page goes
// through here. Venues without a provider-reported distance get one computed from
// their coordinates; venues with neither are dropped.
func FilterWithinRadius(venues []model.Venue, center model.GeoPoint, radius float64) []model.Venue {
	var kept []model.Venue
	for _, v := range venues {
		if v.Distance <= 0 {
			if v.Lat == 0 && v.Lng == 0 {
				continue
			}
			v.Distance = Distance(center, model.GeoPoint{Lat: v.Lat, Lng: v.Lng})
		}
		if v.Distance <= radius {
			kept = append(kept, v)
		}
	}
	return kept
}
