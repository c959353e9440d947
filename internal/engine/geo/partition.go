package geo

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/rendis/mealspin/internal/model"
)

const (
	// MetersPerDegree is the planar approximation used for short offsets.
	MetersPerDegree = 111000.0

	// minHalfExtentDeg keeps the provider from ever receiving a zero-size box.
	minHalfExtentDeg = 0.001
)

// Partition splits the disc (center, radius in meters) into rings × sectors cells.
// Cells come back inner ring first, ascending sector, so the venues nearest the
// center are fetched before the pool cap can cut a run short.
func Partition(center model.GeoPoint, radius float64, sectors, rings int) []model.SearchRegion {
	if sectors <= 0 || rings <= 0 || radius <= 0 {
		return nil
	}

	span := 360.0 / float64(sectors)
	regions := make([]model.SearchRegion, 0, sectors*rings)
	for r := 0; r < rings; r++ {
		inner := float64(r) * radius / float64(rings)
		outer := float64(r+1) * radius / float64(rings)
		for s := 0; s < sectors; s++ {
			regions = append(regions, model.SearchRegion{
				Center:      center,
				InnerRadius: inner,
				OuterRadius: outer,
				StartAngle:  float64(s) * span,
				EndAngle:    float64(s+1) * span,
				Ring:        r,
				Sector:      s,
			})
		}
	}
	return regions
}

// CellCenter returns the point halfway between the cell's radii on its bisecting
// bearing. Bearings are compass degrees: 0 is north, increasing clockwise.
func CellCenter(r model.SearchRegion) model.GeoPoint {
	mid := (r.InnerRadius + r.OuterRadius) / 2
	theta := (r.StartAngle + r.EndAngle) / 2 * math.Pi / 180.0
	return Offset(r.Center, mid*math.Cos(theta), mid*math.Sin(theta))
}

// HalfExtentDegrees is the half side of the query box around a cell center.
func HalfExtentDegrees(r model.SearchRegion) float64 {
	return math.Max((r.OuterRadius-r.InnerRadius)/2/MetersPerDegree, minHalfExtentDeg)
}

// Bound returns the bounding box sent to the provider for a cell.
func Bound(r model.SearchRegion) orb.Bound {
	c := CellCenter(r)
	h := HalfExtentDegrees(r)
	lngH := h / math.Cos(c.Lat*math.Pi/180.0)
	return orb.Bound{
		Min: orb.Point{c.Lng - lngH, c.Lat - h},
		Max: orb.Point{c.Lng + lngH, c.Lat + h},
	}
}

// Offset moves p by the given north/east distances in meters.
func Offset(p model.GeoPoint, northM, eastM float64) model.GeoPoint {
	return model.GeoPoint{
		Lat: p.Lat + northM/MetersPerDegree,
		Lng: p.Lng + eastM/(MetersPerDegree*math.Cos(p.Lat*math.Pi/180.0)),
	}
}
