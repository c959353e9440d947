package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/mealspin/internal/model"
)

var seoulCityHall = model.GeoPoint{Lat: 37.5663, Lng: 126.9779}

func TestPartitionSixteenCells(t *testing.T) {
	regions := Partition(seoulCityHall, 1000, 8, 2)
	require.Len(t, regions, 16)

	for i, r := range regions[:8] {
		assert.Equal(t, 0, r.Ring, "cell %d", i)
		assert.Equal(t, i, r.Sector)
		assert.InDelta(t, 0, r.InnerRadius, 1e-9)
		assert.InDelta(t, 500, r.OuterRadius, 1e-9)
	}
	for _, r := range regions[8:] {
		assert.Equal(t, 1, r.Ring)
		assert.InDelta(t, 500, r.InnerRadius, 1e-9)
		assert.InDelta(t, 1000, r.OuterRadius, 1e-9)
	}
}

func TestPartitionAngles(t *testing.T) {
	regions := Partition(seoulCityHall, 900, 6, 3)
	require.Len(t, regions, 18)

	for _, r := range regions {
		assert.InDelta(t, 60, r.EndAngle-r.StartAngle, 1e-9)
		assert.InDelta(t, float64(r.Sector)*60, r.StartAngle, 1e-9)
		assert.Equal(t, seoulCityHall, r.Center)
	}
	assert.InDelta(t, 600, regions[len(regions)-1].InnerRadius, 1e-9)
}

func TestPartitionRejectsDegenerateInput(t *testing.T) {
	assert.Nil(t, Partition(seoulCityHall, 0, 8, 2))
	assert.Nil(t, Partition(seoulCityHall, 1000, 0, 2))
	assert.Nil(t, Partition(seoulCityHall, 1000, 8, 0))
}

func TestCellCenterLiesInsideItsRing(t *testing.T) {
	for _, r := range Partition(seoulCityHall, 1000, 8, 2) {
		c := CellCenter(r)
		d := Distance(seoulCityHall, c)
		mid := (r.InnerRadius + r.OuterRadius) / 2
		assert.InDelta(t, mid, d, mid*0.02, "ring %d sector %d", r.Ring, r.Sector)
	}
}

func TestCellCenterBearing(t *testing.T) {
	// Sector 0 of 4 is centered on bearing 45: north-east of the center.
	c := CellCenter(Partition(seoulCityHall, 1000, 4, 1)[0])
	assert.Greater(t, c.Lat, seoulCityHall.Lat)
	assert.Greater(t, c.Lng, seoulCityHall.Lng)

	// Sector 2 of 4 is centered on bearing 225: south-west.
	c = CellCenter(Partition(seoulCityHall, 1000, 4, 1)[2])
	assert.Less(t, c.Lat, seoulCityHall.Lat)
	assert.Less(t, c.Lng, seoulCityHall.Lng)
}

func TestHalfExtentFloor(t *testing.T) {
	small := Partition(seoulCityHall, 100, 8, 2)[0]
	assert.InDelta(t, 0.001, HalfExtentDegrees(small), 1e-12)

	large := Partition(seoulCityHall, 1000, 8, 2)[0]
	assert.InDelta(t, 250.0/MetersPerDegree, HalfExtentDegrees(large), 1e-12)
}

func TestBoundIsNeverEmpty(t *testing.T) {
	for _, r := range Partition(seoulCityHall, 50, 8, 3) {
		b := Bound(r)
		assert.Greater(t, b.Max.Lat()-b.Min.Lat(), 0.0019)
		assert.Greater(t, b.Max.Lon()-b.Min.Lon(), 0.0019)
		assert.True(t, b.Contains(CellCenter(r).Point()))
	}
}

func TestFilterWithinRadius(t *testing.T) {
	near := Offset(seoulCityHall, 300, 0)
	far := Offset(seoulCityHall, 0, 1500)

	venues := []model.Venue{
		{ProviderID: "1", Distance: 120},
		{ProviderID: "2", Distance: 1200},
		{ProviderID: "3", Lat: near.Lat, Lng: near.Lng},
		{ProviderID: "4", Lat: far.Lat, Lng: far.Lng},
		{ProviderID: "5"},
	}

	kept := FilterWithinRadius(venues, seoulCityHall, 1000)
	require.Len(t, kept, 2)
	assert.Equal(t, "1", kept[0].ProviderID)
	assert.Equal(t, "3", kept[1].ProviderID)
	assert.InDelta(t, 300, kept[1].Distance, 5)
}
