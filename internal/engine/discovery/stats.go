package discovery

import (
	"sync/atomic"
	"time"
)

// Stats are the live counters of a run. The TUI polls them while the run is
// in flight.
type Stats struct {
	RegionsTotal  atomic.Int64
	RegionsDone   atomic.Int64
	RegionsFailed atomic.Int64
	Calls         atomic.Int64
	VenuesFound   atomic.Int64
	VenuesKept    atomic.Int64
	DeliveryFound atomic.Int64
	DeliveryKept  atomic.Int64
	RateLimited   atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	RegionsTotal  int64         `json:"regions_total"`
	RegionsDone   int64         `json:"regions_done"`
	RegionsFailed int64         `json:"regions_failed"`
	Calls         int64         `json:"calls"`
	VenuesFound   int64         `json:"venues_found"`
	VenuesKept    int64         `json:"venues_kept"`
	DeliveryFound int64         `json:"delivery_found"`
	DeliveryKept  int64         `json:"delivery_kept"`
	RateLimited   int64         `json:"rate_limited"`
	Elapsed       time.Duration `json:"elapsed"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		RegionsTotal:  s.RegionsTotal.Load(),
		RegionsDone:   s.RegionsDone.Load(),
		RegionsFailed: s.RegionsFailed.Load(),
		Calls:         s.Calls.Load(),
		VenuesFound:   s.VenuesFound.Load(),
		VenuesKept:    s.VenuesKept.Load(),
		DeliveryFound: s.DeliveryFound.Load(),
		DeliveryKept:  s.DeliveryKept.Load(),
		RateLimited:   s.RateLimited.Load(),
	}
}
