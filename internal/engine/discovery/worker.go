package discovery

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rendis/mealspin/internal/engine/geo"
	"github.com/rendis/mealspin/internal/engine/provider"
	"github.com/rendis/mealspin/internal/model"
)

// scanRegions pages the map provider across every sector-ring cell with a
// bounded number of regions in flight. Regions start inner ring first and
// stop starting once the pool is full or ctx is done.
func (e *Engine) scanRegions(ctx context.Context, p model.SearchParams, state *RunState, stats *Stats, opts *RunOptions, log *zap.Logger) {
	regions := geo.Partition(p.Center, p.Radius, e.cfg.SectorCount, e.cfg.RingCount)
	stats.RegionsTotal.Store(int64(len(regions)))

	limit := rate.Inf
	if e.cfg.InterRequestDelay > 0 {
		limit = rate.Every(e.cfg.InterRequestDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var wg sync.WaitGroup
	sem := make(chan struct{}, max(e.cfg.Concurrency, 1))

dispatch:
	for _, r := range regions {
		if state.Full() {
			log.Info("pool full, not starting remaining regions", zap.Int("pool", state.Len()))
			break
		}

		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(r model.SearchRegion) {
			defer wg.Done()
			defer func() { <-sem }()
			e.scanRegion(ctx, r, p, limiter, state, stats, opts, log)
		}(r)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// scanRegion pages one region. Any failed call abandons the region.
func (e *Engine) scanRegion(ctx context.Context, r model.SearchRegion, p model.SearchParams, limiter *rate.Limiter, state *RunState, stats *Stats, opts *RunOptions, log *zap.Logger) {
	defer stats.RegionsDone.Add(1)

	pageSize := e.maps.PageSize()
	q := provider.Query{Region: r, Keyword: p.Keyword}

	for page := 1; page <= e.cfg.MaxPagesPerRegion; page++ {
		if ctx.Err() != nil || state.Full() {
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		// each call gets its own deadline, independent of the run's cancellation
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.RegionTimeout)
		res, err := e.maps.Search(callCtx, q, page)
		cancel()
		stats.Calls.Add(1)

		if err != nil {
			stats.RegionsFailed.Add(1)
			e.metrics.observeCall(string(model.KindMap), "error")
			log.Warn("region failed",
				zap.Int("ring", r.Ring),
				zap.Int("sector", r.Sector),
				zap.Int("page", page),
				zap.Error(err))
			return
		}
		e.metrics.observeCall(string(model.KindMap), "ok")
		stats.VenuesFound.Add(int64(len(res.Venues)))

		kept := geo.FilterWithinRadius(res.Venues, p.Center, p.Radius)
		for i := range kept {
			e.normalizer.Apply(&kept[i])
		}

		added, full := state.Add(kept)
		stats.VenuesKept.Add(int64(len(added)))
		if opts.OnVenues != nil && len(added) > 0 {
			opts.OnVenues(added)
		}

		if full {
			return
		}
		if len(res.Venues) < pageSize || !res.HasNext {
			return
		}
	}
}
