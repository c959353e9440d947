package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/provider"
	"github.com/rendis/mealspin/internal/model"
)

type fakeSearcher struct {
	pageSize  int
	ready     error
	calls     atomic.Int64
	throttled atomic.Int64
	search    func(ctx context.Context, q provider.Query, page int) (provider.Page, error)
}

func (f *fakeSearcher) RateLimits() int64 { return f.throttled.Load() }

func (f *fakeSearcher) Search(ctx context.Context, q provider.Query, page int) (provider.Page, error) {
	f.calls.Add(1)
	return f.search(ctx, q, page)
}

func (f *fakeSearcher) PageSize() int {
	if f.pageSize == 0 {
		return 15
	}
	return f.pageSize
}

func (f *fakeSearcher) Ready() error { return f.ready }

type fakeCatalog struct {
	venues []model.Venue
	err    error
	ready  error
}

func (f *fakeCatalog) SearchDelivery(context.Context, model.GeoPoint, int) ([]model.Venue, error) {
	return f.venues, f.err
}

func (f *fakeCatalog) Ready() error { return f.ready }

var center = model.GeoPoint{Lat: 37.5665, Lng: 126.978}

func testConfig() config.Discovery {
	cfg := config.Default().Discovery
	cfg.InterRequestDelay = 0
	cfg.RegionTimeout = 2 * time.Second
	return cfg
}

func mapVenue(id, cat string) model.Venue {
	return model.Venue{ProviderID: id, Name: "place " + id, RawCategory: cat, Distance: 100, Kind: model.KindMap}
}

// uniquePages serves full pages of venues unique per region and page.
func uniquePages(size int) func(context.Context, provider.Query, int) (provider.Page, error) {
	return func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		vs := make([]model.Venue, size)
		for i := range vs {
			vs[i] = mapVenue(fmt.Sprintf("%d-%d-%d-%d", q.Region.Ring, q.Region.Sector, page, i), "음식점 > 한식")
		}
		return provider.Page{Venues: vs, HasNext: true}, nil
	}
}

func params() model.SearchParams {
	return model.SearchParams{Center: center, Radius: 1000, WantInPerson: true, Target: 10}
}

func TestDiscoverDeduplicatesAcrossRegions(t *testing.T) {
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		if q.Region.Sector < 2 && q.Region.Ring == 0 {
			return provider.Page{Venues: []model.Venue{mapVenue("42", "음식점 > 치킨")}}, nil
		}
		return provider.Page{}, nil
	}}

	res, err := New(testConfig(), maps, nil, WithLogger(zaptest.NewLogger(t))).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	require.Len(t, res.Pool, 1)
	assert.Equal(t, "42", res.Pool[0].ProviderID)
	assert.Equal(t, model.CategoryChicken, res.Pool[0].Category)
	assert.Equal(t, int64(16), res.Stats.RegionsTotal)
	assert.NotEmpty(t, res.RunID)
}

func TestDiscoverSameIDDifferentKindsAreDistinct(t *testing.T) {
	maps := &fakeSearcher{search: func(context.Context, provider.Query, int) (provider.Page, error) {
		return provider.Page{Venues: []model.Venue{mapVenue("42", "음식점 > 피자")}}, nil
	}}
	delivery := &fakeCatalog{venues: []model.Venue{
		{ProviderID: "42", Name: "delivered", RawCategory: "치킨", Rating: 4.8, Kind: model.KindDelivery},
	}}

	p := params()
	p.WantDelivery = true
	res, err := New(testConfig(), maps, delivery).Discover(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Len(t, res.Pool, 2)
}

func TestDiscoverRespectsPoolCapUnderConcurrency(t *testing.T) {
	cfg := testConfig()
	cfg.PoolCap = 37
	cfg.Concurrency = 8
	maps := &fakeSearcher{search: uniquePages(15)}

	res, err := New(cfg, maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Pool, 37)
	assert.Equal(t, 37, res.PoolSize)
	assert.Less(t, maps.calls.Load(), int64(32), "cap stops the run early")
}

func TestDiscoverDefaultCap(t *testing.T) {
	cfg := testConfig()
	cfg.SectorCount = 20
	cfg.RingCount = 2
	maps := &fakeSearcher{search: uniquePages(15)}

	res, err := New(cfg, maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Pool, 500)
}

func TestDiscoverPaging(t *testing.T) {
	var mu sync.Mutex
	pages := map[int]int{}
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		mu.Lock()
		pages[page]++
		mu.Unlock()
		return uniquePages(15)(context.Background(), q, page)
	}}

	_, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 16, 2: 16}, pages, "two pages per region, never a third")
}

func TestDiscoverStopsOnShortPage(t *testing.T) {
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		return uniquePages(14)(context.Background(), q, page)
	}}

	_, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(16), maps.calls.Load())
}

func TestDiscoverStopsWhenProviderHasNoNextPage(t *testing.T) {
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		p, _ := uniquePages(15)(context.Background(), q, page)
		p.HasNext = false
		return p, nil
	}}

	_, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(16), maps.calls.Load())
}

func TestDiscoverToleratesRegionErrors(t *testing.T) {
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		switch q.Region.Sector {
		case 0:
			return provider.Page{}, &provider.ProviderError{Provider: "fake", StatusCode: 500}
		case 1:
			return provider.Page{}, provider.ErrProviderTimeout
		}
		return provider.Page{Venues: []model.Venue{mapVenue(fmt.Sprintf("%d-%d", q.Region.Ring, q.Region.Sector), "한식")}}, nil
	}}

	res, err := New(testConfig(), maps, nil, WithLogger(zaptest.NewLogger(t))).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Stats.RegionsFailed)
	assert.Len(t, res.Pool, 12)
}

func TestDiscoverFiltersByRadius(t *testing.T) {
	maps := &fakeSearcher{search: func(context.Context, provider.Query, int) (provider.Page, error) {
		near := mapVenue("near", "한식")
		far := mapVenue("far", "한식")
		far.Distance = 1400
		return provider.Page{Venues: []model.Venue{near, far}}, nil
	}}

	res, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	require.Len(t, res.Pool, 1)
	assert.Equal(t, "near", res.Pool[0].ProviderID)
}

func TestDiscoverUnavailableProviderIsFatal(t *testing.T) {
	_, err := New(testConfig(), nil, nil).Discover(context.Background(), params(), nil)
	assert.True(t, errors.Is(err, provider.ErrProviderUnavailable))

	maps := &fakeSearcher{ready: fmt.Errorf("%w: no key", provider.ErrProviderUnavailable)}
	_, err = New(testConfig(), maps, nil).Discover(context.Background(), params(), nil)
	assert.True(t, errors.Is(err, provider.ErrProviderUnavailable))
	assert.Zero(t, maps.calls.Load())

	p := params()
	p.WantInPerson = false
	p.WantDelivery = true
	delivery := &fakeCatalog{err: fmt.Errorf("%w: expired", provider.ErrProviderUnavailable)}
	_, err = New(testConfig(), nil, delivery).Discover(context.Background(), p, nil)
	assert.True(t, errors.Is(err, provider.ErrProviderUnavailable))
}

func TestDiscoverDeliveryFailureIsNotFatal(t *testing.T) {
	maps := &fakeSearcher{search: uniquePages(3)}
	delivery := &fakeCatalog{err: provider.ErrProviderTimeout}

	p := params()
	p.WantDelivery = true
	res, err := New(testConfig(), maps, delivery, WithLogger(zaptest.NewLogger(t))).Discover(context.Background(), p, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Pool)
	for _, v := range res.Selection {
		assert.Equal(t, model.KindMap, v.Kind)
	}
}

func TestDiscoverDeliveryReviewThreshold(t *testing.T) {
	delivery := &fakeCatalog{venues: []model.Venue{
		{ProviderID: "1", Name: "a", RawCategory: "치킨", Rating: 4.7, Kind: model.KindDelivery},
		{ProviderID: "2", Name: "b", RawCategory: "피자", Rating: 4.69, Kind: model.KindDelivery},
		{ProviderID: "3", Name: "c", RawCategory: "중식", Rating: 5, Kind: model.KindDelivery},
	}}

	p := model.SearchParams{Center: center, Radius: 1000, WantDelivery: true, Target: 10}
	res, err := New(testConfig(), nil, delivery).Discover(context.Background(), p, nil)
	require.NoError(t, err)
	require.Len(t, res.Pool, 2)
	assert.Equal(t, int64(3), res.Stats.DeliveryFound)
	assert.Equal(t, int64(2), res.Stats.DeliveryKept)
	assert.Equal(t, model.CategoryChicken, res.Pool[0].Category)
	assert.Equal(t, model.CategoryChinese, res.Pool[1].Category)
}

func TestDiscoverSelectsBalancedWheel(t *testing.T) {
	cats := []string{"치킨", "피자", "중식", "일식"}
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		var vs []model.Venue
		for i, c := range cats {
			vs = append(vs, mapVenue(fmt.Sprintf("%d-%d-%d", q.Region.Ring, q.Region.Sector, i), c))
		}
		return provider.Page{Venues: vs}, nil
	}}

	opts := &RunOptions{Rand: rand.New(rand.NewPCG(1, 2))}
	res, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), opts)
	require.NoError(t, err)
	require.Len(t, res.Selection, 10)

	seen := map[model.Category]bool{}
	for _, v := range res.Selection {
		seen[v.Category] = true
	}
	assert.Len(t, seen, 4)
}

func TestDiscoverCancellationDoesNotWait(t *testing.T) {
	cfg := testConfig()
	cfg.RegionTimeout = 5 * time.Second
	maps := &fakeSearcher{search: func(ctx context.Context, _ provider.Query, _ int) (provider.Page, error) {
		<-ctx.Done()
		return provider.Page{}, provider.ErrProviderTimeout
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := New(cfg, maps, nil).Discover(ctx, params(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDiscoverRejectsBadRequest(t *testing.T) {
	maps := &fakeSearcher{search: uniquePages(1)}
	p := params()
	p.Radius = 0
	_, err := New(testConfig(), maps, nil).Discover(context.Background(), p, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDiscoverReportsProgress(t *testing.T) {
	maps := &fakeSearcher{search: uniquePages(2)}
	stats := &Stats{}
	var batches atomic.Int64

	opts := &RunOptions{Stats: stats, OnVenues: func([]model.Venue) { batches.Add(1) }}
	_, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), opts)
	require.NoError(t, err)

	snap := stats.Snapshot()
	assert.Equal(t, int64(16), snap.RegionsDone)
	assert.Equal(t, int64(32), snap.VenuesKept)
	assert.Equal(t, int64(16), batches.Load())
}

func TestDiscoverRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	maps := &fakeSearcher{search: uniquePages(1)}

	_, err := New(testConfig(), maps, nil, WithMetrics(m)).Discover(context.Background(), params(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 16.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("map", "ok")))
}

func TestNewFromConfigWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	e := NewFromConfig(cfg, zaptest.NewLogger(t))

	_, err := e.Discover(t.Context(), model.SearchParams{Center: center, Radius: 500, WantInPerson: true}, nil)
	require.ErrorIs(t, err, provider.ErrProviderUnavailable)

	_, err = e.Discover(t.Context(), model.SearchParams{Center: center, Radius: 500, WantDelivery: true}, nil)
	require.ErrorIs(t, err, provider.ErrProviderUnavailable)
}

func TestDiscoverRejectsOversizedTarget(t *testing.T) {
	maps := &fakeSearcher{search: uniquePages(1)}
	p := params()
	p.Target = 1 << 40

	_, err := New(testConfig(), maps, nil).Discover(context.Background(), p, nil)
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, maps.calls.Load())
}

func TestDiscoverDeduplicatesAcrossPages(t *testing.T) {
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		if q.Region.Ring != 0 || q.Region.Sector != 0 {
			return provider.Page{}, nil
		}
		// a full first page so the second one is requested
		vs := []model.Venue{mapVenue("42", "음식점 > 치킨")}
		for i := range 14 {
			vs = append(vs, mapVenue(fmt.Sprintf("p%d-%d", page, i), "음식점 > 한식"))
		}
		return provider.Page{Venues: vs, HasNext: true}, nil
	}}

	res, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2+15), maps.calls.Load(), "two pages for the first region, one for the rest")
	assert.Len(t, res.Pool, 1+14+14)
	count := 0
	for _, v := range res.Pool {
		if v.ProviderID == "42" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDiscoverReportsOnlyPooledVenues(t *testing.T) {
	maps := &fakeSearcher{search: func(_ context.Context, q provider.Query, _ int) (provider.Page, error) {
		return provider.Page{Venues: []model.Venue{
			mapVenue("42", "음식점 > 치킨"),
			mapVenue(fmt.Sprintf("%d-%d", q.Region.Ring, q.Region.Sector), "음식점 > 한식"),
		}}, nil
	}}
	delivery := &fakeCatalog{venues: []model.Venue{
		{ProviderID: "d1", Name: "a", RawCategory: "치킨", Rating: 4.9, Kind: model.KindDelivery},
		{ProviderID: "d1", Name: "a again", RawCategory: "치킨", Rating: 4.9, Kind: model.KindDelivery},
		{ProviderID: "d2", Name: "b", RawCategory: "피자", Rating: 3.0, Kind: model.KindDelivery},
	}}

	var mu sync.Mutex
	reported := map[model.VenueKey]int{}
	opts := &RunOptions{OnVenues: func(vs []model.Venue) {
		mu.Lock()
		defer mu.Unlock()
		for _, v := range vs {
			reported[v.Key()]++
		}
	}}

	p := params()
	p.WantDelivery = true
	res, err := New(testConfig(), maps, delivery).Discover(context.Background(), p, opts)
	require.NoError(t, err)

	require.Len(t, res.Pool, 17+1)
	assert.Len(t, reported, len(res.Pool))
	for _, v := range res.Pool {
		assert.Equal(t, 1, reported[v.Key()], "reported once: %s", v.ProviderID)
	}
}

func TestDiscoverReportsNothingPastTheCap(t *testing.T) {
	cfg := testConfig()
	cfg.PoolCap = 20
	maps := &fakeSearcher{search: uniquePages(15)}

	var reported atomic.Int64
	opts := &RunOptions{OnVenues: func(vs []model.Venue) { reported.Add(int64(len(vs))) }}
	res, err := New(cfg, maps, nil).Discover(context.Background(), params(), opts)
	require.NoError(t, err)

	assert.Len(t, res.Pool, 20)
	assert.Equal(t, int64(20), reported.Load())
}

func TestDiscoverCountsThrottledCalls(t *testing.T) {
	maps := &fakeSearcher{}
	maps.throttled.Store(5) // left over from an earlier run
	maps.search = func(_ context.Context, q provider.Query, page int) (provider.Page, error) {
		if q.Region.Ring == 1 {
			maps.throttled.Add(1)
		}
		return uniquePages(1)(context.Background(), q, page)
	}

	res, err := New(testConfig(), maps, nil).Discover(context.Background(), params(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.Stats.RateLimited)
}
