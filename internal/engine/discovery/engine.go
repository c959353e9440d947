// Package discovery runs a candidate discovery: it fans the search disc out
// over the map provider, pulls the delivery catalog, merges everything into a
// deduplicated pool and hands the pool to the balanced selector.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/category"
	"github.com/rendis/mealspin/internal/engine/provider"
	"github.com/rendis/mealspin/internal/engine/selection"
	"github.com/rendis/mealspin/internal/model"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid discovery request")

// Result is the outcome of a discovery run.
type Result struct {
	RunID     string             `json:"run_id"`
	Params    model.SearchParams `json:"params"`
	Pool      []model.Venue      `json:"-"`
	PoolSize  int                `json:"pool_size"`
	Selection []model.Venue      `json:"selection"`
	Stats     StatsSnapshot      `json:"stats"`
}

// RunOptions provides optional hooks for a run.
type RunOptions struct {
	// OnVenues is called with each batch of venues that made it into the pool.
	OnVenues func([]model.Venue)
	// Stats allows passing an external Stats object for live progress tracking.
	Stats *Stats
	// Rand drives selection. Nil means randomly seeded.
	Rand *rand.Rand
}

// Engine wires the providers to the discovery pipeline.
type Engine struct {
	cfg        config.Discovery
	maps       provider.Searcher
	delivery   provider.DeliveryCatalog
	normalizer *category.Normalizer
	logger     *zap.Logger
	metrics    *Metrics
}

// Option customises an Engine.
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithNormalizer(n *category.Normalizer) Option { return func(e *Engine) { e.normalizer = n } }

// New returns an engine. Either provider may be nil; requesting a kind whose
// provider is nil fails with provider.ErrProviderUnavailable.
func New(cfg config.Discovery, maps provider.Searcher, delivery provider.DeliveryCatalog, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		maps:     maps,
		delivery: delivery,
	}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.normalizer == nil {
		e.normalizer = category.NewNormalizer(category.DefaultTable)
	}
	return e
}

// NewFromConfig builds an engine backed by Kakao local search for in-person
// venues and the Yogiyo catalog for delivery.
func NewFromConfig(cfg config.Config, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	maps := provider.NewKakao(cfg.Kakao, logger)
	delivery := provider.NewYogiyo(cfg.Yogiyo, cfg.Discovery.DeliveryPages, logger)
	return New(cfg.Discovery, maps, delivery, append([]Option{WithLogger(logger)}, opts...)...)
}

// Config returns the discovery settings the engine runs with.
func (e *Engine) Config() config.Discovery { return e.cfg }

// Discover builds the candidate pool around p.Center and selects the wheel.
// Region failures are logged and skipped; an unusable provider fails the
// whole run. If ctx is cancelled the run returns ctx.Err() without waiting
// for in-flight provider calls.
func (e *Engine) Discover(ctx context.Context, p model.SearchParams, opts *RunOptions) (*Result, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}

	p, err := e.normalizeParams(p)
	if err != nil {
		return nil, err
	}
	if err := e.checkProviders(p); err != nil {
		e.metrics.observeRun("unavailable", 0, 0, 0)
		return nil, err
	}

	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID))
	log.Info("run started",
		zap.Float64("lat", p.Center.Lat),
		zap.Float64("lng", p.Center.Lng),
		zap.Float64("radius_m", p.Radius),
		zap.Bool("in_person", p.WantInPerson),
		zap.Bool("delivery", p.WantDelivery),
		zap.Int("target", p.Target))

	start := time.Now()
	state := NewRunState(e.cfg.PoolCap)
	throttled := e.rateLimits()
	countThrottled := func() {
		now := e.rateLimits()
		stats.RateLimited.Add(now - throttled)
		throttled = now
	}
	defer countThrottled()

	if p.WantDelivery {
		if err := e.collectDelivery(ctx, p, state, stats, opts, log); err != nil {
			state.Seal()
			e.metrics.observeRun("unavailable", time.Since(start), 0, 0)
			return nil, err
		}
	}

	if p.WantInPerson {
		e.scanRegions(ctx, p, state, stats, opts, log)
	}
	state.Seal()

	if err := ctx.Err(); err != nil {
		log.Warn("run cancelled", zap.Int("pool", state.Len()), zap.Error(err))
		e.metrics.observeRun("cancelled", time.Since(start), state.Len(), 0)
		return nil, err
	}

	pool := state.Pool()
	sel := selection.Selector{
		Target:   p.Target,
		Excluded: e.cfg.ExcludedCategory,
		Rand:     opts.Rand,
	}.SelectByKind(pool, p.WantInPerson, p.WantDelivery)

	countThrottled()
	snap := stats.Snapshot()
	snap.Elapsed = time.Since(start)
	log.Info("run complete",
		zap.Int("pool", len(pool)),
		zap.Int("selected", len(sel)),
		zap.Int64("regions_failed", snap.RegionsFailed),
		zap.Int64("rate_limited", snap.RateLimited),
		zap.Int64("calls", snap.Calls),
		zap.Duration("elapsed", snap.Elapsed))
	e.metrics.observeRun("ok", snap.Elapsed, len(pool), len(sel))

	return &Result{
		RunID:     runID,
		Params:    p,
		Pool:      pool,
		PoolSize:  len(pool),
		Selection: sel,
		Stats:     snap,
	}, nil
}

// rateLimits sums the throttled answers seen by both providers. The counters
// are per engine, so overlapping runs share them.
func (e *Engine) rateLimits() int64 {
	var n int64
	for _, p := range []any{e.maps, e.delivery} {
		if c, ok := p.(provider.RateLimitCounter); ok {
			n += c.RateLimits()
		}
	}
	return n
}

func (e *Engine) normalizeParams(p model.SearchParams) (model.SearchParams, error) {
	if p.Radius <= 0 {
		return p, fmt.Errorf("%w: radius must be positive", ErrInvalidRequest)
	}
	if p.Center.Lat < -90 || p.Center.Lat > 90 || p.Center.Lng < -180 || p.Center.Lng > 180 {
		return p, fmt.Errorf("%w: center out of range", ErrInvalidRequest)
	}
	if p.Target > selection.MaxTarget {
		return p, fmt.Errorf("%w: target above %d", ErrInvalidRequest, selection.MaxTarget)
	}
	if p.Target <= 0 {
		p.Target = selection.DefaultTarget
	}
	if !p.WantInPerson && !p.WantDelivery {
		p.WantInPerson = true
	}
	return p, nil
}

func (e *Engine) checkProviders(p model.SearchParams) error {
	if p.WantInPerson {
		if e.maps == nil {
			return fmt.Errorf("%w: no map provider configured", provider.ErrProviderUnavailable)
		}
		if err := e.maps.Ready(); err != nil {
			return err
		}
	}
	if p.WantDelivery {
		if e.delivery == nil {
			return fmt.Errorf("%w: no delivery catalog configured", provider.ErrProviderUnavailable)
		}
		if err := e.delivery.Ready(); err != nil {
			return err
		}
	}
	return nil
}

// collectDelivery adds the well-reviewed delivery venues to the pool. Only
// ErrProviderUnavailable is returned; other failures leave the delivery side
// empty.
func (e *Engine) collectDelivery(ctx context.Context, p model.SearchParams, state *RunState, stats *Stats, opts *RunOptions, log *zap.Logger) error {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.DeliveryTimeout)
	defer cancel()

	venues, err := e.delivery.SearchDelivery(callCtx, p.Center, p.MaxDeliveryMinutes)
	stats.Calls.Add(1)
	if err != nil {
		e.metrics.observeCall(string(model.KindDelivery), "error")
		if errors.Is(err, provider.ErrProviderUnavailable) {
			return err
		}
		log.Warn("delivery catalog failed", zap.Error(err))
		return nil
	}
	e.metrics.observeCall(string(model.KindDelivery), "ok")
	stats.DeliveryFound.Add(int64(len(venues)))

	kept := make([]model.Venue, 0, len(venues))
	for _, v := range venues {
		if v.Rating < e.cfg.ReviewThreshold {
			continue
		}
		e.normalizer.Apply(&v)
		kept = append(kept, v)
	}

	added, _ := state.Add(kept)
	stats.DeliveryKept.Add(int64(len(added)))
	if opts.OnVenues != nil && len(added) > 0 {
		opts.OnVenues(added)
	}
	log.Info("delivery collected", zap.Int("found", len(venues)), zap.Int("kept", len(added)))
	return nil
}
