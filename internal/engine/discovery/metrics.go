package discovery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "mealspin"

// Metrics are the Prometheus series for discovery and draws. A nil *Metrics
// records nothing.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	ProviderCalls  *prometheus.CounterVec
	PoolSize       prometheus.Histogram
	SelectionSize  prometheus.Histogram
	SpinsTotal     prometheus.Counter
	ShortlistAdded prometheus.Counter
}

// NewMetrics registers the series on reg (the default registerer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "discovery_runs_total",
			Help:      "Discovery runs by outcome",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "discovery_duration_seconds",
			Help:      "Wall time of discovery runs",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_calls_total",
			Help:      "Provider calls by provider kind and result",
		}, []string{"kind", "result"}),
		PoolSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "candidate_pool_size",
			Help:      "Venues in the pool at the end of a run",
			Buckets:   []float64{0, 10, 25, 50, 100, 200, 300, 400, 500},
		}),
		SelectionSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "selection_size",
			Help:      "Venues handed to the wheel",
			Buckets:   prometheus.LinearBuckets(0, 2, 11),
		}),
		SpinsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spins_total",
			Help:      "Roulette spins resolved",
		}),
		ShortlistAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "shortlist_added_total",
			Help:      "Venues added to a group shortlist",
		}),
	}
}

func (m *Metrics) observeCall(kind, result string) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) observeRun(outcome string, elapsed time.Duration, pool, selected int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		m.PoolSize.Observe(float64(pool))
		m.SelectionSize.Observe(float64(selected))
	}
}

// ObserveSpin counts a resolved spin.
func (m *Metrics) ObserveSpin() {
	if m == nil {
		return
	}
	m.SpinsTotal.Inc()
}

// ObserveShortlist counts venues newly added to a shortlist.
func (m *Metrics) ObserveShortlist(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ShortlistAdded.Add(float64(n))
}
