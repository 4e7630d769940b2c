package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the region selector. Every helper is
// safe on a nil receiver so components can run without metrics.
type Metrics struct {
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheCoalesced     *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	FetchFailures      *prometheus.CounterVec
	StaleDiscards      *prometheus.CounterVec
	LevelErrors        *prometheus.CounterVec
	RehydrationWalks   *prometheus.CounterVec
	PostalLookups      *prometheus.CounterVec
	SourceFailovers    prometheus.Counter
	BreakerOpen        prometheus.Gauge
	ActiveSelectors    prometheus.Gauge
	CatalogStoreHits   *prometheus.CounterVec
	CatalogStoreMisses *prometheus.CounterVec
}

// New registers the region metrics with reg. Pass prometheus.DefaultRegisterer
// in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_cache_hits_total",
			Help: "Region option lists served from the per-form cache",
		}, []string{"level"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_cache_misses_total",
			Help: "Region option lists that required an upstream fetch",
		}, []string{"level"}),
		CacheCoalesced: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_cache_coalesced_total",
			Help: "Callers that joined an in-flight fetch instead of issuing their own",
		}, []string{"level"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alumni_region_fetch_duration_seconds",
			Help:    "Duration of upstream region fetches",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"level"}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_fetch_failures_total",
			Help: "Upstream region fetches that failed, by category",
		}, []string{"level", "category"}),
		StaleDiscards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_stale_discards_total",
			Help: "Fetch results discarded because the selection moved on",
		}, []string{"level"}),
		LevelErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_level_errors_total",
			Help: "Level-scoped errors recorded by selectors",
		}, []string{"level", "kind"}),
		RehydrationWalks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_rehydration_walks_total",
			Help: "Rehydration walks by outcome",
		}, []string{"outcome"}),
		PostalLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_postal_lookups_total",
			Help: "Postal code lookups by outcome",
		}, []string{"outcome"}),
		SourceFailovers: f.NewCounter(prometheus.CounterOpts{
			Name: "alumni_region_source_failovers_total",
			Help: "Fetches answered by the secondary region source",
		}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "alumni_region_source_breaker_open",
			Help: "1 while the primary region source circuit is open",
		}),
		ActiveSelectors: f.NewGauge(prometheus.GaugeOpts{
			Name: "alumni_region_active_selectors",
			Help: "Selector sessions currently mounted",
		}),
		CatalogStoreHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_catalog_store_hits_total",
			Help: "Shared catalog store hits",
		}, []string{"store"}),
		CatalogStoreMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_region_catalog_store_misses_total",
			Help: "Shared catalog store misses",
		}, []string{"store"}),
	}
}

func (m *Metrics) RecordCacheHit(level string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(level).Inc()
}

func (m *Metrics) RecordCacheMiss(level string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(level).Inc()
}

func (m *Metrics) RecordCoalesced(level string) {
	if m == nil {
		return
	}
	m.CacheCoalesced.WithLabelValues(level).Inc()
}

// ObserveFetch records the duration of an upstream fetch.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveFetch(level string, start time.Time) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(level).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordFetchFailure(level, category string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(level, category).Inc()
}

func (m *Metrics) RecordStaleDiscard(level string) {
	if m == nil {
		return
	}
	m.StaleDiscards.WithLabelValues(level).Inc()
}

func (m *Metrics) RecordLevelError(level, kind string) {
	if m == nil {
		return
	}
	m.LevelErrors.WithLabelValues(level, kind).Inc()
}

func (m *Metrics) RecordWalk(outcome string) {
	if m == nil {
		return
	}
	m.RehydrationWalks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordPostalLookup(outcome string) {
	if m == nil {
		return
	}
	m.PostalLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementFailovers() {
	if m == nil {
		return
	}
	m.SourceFailovers.Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) SetActiveSelectors(count int) {
	if m == nil {
		return
	}
	m.ActiveSelectors.Set(float64(count))
}

func (m *Metrics) RecordStoreHit(store string) {
	if m == nil {
		return
	}
	m.CatalogStoreHits.WithLabelValues(store).Inc()
}

func (m *Metrics) RecordStoreMiss(store string) {
	if m == nil {
		return
	}
	m.CatalogStoreMisses.WithLabelValues(store).Inc()
}
