package xetcas

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Downloader reports to. Use
// NewMetrics and register the result with a prometheus.Registerer, or pass
// nil to WithMetrics to disable reporting.
type Metrics struct {
	fetches       prometheus.Counter
	fetchErrors   prometheus.Counter
	fetchBytes    prometheus.Counter
	fetchDuration prometheus.Histogram
	cacheHits     prometheus.Counter
	tokenRefresh  prometheus.Counter
}

// NewMetrics constructs a Metrics instance. Callers are responsible for
// registering it (e.g. via prometheus.MustRegister) before use.
func NewMetrics() *Metrics {
	return &Metrics{
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xetcas",
			Name:      "xorb_fetches_total",
			Help:      "Number of xorb byte-range fetches issued.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xetcas",
			Name:      "xorb_fetch_errors_total",
			Help:      "Number of xorb fetches that failed.",
		}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xetcas",
			Name:      "xorb_fetch_bytes_total",
			Help:      "Compressed bytes read from xorb fetch responses.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "xetcas",
			Name:      "xorb_fetch_duration_seconds",
			Help:      "Latency of a single xorb fetch request.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xetcas",
			Name:      "xorb_cache_hits_total",
			Help:      "Terms served from the in-download xorb cache.",
		}),
		tokenRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xetcas",
			Name:      "token_refreshes_total",
			Help:      "Token refresh round trips performed.",
		}),
	}
}

// Collectors returns every collector, for convenient bulk registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.fetches, m.fetchErrors, m.fetchBytes, m.fetchDuration, m.cacheHits, m.tokenRefresh,
	}
}
