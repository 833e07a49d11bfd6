package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	failureFetch  = "fetch"
	failureDecode = "decode"

	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// Metrics are the Prometheus instruments for stats computation.
type Metrics struct {
	fetches       prometheus.Counter
	failures      *prometheus.CounterVec
	duration      prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	cacheWriteErr prometheus.Counter
}

// NewMetrics creates the instruments and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "iceberg_lens",
			Subsystem: "stats",
			Name:      "manifest_list_fetches_total",
			Help:      "Signed manifest list fetches issued.",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iceberg_lens",
			Subsystem: "stats",
			Name:      "failures_total",
			Help:      "Stats computations that yielded no result, by stage.",
		}, []string{"stage"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "iceberg_lens",
			Subsystem: "stats",
			Name:      "compute_duration_seconds",
			Help:      "Time to fetch, decode and aggregate one manifest list.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iceberg_lens",
			Subsystem: "stats",
			Name:      "cache_lookups_total",
			Help:      "Stats cache lookups, by result.",
		}, []string{"result"}),
		cacheWriteErr: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "iceberg_lens",
			Subsystem: "stats",
			Name:      "cache_write_failures_total",
			Help:      "Detached cache writes that failed.",
		}),
	}
}
