package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newstrader",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of news upstream fetches",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newstrader",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Failed fetches by news upstream",
		},
		[]string{"upstream"},
	)

	UpstreamItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newstrader",
			Subsystem: "upstream",
			Name:      "items_total",
			Help:      "Headlines returned by news upstream, before dedup",
		},
		[]string{"upstream"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(UpstreamLatency, UpstreamErrors, UpstreamItems)
	})
}

// ObserveFetch records one upstream fetch. Collectors work unregistered, so
// this is safe to call before Register.
func ObserveFetch(upstream string, start time.Time, items int, err error) {
	UpstreamLatency.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
	if err != nil {
		UpstreamErrors.WithLabelValues(upstream).Inc()
		return
	}
	UpstreamItems.WithLabelValues(upstream).Add(float64(items))
}
