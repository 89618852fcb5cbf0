package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spinsignal",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of upstream API calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spinsignal",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Errors by upstream API endpoint",
		},
		[]string{"service", "endpoint"},
	)
)

// Register adds the upstream vectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(UpstreamLatency, UpstreamErrors)
	})
}

// Observe records one upstream call.
func Observe(service, endpoint string, seconds float64, err error) {
	UpstreamLatency.WithLabelValues(service, endpoint).Observe(seconds)
	if err != nil {
		UpstreamErrors.WithLabelValues(service, endpoint).Inc()
	}
}
