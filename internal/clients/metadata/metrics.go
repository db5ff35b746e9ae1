package metadata

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediashelf_upstream_requests_total",
		Help: "Upstream metadata requests by provider, operation and outcome",
	}, []string{"provider", "operation", "outcome"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediashelf_upstream_request_duration_seconds",
		Help:    "Upstream metadata request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})
)

func observeUpstream(provider, operation, outcome string, elapsed time.Duration) {
	upstreamRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	upstreamRequestDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}
