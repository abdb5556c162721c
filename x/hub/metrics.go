package hub

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/compose-network/nitro-wallet/metrics"
)

// Metrics holds the relay metrics.
type Metrics struct {
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	CommitmentsStored     *prometheus.CounterVec
	CommitmentsPerRequest prometheus.Histogram
}

// NewMetrics registers the relay metrics in reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	r := metrics.NewComponentRegistryWith(reg, "nitro", "hub")

	return &Metrics{
		RequestsTotal: r.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_requests_total",
			Help: "Relayed actions by type and outcome code",
		}, []string{"type", "code"}),

		RequestDuration: r.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_request_duration_seconds",
			Help:    "Time to handle a relayed action",
			Buckets: metrics.DurationBuckets,
		}, []string{"type"}),

		CommitmentsStored: r.NewCounterVec(prometheus.CounterOpts{
			Name: "commitments_stored_total",
			Help: "Commitments stored by channel kind",
		}, []string{"channel"}),

		CommitmentsPerRequest: r.NewHistogram(prometheus.HistogramOpts{
			Name:    "commitments_per_request",
			Help:    "Commitments accepted from one relayed action",
			Buckets: metrics.CountBuckets,
		}),
	}
}
