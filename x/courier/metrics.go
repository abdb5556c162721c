package courier

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/compose-network/nitro-wallet/metrics"
)

type Metrics struct {
	Deliveries       *prometheus.CounterVec
	DeliveryAttempts *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	r := metrics.NewComponentRegistryWith(reg, "nitro", "courier")

	return &Metrics{
		Deliveries: r.NewCounterVec(prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Outbox deliveries by outbox and result",
		}, []string{"outbox", "result"}),

		DeliveryAttempts: r.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "delivery_attempts",
			Help:    "Attempts needed per outbox entry",
			Buckets: metrics.RetryBuckets,
		}, []string{"outbox"}),
	}
}
