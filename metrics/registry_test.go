package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestComponentRegistryReusesCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first := NewComponentRegistryWith(reg, "nitro", "hub").NewCounterVec(prometheus.CounterOpts{
		Name: "requests_total",
		Help: "Requests",
	}, []string{"status"})
	second := NewComponentRegistryWith(reg, "nitro", "hub").NewCounterVec(prometheus.CounterOpts{
		Name: "requests_total",
		Help: "Requests",
	}, []string{"status"})

	first.WithLabelValues("ok").Inc()
	second.WithLabelValues("ok").Inc()
	require.Equal(t, 2.0, testutil.ToFloat64(first.WithLabelValues("ok")))

	count, err := testutil.GatherAndCount(reg, "nitro_hub_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestGetRegistryIsShared(t *testing.T) {
	t.Parallel()

	require.Same(t, GetRegistry(), GetRegistry())
}
