package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// DurationBuckets covers request handling from a millisecond to ten seconds.
	DurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

	// CountBuckets suits small cardinalities such as commitments per request.
	CountBuckets = prometheus.LinearBuckets(1, 1, 10)

	// RetryBuckets counts delivery attempts.
	RetryBuckets = prometheus.ExponentialBuckets(1, 2, 6)
)
