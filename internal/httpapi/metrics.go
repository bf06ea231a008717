package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts endpoint requests by outcome
	// (ok or an error code).
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_evaluations_total",
			Help: "Total number of endpoint evaluations",
		},
		[]string{"endpoint", "outcome"},
	)
	// RequestDuration is the latency of endpoint requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sieve_request_duration_seconds",
			Help:    "Endpoint request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)
