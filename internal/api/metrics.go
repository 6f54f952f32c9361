package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// newMetrics registers the client collectors on reg. A nil reg keeps them
// unregistered, which tests rely on to build many clients.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldcrm_api_requests_total",
				Help: "Total number of requests sent to the CRM service",
			},
			[]string{"method", "route", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fieldcrm_api_request_duration_seconds",
				Help:    "CRM service request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldcrm_api_cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),
	}
}
