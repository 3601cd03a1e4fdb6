package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcode_tracker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postcode_tracker_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// One observation per upstream attempt. outcome is ok, not_found or error.
	GeocoderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcode_tracker_geocoder_attempts_total",
			Help: "Geocoding provider attempts by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// result is hit, miss or error.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcode_tracker_location_cache_lookups_total",
			Help: "Location cache lookups by result",
		},
		[]string{"result"},
	)
)
