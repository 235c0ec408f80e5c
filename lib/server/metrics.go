package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	inFlight      prometheus.Gauge
	duration      *prometheus.HistogramVec
	disabledTests *prometheus.CounterVec
	reports       *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tia",
			Name:      "requests_total",
			Help:      "Requests handled, by request and outcome",
		}, []string{"request", "outcome"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tia",
			Name:      "requests_in_flight",
			Help:      "Requests being handled or waiting for a worker",
		}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tia",
			Name:      "request_duration_seconds",
			Help:      "Time to handle a request, including waiting for initialization",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request"}),

		disabledTests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tia",
			Name:      "disabled_tests_total",
			Help:      "Tests reported as safe to skip, by project",
		}, []string{"project"}),

		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tia",
			Name:      "test_reports_total",
			Help:      "Test footprints received, by project",
		}, []string{"project"}),
	}
}
