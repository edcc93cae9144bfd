// Package metrics exposes the Prometheus collectors shared across the
// service. Collectors are registered once at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal counts completed predictions by predicted status.
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liverlens",
		Name:      "predictions_total",
		Help:      "Completed predictions by predicted status code.",
	}, []string{"status"})

	// PredictionErrors counts failed predictions by failure class.
	PredictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liverlens",
		Name:      "prediction_errors_total",
		Help:      "Failed predictions by failure class.",
	}, []string{"reason"})

	// PredictionDuration observes end-to-end pipeline latency.
	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "liverlens",
		Name:      "prediction_duration_seconds",
		Help:      "Latency of the validate-transform-classify pipeline.",
		Buckets:   prometheus.DefBuckets,
	})

	// AnalyticsRequests counts analytics computations by operation and
	// cache outcome.
	AnalyticsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liverlens",
		Name:      "analytics_requests_total",
		Help:      "Analytics computations by operation and cache outcome.",
	}, []string{"operation", "cache"})
)
