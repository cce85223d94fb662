package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "completed", "invalid_input", "empty_generation", "upstream_error", "persistence_failure"
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_generation_duration_seconds",
			Help:    "Duration of calls to the generation provider in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "status"},
	)

	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_persist_duration_seconds",
			Help:    "Duration of the recommendation insert transaction in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GenerationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_generation_retries_total",
			Help: "Total number of retried generation attempts",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommendation_circuit_breaker_state",
			Help: "Generation circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordOutcome counts a finished pipeline run
func RecordOutcome(outcome string) {
	RecommendationRequests.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records one provider call
func ObserveGeneration(provider string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	GenerationDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

// ObservePersist records one insert transaction
func ObservePersist(d time.Duration) {
	PersistDuration.Observe(d.Seconds())
}
