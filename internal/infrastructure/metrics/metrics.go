package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsTotal counts recommendation requests by outcome.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cocktail_recommendations_total",
			Help: "Total number of cocktail recommendation requests",
		},
		[]string{"outcome"},
	)

	// GenerationDuration tracks end-to-end recipe generation latency.
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cocktail_generation_duration_seconds",
			Help:    "Duration of recipe generation in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// RecipeLength observes the number of ingredients per generated recipe.
	RecipeLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cocktail_recipe_length",
			Help:    "Number of ingredients in generated recipes",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	// BalancerConvergence counts quantity balancing runs by convergence.
	BalancerConvergence = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cocktail_balancer_runs_total",
			Help: "Quantity balancer runs by convergence result",
		},
		[]string{"converged"},
	)

	// PredictorDuration tracks predictor call latency by status.
	PredictorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cocktail_predictor_duration_seconds",
			Help:    "Duration of predictor calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// PredictorBreakerState exposes the predictor circuit breaker state (0 closed, 1 half-open, 2 open).
	PredictorBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cocktail_predictor_breaker_state",
			Help: "Predictor circuit breaker state",
		},
	)

	// CacheHitsTotal counts recommendation cache hits.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cocktail_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	// CacheMissesTotal counts recommendation cache misses.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cocktail_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	// QueueLength tracks pending generation jobs.
	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cocktail_queue_length",
			Help: "Number of generation jobs waiting for a worker",
		},
	)
)
