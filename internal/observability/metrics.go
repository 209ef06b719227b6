// Package observability wires tracing and domain metrics.
//
// This file declares the Prometheus collectors for meal-plan saves, side
// effects and rate-limit decisions. Labels are small closed sets so series
// cardinality stays bounded.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Save outcome labels.
const (
	SaveCreated   = "created"
	SaveExisting  = "existing"
	SaveRecovered = "recovered_duplicate"
)

var (
	// MealPlanSaves counts Save outcomes by result.
	MealPlanSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_saves_total",
			Help: "Meal plan save attempts by result.",
		},
		[]string{"result"},
	)

	// SideEffectFailures counts swallowed after-commit failures by effect.
	SideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_side_effect_failures_total",
			Help: "After-commit side effects that failed and were discarded.",
		},
		[]string{"effect"},
	)

	// RateLimitDecisions counts admission checks by outcome (allowed|denied).
	RateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Rate limiter admission decisions.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(MealPlanSaves, SideEffectFailures, RateLimitDecisions)
}
