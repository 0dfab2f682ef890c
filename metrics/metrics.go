// Package metrics exposes Prometheus counters for the scoring pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recomputes counts leaderboard recompute runs by kind
	// ("individual" or "team").
	Recomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raidapi_leaderboard_recomputes_total",
		Help: "Number of leaderboard recompute runs, by kind.",
	}, []string{"kind"})

	// EligibilityChecks counts age-eligibility validations by outcome
	// ("valid" or "invalid").
	EligibilityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raidapi_eligibility_checks_total",
		Help: "Number of team age-eligibility validations, by outcome.",
	}, []string{"outcome"})
)

// OutcomeLabel maps a validation verdict to its counter label.
func OutcomeLabel(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}
