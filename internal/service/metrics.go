package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics, exposed on the /metrics listener started by
// shared/observability.
var (
	themingAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedback_theming_attempts_total",
		Help: "Theming attempts started, single-item and bulk combined.",
	})

	themingOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_theming_outcomes_total",
		Help: "Terminal theming outcomes by result.",
	}, []string{"outcome"})

	bulkClaims = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedback_bulk_claimed_total",
		Help: "Feedback items claimed by bulk theming.",
	})

	solutionGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cluster_solution_generations_total",
		Help: "Solution generation requests by result.",
	}, []string{"result"})
)
