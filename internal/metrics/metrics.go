// Package metrics exposes the Prometheus instrumentation for the chat core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors the orchestrator reports into.
type Metrics struct {
	TurnsTotal        *prometheus.CounterVec
	DecisionsTotal    *prometheus.CounterVec
	PhrasingFallbacks prometheus.Counter
	TurnDuration      prometheus.Histogram
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_turns_total",
			Help: "Conversation turns processed, labelled by the stage they landed on.",
		}, []string{"stage"}),
		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_decisions_total",
			Help: "Underwriting decisions rendered, by outcome.",
		}, []string{"outcome"}),
		PhrasingFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanflow_phrasing_fallbacks_total",
			Help: "Turns where the LLM phraser failed and the canned reply was used.",
		}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanflow_turn_duration_seconds",
			Help:    "Wall time per processed turn.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
