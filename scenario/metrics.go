package scenario

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes.
const (
	outcomeHandled  = "handled"
	outcomeIgnored  = "ignored"
	outcomeRejected = "rejected"
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeDropped  = "discarded"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanflow_dispatch_total",
		Help: "Dispatched events by scenario, state, event and outcome (handled, ignored or rejected)",
	}, []string{"scenario", "state", "event", "outcome"})

	transitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanflow_transitions_total",
		Help: "State transitions by scenario, from_state and to_state",
	}, []string{"scenario", "from_state", "to_state"})

	callTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanflow_calls_total",
		Help: "Gateway calls by scenario, endpoint and outcome (success, failure or discarded)",
	}, []string{"scenario", "endpoint", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanflow_call_duration_seconds",
		Help:    "Duration of gateway calls by scenario and endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"scenario", "endpoint"})
)
