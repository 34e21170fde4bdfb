package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "scanflow_sessions_active",
	Help: "Number of open scenario sessions",
})

var sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scanflow_sessions_started_total",
	Help: "Started sessions by scenario and whether they resumed a saved position",
}, []string{"scenario", "resumed"})
