package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analyzeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arena",
		Subsystem: "analyzer",
		Name:      "analysis_duration_seconds",
		Help:      "Duration of analyzer scoring requests",
	}, []string{"provider"})

	analyzeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Subsystem: "analyzer",
		Name:      "analysis_failures_total",
		Help:      "Number of analyzer scoring failures",
	}, []string{"provider"})
)
