package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FlowStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "flow",
		Name:      "started_total",
	})
	FlowCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "flow",
		Name:      "completed_total",
	})
	FlowAborted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "flow",
		Name:      "aborted_total",
	}, []string{"reason"})
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetbot",
		Subsystem: "flow",
		Name:      "step_duration_seconds",
	}, []string{"step"})
)
