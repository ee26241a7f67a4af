package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels operations that completed normally.
	OutcomeSuccess = "success"
	// OutcomeError labels operations that failed on a dependency or input.
	OutcomeError = "error"
)

var (
	eventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caretrace",
			Name:      "events_ingested_total",
			Help:      "Total patient events recorded, partitioned by event type.",
		},
		[]string{"event_type"},
	)

	safetyChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caretrace",
			Name:      "safety_checks_total",
			Help:      "Total medication safety checks, partitioned by verdict code.",
		},
		[]string{"code"},
	)

	patternScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caretrace",
			Name:      "pattern_scans_total",
			Help:      "Total recurring-symptom scans, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "caretrace",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds, partitioned by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 10},
		},
		[]string{"operation"},
	)
)

// Register attaches caretrace collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		eventsIngestedTotal,
		safetyChecksTotal,
		patternScansTotal,
		analysisDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEventIngested counts a recorded event by type.
func ObserveEventIngested(eventType string) {
	eventsIngestedTotal.WithLabelValues(eventType).Inc()
}

// ObserveSafetyCheck counts a safety check by verdict code.
func ObserveSafetyCheck(code string) {
	safetyChecksTotal.WithLabelValues(code).Inc()
}

// ObservePatternScan counts a recurring-symptom scan by outcome.
func ObservePatternScan(outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeSuccess
	}
	patternScansTotal.WithLabelValues(outcome).Inc()
}

// ObserveAnalysis records the latency of a named analysis operation.
func ObserveAnalysis(operation string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}
