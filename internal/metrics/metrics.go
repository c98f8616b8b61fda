package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caltrack_web",
			Name:      "upstream_requests_total",
			Help:      "Count of meal API calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	submissionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caltrack_web",
			Name:      "meal_submissions_rejected_total",
			Help:      "Count of meal submissions rejected before reaching the meal API.",
		},
		[]string{"reason"},
	)

	rdaRecalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caltrack_web",
			Name:      "rda_recalculations_total",
			Help:      "Count of RDA recalculations by outcome.",
		},
		[]string{"outcome"},
	)

	corruptEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caltrack_web",
			Name:      "corrupt_entries_total",
			Help:      "Count of persisted entries that failed to decode.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(upstreamRequests, submissionsRejected, rdaRecalculations, corruptEntries)
	})
}

func IncUpstream(operation, outcome string) {
	upstreamRequests.WithLabelValues(operation, outcome).Inc()
}

func IncSubmissionRejected(reason string) {
	submissionsRejected.WithLabelValues(reason).Inc()
}

func IncRDARecalculation(outcome string) {
	rdaRecalculations.WithLabelValues(outcome).Inc()
}

func IncCorruptEntry(kind string) {
	corruptEntries.WithLabelValues(kind).Inc()
}
