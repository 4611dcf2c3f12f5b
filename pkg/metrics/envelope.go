package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the envelope assignment HTTP handler
	EnvelopeAssignLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "envelope_assign_latency_seconds",
		Help:    "Latency of the envelope assignment handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of envelope assignments served
	EnvelopeAssignTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "envelope_assign_requests_total",
		Help: "Total number of envelope assignment requests",
	})

	SessionCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "envelope_sessions_created_total",
		Help: "New sessions persisted on first view",
	})

	PickCommitTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "envelope_pick_commits_total",
		Help: "Picks committed exactly once",
	})

	PickConflictTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "envelope_pick_conflicts_total",
		Help: "Picks rejected because the session had already picked",
	})

	VisitLoggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "envelope_visits_logged_total",
		Help: "Visit log rows appended",
	})
)

func Init() {
	prometheus.MustRegister(
		EnvelopeAssignLatency,
		EnvelopeAssignTotal,
		SessionCreatedTotal,
		PickCommitTotal,
		PickConflictTotal,
		VisitLoggedTotal,
	)
}
