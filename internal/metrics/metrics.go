package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PointsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_granted_total",
			Help: "Total points granted, by activity type",
		},
		[]string{"activity_type"},
	)
	BadgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total badges awarded, by category",
		},
		[]string{"category"},
	)
	CertificatesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Total certificates issued",
		},
	)
	ChaptersCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chapters_completed_total",
			Help: "Total chapter completions recorded",
		},
	)
)

// Init registers the domain metrics. Call once from main.go.
func Init() {
	prometheus.MustRegister(PointsGranted)
	prometheus.MustRegister(BadgesAwarded)
	prometheus.MustRegister(CertificatesIssued)
	prometheus.MustRegister(ChaptersCompleted)
}
