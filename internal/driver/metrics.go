package driver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the driver updates: the
// round counter once per checker round, the duration histogram and
// verdict counter once per verification run, following the same promauto.With(reg).New* wiring
// as the teacher's internal/adapter/inbound/http/metrics.go.
type Metrics struct {
	RoundsTotal     prometheus.Counter
	VerifyDuration  prometheus.Histogram
	VerdictsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers the driver's metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RoundsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "acoac",
				Name:      "rounds_total",
				Help:      "Total abstraction-refinement rounds executed across all verification runs",
			},
		),
		VerifyDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "acoac",
				Name:      "verify_duration_seconds",
				Help:      "Wall-clock duration of one driver verification run",
				Buckets:   prometheus.DefBuckets,
			},
		),
		VerdictsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "acoac",
				Name:      "verdicts_total",
				Help:      "Total verification runs by final verdict",
			},
			[]string{"verdict"},
		),
	}
}
