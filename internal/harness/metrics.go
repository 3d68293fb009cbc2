package harness

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simtemp_check_verdicts_total",
			Help: "Check verdicts, by check and result",
		},
		[]string{"check", "result"},
	)

	checkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simtemp_check_duration_seconds",
			Help:    "Wall time spent per check",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"check"},
	)
)

func observe(v Verdict) {
	result := "pass"
	if !v.Passed {
		result = "fail"
	}
	verdictsTotal.WithLabelValues(v.Name, result).Inc()
	checkDuration.WithLabelValues(v.Name).Observe(v.Elapsed.Seconds())
}
