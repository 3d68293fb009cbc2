package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	samplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simtemp_samples_total",
		Help: "Samples decoded by the stream monitor",
	})

	alertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simtemp_alerts_total",
		Help: "Samples carrying the threshold-crossed flag",
	})

	sampleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simtemp_sample_errors_total",
			Help: "Samples that failed to read or decode, by error code",
		},
		[]string{"code"},
	)

	temperature = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simtemp_temperature_millicelsius",
		Help: "Most recent temperature in millidegrees Celsius",
	})

	monitorState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simtemp_monitor_state",
		Help: "Stream monitor state (0 stopped, 1 running, 2 stopping)",
	})
)
