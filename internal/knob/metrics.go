package knob

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	knobErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simtemp_knob_errors_total",
			Help: "Knob reads and writes rejected by the driver",
		},
		[]string{"knob", "op"}, // op: read or write
	)

	knobWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simtemp_knob_writes_total",
			Help: "Knob writes accepted by the driver",
		},
		[]string{"knob"},
	)
)
