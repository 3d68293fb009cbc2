package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "simtemp_commands_total",
		Help: "Interactive commands received, by kind",
	},
	[]string{"kind"},
)
