package plasticity

import "github.com/prometheus/client_golang/prometheus"

var commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plasticity",
	Subsystem: "executor",
	Name:      "commands_total",
	Help:      "Commands settled, by terminal state.",
}, []string{"state"})

var commandsDropped = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "plasticity",
	Subsystem: "executor",
	Name:      "commands_dropped_total",
	Help:      "Commands overwritten in the pending slot before ever running.",
})

var commandDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "plasticity",
	Subsystem: "executor",
	Name:      "command_duration_seconds",
	Help:      "Wall time from a command taking its queue turn to settling.",
	Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
})

var historyDepth = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "plasticity",
	Subsystem: "history",
	Name:      "depth",
	Help:      "Undoable entries currently on the history stack.",
})

// RegisterMetrics attaches the editor's collectors to reg. Hosts that
// do not scrape can skip this; the collectors work unregistered.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(commandsTotal, commandsDropped, commandDuration, historyDepth)
}
