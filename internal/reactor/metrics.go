package reactor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics as package-level promauto collectors, registered once
// at package init and read by the optional -m PORT metrics listener
// (spec.md's ambient observability surface; the core protocol itself
// carries none of this).
var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphserv_sessions_active",
		Help: "Number of client sessions currently connected (TCP and HTTP).",
	})

	coresRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphserv_cores_running",
		Help: "Number of graph-engine core processes currently running.",
	})

	linesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graphserv_lines_received_total",
		Help: "Total lines received from clients across every session.",
	})

	coreCommandsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphserv_core_commands_queued",
		Help: "Total commands currently queued across every core, awaiting dispatch.",
	})

	coreCommandsDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphserv_core_commands_dispatched_total",
		Help: "Commands written to a core's stdin, by core name.",
	}, []string{"core"})
)

// refreshGauges recomputes the point-in-time gauges from the registries
// they describe. Called after every event that could move them, rather
// than continuously, since the reactor is single-threaded and there's no
// concurrent reader to race against.
func (r *Reactor) refreshGauges() {
	sessionsActive.Set(float64(r.Sessions.Len()))
	coresRunning.Set(float64(r.Cores.RunningCount()))

	queued := 0
	for _, c := range r.Cores.All() {
		queued += c.QueueLen()
	}
	coreCommandsQueued.Set(float64(queued))
}
