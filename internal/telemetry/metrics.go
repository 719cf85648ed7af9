package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TickDuration tracks Resolver.Tick latency.
var TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "castcut_resolver_tick_duration_seconds",
	Help:    "Time spent in one Resolver tick.",
	Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05},
})

// ResolveCalls counts Resolver operations by kind (tick, seek, step_frame).
var ResolveCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castcut_resolver_calls_total",
	Help: "Resolver operations by kind.",
}, []string{"op"})

// EditMutations counts Edit Model mutations by operation and outcome
// (ok vs refused), so InvariantViolation refusal rates are observable.
var EditMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castcut_editmodel_mutations_total",
	Help: "Edit Model mutations by operation and outcome.",
}, []string{"op", "outcome"})

// EventIndexBuildDuration tracks how long Input-Event Index construction
// takes per bundle.
var EventIndexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "castcut_eventindex_build_duration_seconds",
	Help:    "Time to build an Input-Event Index for one bundle.",
	Buckets: prometheus.DefBuckets,
})

// Handler returns the Prometheus scrape handler, mounted at GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
