// Package metrics exposes Prometheus collectors for simulation runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal counts finished runs by difficulty strategy and outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "braidsim_runs_total",
		Help: "Simulation runs by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	// BlocksSimulated counts blocks produced across all runs.
	BlocksSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "braidsim_blocks_simulated_total",
		Help: "Blocks produced across all simulation runs.",
	})

	// RunDuration observes wall-clock seconds per run.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "braidsim_run_duration_seconds",
		Help:    "Wall-clock duration of simulation runs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"strategy"})

	// TargetClamps counts controller outputs that hit a numerical floor.
	TargetClamps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "braidsim_target_clamps_total",
		Help: "Difficulty decisions whose denominator or multiplier was clamped.",
	})

	// LateFlagWrites counts cohort or sibling writes dropped on final blocks.
	LateFlagWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "braidsim_late_flag_writes_total",
		Help: "Cohort or sibling flag writes that arrived after finalization.",
	})

	// CacheLookups counts run cache lookups by result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "braidsim_run_cache_lookups_total",
		Help: "In-memory run cache lookups by result.",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
