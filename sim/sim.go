// Package sim drives one braid simulation: it draws the inputs, grows the DAG
// block by block and feeds every block's target into the next solvetime.
package sim

import (
	"context"
	"time"

	"braidsim/dag"
	"braidsim/difficulty"
	"braidsim/events"
	"braidsim/logger"
	"braidsim/metrics"
	"braidsim/models"
	"braidsim/stats"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ctxCheckInterval is how many blocks are mined between cancellation checks.
const ctxCheckInterval = 1024

// Simulation is a single run. Blocks are produced strictly in height order;
// it is not safe for concurrent use.
type Simulation struct {
	cfg     Config
	kind    difficulty.Kind
	gen     *events.Generator
	sched   *events.Schedule
	store   *dag.Store
	builder *dag.Builder
	ctrl    difficulty.Controller
	clamps  int
}

// New resolves and validates cfg and prepares a run.
func New(cfg Config) (*Simulation, error) {
	cfg, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	kind, _ := cfg.Kind()
	ctrl, err := difficulty.New(kind, cfg.Difficulty)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	store := dag.NewStore(cfg.Blocks, cfg.FinalityDepth)
	store.SetHorizon(cfg.Warmup())
	return &Simulation{
		cfg:     cfg,
		kind:    kind,
		gen:     events.NewGenerator(cfg.Network, cfg.Seed),
		store:   store,
		builder: dag.NewBuilder(store, dag.LatencyOracle{}, cfg.Lookback),
		ctrl:    ctrl,
	}, nil
}

// Config returns the resolved configuration.
func (s *Simulation) Config() Config {
	return s.cfg
}

// Result is a finished run. Store holds the per-height records.
type Result struct {
	Config  Config
	Store   *dag.Store
	Clamps  int
	Elapsed time.Duration
}

// Summary computes the aggregate statistics of the run.
func (r *Result) Summary() models.Summary {
	return stats.Summarize(r.Store)
}

// Run produces every block. It stops early only when ctx is cancelled or the
// look-back window cannot be filled.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cfg := s.cfg
	logger.Logger.Info("Starting simulation",
		zap.String("strategy", string(s.kind)),
		zap.String("blocks", humanize.Comma(int64(cfg.Blocks))),
		zap.Uint64("seed", cfg.Seed),
		zap.Int("lookback", cfg.Lookback),
		zap.Int("buffer", cfg.Buffer))

	s.sched = s.gen.Schedule(cfg.Blocks, cfg.Lookback+perturbationStart)
	if err := s.warmUp(); err != nil {
		return nil, err
	}

	for h := cfg.Warmup(); h < cfg.Blocks; h++ {
		if (h-cfg.Warmup())%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				metrics.RunsTotal.WithLabelValues(string(s.kind), "cancelled").Inc()
				return nil, err
			}
		}
		if err := s.mine(h); err != nil {
			metrics.RunsTotal.WithLabelValues(string(s.kind), "failed").Inc()
			return nil, err
		}
	}
	s.store.FinalizeAll()

	elapsed := time.Since(start)
	metrics.RunsTotal.WithLabelValues(string(s.kind), "ok").Inc()
	metrics.BlocksSimulated.Add(float64(cfg.Blocks))
	metrics.RunDuration.WithLabelValues(string(s.kind)).Observe(elapsed.Seconds())
	metrics.TargetClamps.Add(float64(s.clamps))
	metrics.LateFlagWrites.Add(float64(s.store.LateWrites()))

	logger.Logger.Info("Simulation finished",
		zap.String("strategy", string(s.kind)),
		zap.Uint64("seed", cfg.Seed),
		zap.Int("clamps", s.clamps),
		zap.Int("late_flag_writes", s.store.LateWrites()),
		zap.Duration("elapsed", elapsed))

	return &Result{Config: cfg, Store: s.store, Clamps: s.clamps, Elapsed: elapsed}, nil
}

// warmUp seeds genesis and the first lookback+buffer blocks as a linear chain
// with a fixed target, so the first mined block has a full look-back window.
func (s *Simulation) warmUp() error {
	net := s.cfg.Network
	ratio := s.cfg.Difficulty.CohortRatio

	solvetime := s.sched.Draws[0] / net.BaseHashrate
	genesis := models.Block{
		Height:      0,
		Time:        solvetime,
		Solvetime:   solvetime,
		Target:      1,
		Latency:     s.sched.Latency[0],
		Hashrate:    s.sched.Hashrate[0],
		CohortRatio: ratio,
	}
	if err := s.store.Append(genesis); err != nil {
		return err
	}

	x := initialTargetFactor / net.BaseLatency / net.BaseHashrate
	for h := 1; h < s.cfg.Warmup(); h++ {
		solvetime := s.sched.Draws[h] / net.BaseHashrate / s.store.Target(h-1)
		b := models.Block{
			Height:      h,
			Time:        s.store.Time(h-1) + solvetime,
			Solvetime:   solvetime,
			Target:      x,
			Latency:     s.sched.Latency[h],
			Hashrate:    s.sched.Hashrate[h],
			Parents:     []int{h - 1},
			CohortRatio: ratio,
		}
		if err := s.store.Append(b); err != nil {
			return err
		}
	}
	return nil
}

// mine produces height h. The solvetime uses the previous block's target
// because the block's own target depends on parents it has not chosen yet.
func (s *Simulation) mine(h int) error {
	solvetime := s.sched.Draws[h] / s.sched.Hashrate[h] / s.store.Target(h-1)
	pending := dag.Arrival{
		Height:  h,
		Time:    s.store.Time(h-1) + solvetime,
		Latency: s.gen.Jitter(s.sched.Latency[h]),
	}

	sel, err := s.builder.Build(pending)
	if err != nil {
		return errors.Wrapf(err, "lookback %d with buffer %d", s.cfg.Lookback, s.cfg.Buffer)
	}

	d := s.ctrl.Next(s.store, difficulty.Observation{
		Height:   h,
		Time:     pending.Time,
		Lookback: sel.Lookback,
		Parents:  sel.Parents,
	})
	if d.Clamped {
		s.clamps++
		logger.Logger.Debug("Target clamped", zap.Int("height", h), zap.Float64("target", d.Target))
	}

	return s.store.Append(models.Block{
		Height:      h,
		Time:        pending.Time,
		Solvetime:   solvetime,
		Target:      d.Target,
		Latency:     pending.Latency,
		Hashrate:    s.sched.Hashrate[h],
		Parents:     sel.Parents,
		CohortRatio: d.CohortRatio,
		Sibling:     sel.Sibling,
	})
}
