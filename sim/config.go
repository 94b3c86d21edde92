package sim

import (
	"braidsim/difficulty"
	"braidsim/events"

	"github.com/pkg/errors"
)

// ErrInvalidConfig is the cause of every configuration error. Runs fail with
// it before any block is produced.
var ErrInvalidConfig = errors.New("invalid simulation config")

const (
	// perturbationStart is added to the look-back size to get the first
	// height where latency-2 miners and step changes apply.
	perturbationStart = 20

	// defaultBuffer is the warm-up length past the look-back window.
	defaultBuffer = 20

	// initialTargetFactor seeds warm-up targets at factor/(latency*hashrate).
	initialTargetFactor = 0.47
)

// Config is the flat parameter surface of one run.
type Config struct {
	Blocks        int               `mapstructure:"blocks" json:"blocks"`
	Seed          uint64            `mapstructure:"seed" json:"seed"`
	Strategy      string            `mapstructure:"strategy" json:"strategy"`
	Lookback      int               `mapstructure:"lookback" json:"lookback"`             // Nb, 0 derives it from the strategy
	Buffer        int               `mapstructure:"buffer" json:"buffer"`                 // warm-up past Nb, 0 derives it
	FinalityDepth int               `mapstructure:"finality_depth" json:"finality_depth"` // 0 means Nb + buffer
	Network       events.Config     `mapstructure:"network" json:"network"`
	Difficulty    difficulty.Params `mapstructure:"difficulty" json:"difficulty"`
}

// DefaultConfig mirrors the reference experiment: parent-count targeting with
// one hashrate step and one later latency step.
func DefaultConfig() Config {
	return Config{
		Blocks:   20000,
		Seed:     1,
		Strategy: string(difficulty.Parents),
		Network: events.Config{
			BaseLatency:        0.65,
			ExactLatency:       true,
			Latency2Multiplier: 1,
			Latency2Fraction:   0.25,
			BaseHashrate:       0.66,
			Attack:             events.Step{Enabled: true, Length: 4000, Size: 2, Offset: 1},
			LatencyChange:      events.Step{Enabled: true, Length: 4000, Size: 2, Offset: 3},
		},
		Difficulty: difficulty.DefaultParams(),
	}
}

// Kind returns the parsed strategy.
func (c Config) Kind() (difficulty.Kind, error) {
	return difficulty.ParseKind(c.Strategy)
}

// Warmup is the number of blocks seeded with default statistics.
func (c Config) Warmup() int {
	return c.Lookback + c.Buffer
}

// Resolve fills every derived field and validates the result.
func (c Config) Resolve() (Config, error) {
	kind, err := c.Kind()
	if err != nil {
		return c, errors.Wrapf(ErrInvalidConfig, "strategy: %v", err)
	}
	c.Strategy = string(kind)

	if c.Lookback == 0 {
		c.Lookback = defaultLookback(kind, c)
	}
	if c.Buffer == 0 {
		c.Buffer = defaultBuffer
		if kind == difficulty.SMA {
			c.Buffer = c.Difficulty.SMAWindow
		}
	}
	if c.FinalityDepth == 0 {
		c.FinalityDepth = c.Warmup()
	}
	if c.Difficulty.CohortRatio == 0 {
		c.Difficulty.CohortRatio = difficulty.DefaultCohortRatio()
	}
	return c, c.Validate()
}

// defaultLookback sizes Nb per strategy. The parent controller only needs to
// reach its parents, about three times the desired count, and looks further
// when hashrate or latency steps make the DAG wider.
func defaultLookback(kind difficulty.Kind, c Config) int {
	switch kind {
	case difficulty.Parents:
		nb := int(3 * c.Difficulty.DesiredParents)
		if nb < 1 {
			nb = 1
		}
		if c.Network.Attack.Enabled && c.Network.Attack.Size > 1 {
			nb = int(float64(nb) * c.Network.Attack.Size)
		}
		if c.Network.LatencyChange.Enabled && c.Network.LatencyChange.Size > 1 {
			nb = int(float64(nb) * c.Network.LatencyChange.Size)
		}
		return nb
	case difficulty.SMA:
		return 20
	}
	return 40
}

// Validate checks a resolved config.
func (c Config) Validate() error {
	kind, err := c.Kind()
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "strategy: %v", err)
	}
	fail := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrInvalidConfig, format, args...)
	}

	switch {
	case c.Lookback < 1:
		return fail("lookback must be at least 1, got %d", c.Lookback)
	case c.Buffer < 1:
		return fail("buffer must be at least 1, got %d", c.Buffer)
	case c.Blocks <= c.Warmup():
		return fail("blocks (%d) must exceed lookback + buffer (%d)", c.Blocks, c.Warmup())
	}

	n := c.Network
	switch {
	case n.BaseLatency <= 0:
		return fail("network.base_latency must be positive, got %g", n.BaseLatency)
	case n.BaseHashrate <= 0:
		return fail("network.base_hashrate must be positive, got %g", n.BaseHashrate)
	case n.LatencyVariation < 0:
		return fail("network.latency_variation must not be negative, got %g", n.LatencyVariation)
	case n.Latency2Multiplier <= 0:
		return fail("network.latency2_multiplier must be positive, got %g", n.Latency2Multiplier)
	case n.Latency2Fraction < 0 || n.Latency2Fraction > 1:
		return fail("network.latency2_fraction must be within [0, 1], got %g", n.Latency2Fraction)
	}
	if err := validateStep("network.attack", n.Attack); err != nil {
		return err
	}
	if err := validateStep("network.latency_change", n.LatencyChange); err != nil {
		return err
	}

	d := c.Difficulty
	switch kind {
	case difficulty.NbNc:
		switch {
		case d.FilterNbNc < 1:
			return fail("difficulty.filter_nbnc must be at least 1, got %g", d.FilterNbNc)
		case d.CohortAdjust < 0:
			return fail("difficulty.cohort_adjust must not be negative, got %g", d.CohortAdjust)
		case d.CohortRatio <= 1:
			return fail("difficulty.cohort_ratio must exceed 1, got %g", d.CohortRatio)
		}
	case difficulty.Parents:
		switch {
		case d.FilterParents < 1:
			return fail("difficulty.filter_parents must be at least 1, got %g", d.FilterParents)
		case d.DesiredParents < 1:
			return fail("difficulty.desired_parents must be at least 1, got %g", d.DesiredParents)
		}
	case difficulty.SMA:
		switch {
		case d.SMAWindow < 1:
			return fail("difficulty.sma_window must be at least 1, got %d", d.SMAWindow)
		case d.SMAWindow > c.Warmup():
			return fail("difficulty.sma_window (%d) must fit in lookback + buffer (%d)", d.SMAWindow, c.Warmup())
		case d.SMABlockTime <= 0:
			return fail("difficulty.sma_block_time must be positive, got %g", d.SMABlockTime)
		}
	}
	return nil
}

func validateStep(name string, s events.Step) error {
	if !s.Enabled {
		return nil
	}
	switch {
	case s.Length < 1:
		return errors.Wrapf(ErrInvalidConfig, "%s.length must be at least 1, got %d", name, s.Length)
	case s.Size <= 0:
		return errors.Wrapf(ErrInvalidConfig, "%s.size must be positive, got %g", name, s.Size)
	case s.Offset < 0:
		return errors.Wrapf(ErrInvalidConfig, "%s.offset must not be negative, got %d", name, s.Offset)
	}
	return nil
}
