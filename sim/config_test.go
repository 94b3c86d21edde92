package sim

import (
	"testing"

	"braidsim/difficulty"
	"braidsim/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Derivations(t *testing.T) {
	cfg, err := DefaultConfig().Resolve()
	require.NoError(t, err)
	// int(3 * 1.44) = 4, doubled by each enabled step.
	assert.Equal(t, 16, cfg.Lookback)
	assert.Equal(t, 20, cfg.Buffer)
	assert.Equal(t, 36, cfg.FinalityDepth)
	assert.InDelta(t, difficulty.DefaultCohortRatio(), cfg.Difficulty.CohortRatio, 1e-12)

	c := DefaultConfig()
	c.Strategy = "0"
	cfg, err = c.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "nbnc", cfg.Strategy)
	assert.Equal(t, 40, cfg.Lookback)

	c = DefaultConfig()
	c.Strategy = "sma"
	c.Lookback = 25
	c.FinalityDepth = 7
	cfg, err = c.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Lookback)
	assert.Equal(t, 660, cfg.Buffer)
	assert.Equal(t, 7, cfg.FinalityDepth)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"strategy", func(c *Config) { c.Strategy = "pow" }},
		{"negative lookback", func(c *Config) { c.Lookback = -1 }},
		{"too few blocks", func(c *Config) { c.Blocks = 30 }},
		{"latency", func(c *Config) { c.Network.BaseLatency = 0 }},
		{"hashrate", func(c *Config) { c.Network.BaseHashrate = -1 }},
		{"variation", func(c *Config) { c.Network.LatencyVariation = -0.1 }},
		{"latency2 multiplier", func(c *Config) { c.Network.Latency2Multiplier = 0 }},
		{"latency2 fraction", func(c *Config) { c.Network.Latency2Fraction = 1.5 }},
		{"attack length", func(c *Config) { c.Network.Attack.Length = 0 }},
		{"latency change size", func(c *Config) { c.Network.LatencyChange.Size = 0 }},
		{"filter", func(c *Config) { c.Difficulty.FilterParents = 0 }},
		{"desired", func(c *Config) { c.Difficulty.DesiredParents = 0.5 }},
		{"nbnc ratio", func(c *Config) { c.Strategy = "nbnc"; c.Difficulty.CohortRatio = 1 }},
		{"sma window", func(c *Config) { c.Strategy = "sma"; c.Buffer = 10; c.Difficulty.SMAWindow = 100 }},
		{"sma block time", func(c *Config) { c.Strategy = "sma"; c.Difficulty.SMABlockTime = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			_, err := New(c)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_DisabledStepIgnored(t *testing.T) {
	c := DefaultConfig()
	c.Network.Attack = events.Step{Enabled: false}
	_, err := c.Resolve()
	assert.NoError(t, err)
}
