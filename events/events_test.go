package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		BaseLatency:        1,
		ExactLatency:       true,
		Latency2Multiplier: 1,
		BaseHashrate:       1,
	}
}

func TestStepActive_SingleWindow(t *testing.T) {
	s := Step{Enabled: true, Length: 100, Size: 2, Offset: 1}
	assert.False(t, s.Active(100))
	assert.True(t, s.Active(101))
	assert.True(t, s.Active(199))
	assert.False(t, s.Active(200))

	s.Enabled = false
	assert.False(t, s.Active(150))
}

func TestStepActive_Periodic(t *testing.T) {
	s := Step{Enabled: true, Length: 10, Size: 2, Offset: 1, Periodic: true}
	assert.False(t, s.Active(5))
	assert.True(t, s.Active(10))
	assert.True(t, s.Active(19))
	assert.False(t, s.Active(20))
	assert.True(t, s.Active(30))
}

func TestSchedule_Reproducible(t *testing.T) {
	cfg := baseConfig()
	cfg.Latency2Fraction = 0.3
	cfg.Latency2Multiplier = 3

	a := NewGenerator(cfg, 7).Schedule(500, 30)
	b := NewGenerator(cfg, 7).Schedule(500, 30)
	assert.Equal(t, a, b)

	c := NewGenerator(cfg, 8).Schedule(500, 30)
	assert.NotEqual(t, a.Draws, c.Draws)
}

func TestSchedule_PerturbationsSkipWarmup(t *testing.T) {
	cfg := baseConfig()
	cfg.Latency2Fraction = 1
	cfg.Latency2Multiplier = 4
	cfg.Attack = Step{Enabled: true, Length: 10, Size: 3, Offset: 0, Periodic: true}

	s := NewGenerator(cfg, 1).Schedule(100, 50)
	for h := 0; h < 50; h++ {
		require.Equal(t, 1.0, s.Latency[h], "height %d", h)
		require.Equal(t, 1.0, s.Hashrate[h], "height %d", h)
	}
	assert.Equal(t, 4.0, s.Latency[55])
	assert.Equal(t, 3.0, s.Hashrate[60])
	assert.Equal(t, 1.0, s.Hashrate[75])
}

func TestSchedule_DrawsPositiveWithUnitMean(t *testing.T) {
	s := NewGenerator(baseConfig(), 42).Schedule(50000, 0)
	sum := 0.0
	for _, d := range s.Draws {
		require.Greater(t, d, 0.0)
		sum += d
	}
	assert.InDelta(t, 1.0, sum/float64(len(s.Draws)), 0.03)
}

func TestJitter(t *testing.T) {
	g := NewGenerator(baseConfig(), 3)
	assert.Equal(t, 0.65, g.Jitter(0.65))

	cfg := baseConfig()
	cfg.ExactLatency = false
	cfg.LatencyVariation = 0.5
	g = NewGenerator(cfg, 3)
	for i := 0; i < 1000; i++ {
		v := g.Jitter(1)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 2.5)
	}
}
