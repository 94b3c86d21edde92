// Package events draws the random inputs of a braid simulation: solvetimes,
// per-miner latencies and hashrates, including scripted step changes.
package events

import (
	"math"
	"math/rand/v2"
)

// Step describes a multiplicative step change applied to hashrate or latency.
type Step struct {
	Enabled  bool    `mapstructure:"enabled" json:"enabled"`
	Length   int     `mapstructure:"length" json:"length"`     // blocks per on or off phase
	Size     float64 `mapstructure:"size" json:"size"`         // multiplier while active
	Offset   int     `mapstructure:"offset" json:"offset"`     // phases to wait before the first on phase
	Periodic bool    `mapstructure:"periodic" json:"periodic"` // repeat on-off cycles instead of one step
}

// Active reports whether the step multiplier applies at height h.
func (s Step) Active(h int) bool {
	if !s.Enabled || s.Length <= 0 {
		return false
	}
	if s.Periodic {
		phase := h/s.Length - s.Offset
		return phase >= 0 && phase%2 == 0
	}
	lo := s.Offset * s.Length
	return h > lo && h < lo+s.Length
}

// Config is the network model of a run.
type Config struct {
	BaseLatency        float64 `mapstructure:"base_latency" json:"base_latency"`
	LatencyVariation   float64 `mapstructure:"latency_variation" json:"latency_variation"`
	ExactLatency       bool    `mapstructure:"exact_latency" json:"exact_latency"`
	Latency2Multiplier float64 `mapstructure:"latency2_multiplier" json:"latency2_multiplier"`
	Latency2Fraction   float64 `mapstructure:"latency2_fraction" json:"latency2_fraction"`
	BaseHashrate       float64 `mapstructure:"base_hashrate" json:"base_hashrate"`
	Attack             Step    `mapstructure:"attack" json:"attack"`
	LatencyChange      Step    `mapstructure:"latency_change" json:"latency_change"`
}

// Schedule holds per-height inputs. Draws are unit exponential and get scaled
// by 1/(hashrate*target) when the block is mined.
type Schedule struct {
	Draws    []float64
	Latency  []float64
	Hashrate []float64
}

// Generator owns the random stream of one run. It is not safe for concurrent use.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator returns a generator whose stream is fully determined by seed.
func NewGenerator(cfg Config, seed uint64) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Schedule draws inputs for blocks heights. Latency-2 miners and step changes
// only apply from height start on, leaving the warm-up region at base values.
func (g *Generator) Schedule(blocks, start int) *Schedule {
	s := &Schedule{
		Draws:    make([]float64, blocks),
		Latency:  make([]float64, blocks),
		Hashrate: make([]float64, blocks),
	}
	for h := range s.Draws {
		s.Draws[h] = g.rng.ExpFloat64()
		s.Latency[h] = g.cfg.BaseLatency
		s.Hashrate[h] = g.cfg.BaseHashrate
	}

	for h := start; h < blocks; h++ {
		if g.rng.Float64() < g.cfg.Latency2Fraction {
			s.Latency[h] *= g.cfg.Latency2Multiplier
		}
	}
	for h := start; h < blocks; h++ {
		if g.cfg.Attack.Active(h) {
			s.Hashrate[h] *= g.cfg.Attack.Size
		}
		if g.cfg.LatencyChange.Active(h) {
			s.Latency[h] *= g.cfg.LatencyChange.Size
		}
	}
	return s
}

// Jitter returns the latency a block actually experiences. With exact latency
// the scheduled value is the latency; otherwise the scheduled value is a median
// and the result is uniform on [0, 2*median] plus the configured variation.
func (g *Generator) Jitter(latency float64) float64 {
	if g.cfg.ExactLatency {
		return latency
	}
	v := g.rng.Float64() * 2 * latency
	v += (g.rng.Float64()*2 - 1) * g.cfg.LatencyVariation
	return math.Max(0, v)
}
