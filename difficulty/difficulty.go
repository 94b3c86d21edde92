// Package difficulty holds the target feedback controllers of the braid.
// All three combine a harmonic mean of earlier targets with a correction
// derived from what the DAG looks like, without timestamps for the first two.
package difficulty

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Kind names a controller.
type Kind string

const (
	// NbNc targets the ratio of look-back blocks to cohort blocks.
	NbNc Kind = "nbnc"
	// Parents targets the number of parents per block.
	Parents Kind = "parents"
	// SMA scales a moving average of targets by observed over desired timespan.
	SMA Kind = "sma"
)

// ErrUnknownKind is returned by ParseKind and New for unsupported controllers.
var ErrUnknownKind = errors.New("unknown difficulty controller")

// ParseKind accepts the controller names used in configuration, plus the
// numeric selectors 0, 1 and 2.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nbnc", "nb/nc", "0":
		return NbNc, nil
	case "parents", "parent", "1":
		return Parents, nil
	case "sma", "2":
		return SMA, nil
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// epsilon bounds denominators and multipliers away from zero.
const epsilon = 1e-9

// minCohorts is the smallest cohort count the NbNc controller divides by.
const minCohorts = 0.1

// Params tunes the controllers. Zero CohortRatio means 1 + 1/Q.
type Params struct {
	FilterNbNc     float64 `mapstructure:"filter_nbnc" json:"filter_nbnc"`
	FilterParents  float64 `mapstructure:"filter_parents" json:"filter_parents"`
	SMAWindow      int     `mapstructure:"sma_window" json:"sma_window"`
	SMABlockTime   float64 `mapstructure:"sma_block_time" json:"sma_block_time"`
	DesiredParents float64 `mapstructure:"desired_parents" json:"desired_parents"`
	CohortAdjust   float64 `mapstructure:"cohort_adjust" json:"cohort_adjust"`
	CohortRatio    float64 `mapstructure:"cohort_ratio" json:"cohort_ratio"`
}

// DefaultParams returns the tuning used by the reference runs.
func DefaultParams() Params {
	return Params{
		FilterNbNc:     100,
		FilterParents:  300,
		SMAWindow:      660,
		SMABlockTime:   1.44,
		DesiredParents: 1.44,
		CohortAdjust:   1.3,
		CohortRatio:    DefaultCohortRatio(),
	}
}

// OptimalQ returns the solution of Q = e^(-Q/2), about 0.703467.
// Q = latency * target * hashrate gives the fastest consensus.
func OptimalQ() float64 {
	q := 0.7
	for i := 0; i < 64; i++ {
		e := math.Exp(-q / 2)
		next := q - (q-e)/(1+e/2)
		if math.Abs(next-q) < 1e-15 {
			return next
		}
		q = next
	}
	return q
}

// DefaultCohortRatio is 1 + 1/Q, about 2.4215 blocks per cohort block.
func DefaultCohortRatio() float64 {
	return 1 + 1/OptimalQ()
}

// History is the read side of the block store the controllers need.
type History interface {
	Target(h int) float64
	Time(h int) float64
	Cohort(h int) bool
	Sibling(h int) bool
}

// Observation is what the DAG builder learned about the pending block.
type Observation struct {
	Height   int
	Time     float64
	Lookback []int
	Parents  []int
}

// Decision is the controller output for one block.
type Decision struct {
	Target      float64
	CohortRatio float64 // only set by NbNc
	Clamped     bool    // a denominator or multiplier hit its floor
}

// Controller computes the target of the pending block.
type Controller interface {
	Kind() Kind
	Next(hist History, obs Observation) Decision
}

// New returns the controller of the given kind.
func New(kind Kind, p Params) (Controller, error) {
	switch kind {
	case NbNc:
		ratio := p.CohortRatio
		if ratio == 0 {
			ratio = DefaultCohortRatio()
		}
		return &nbncController{filter: p.FilterNbNc, adjust: p.CohortAdjust, ratio: ratio}, nil
	case Parents:
		return &parentsController{filter: p.FilterParents, desired: p.DesiredParents}, nil
	case SMA:
		return &smaController{window: p.SMAWindow, blockTime: p.SMABlockTime}, nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
}

// harmonicMean returns the harmonic mean of the targets at heights.
func harmonicMean(hist History, heights []int) (float64, bool) {
	sumInv := 0.0
	for _, h := range heights {
		sumInv += 1 / hist.Target(h)
	}
	clamped := sumInv < epsilon
	return float64(len(heights)) / math.Max(sumInv, epsilon), clamped
}

// scale applies a feedback multiplier, keeping the result positive.
func scale(x, multiplier float64) (float64, bool) {
	if multiplier < epsilon {
		return x * epsilon, true
	}
	return x * multiplier, false
}
