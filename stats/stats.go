// Package stats reduces a finished run to the numbers reported after it.
package stats

import (
	"math"

	"braidsim/dag"
	"braidsim/models"
)

// RollingWindow is the number of blocks averaged by the rolling series.
const RollingWindow = 300

// consensusTimeScale shrinks consensus time so it plots next to targets.
const consensusTimeScale = 10

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PStdDev returns the population standard deviation.
func PStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// HarmonicMean returns n / Σ(1/x), or 0 when any value is not positive.
func HarmonicMean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sumInv := 0.0
	for _, x := range xs {
		if x <= 0 {
			return 0
		}
		sumInv += 1 / x
	}
	return float64(len(xs)) / sumInv
}

// Summarize computes the summary table of a run, including a full forward
// cohort walk from genesis.
func Summarize(store *dag.Store) models.Summary {
	n := store.Len()
	sum := models.Summary{Blocks: n, LateFlagWrites: store.LateWrites()}
	if n == 0 {
		return sum
	}

	targets := make([]float64, n)
	solvetimes := make([]float64, n)
	ratios := make([]float64, n)
	parents := make([]float64, n)
	latencies := make([]float64, n)
	for h := 0; h < n; h++ {
		b := store.Block(h)
		targets[h] = b.Target
		solvetimes[h] = b.Solvetime
		ratios[h] = b.CohortRatio
		parents[h] = float64(b.NumParents)
		latencies[h] = b.Latency
		if b.Cohort {
			sum.CohortBlocks++
		}
	}

	sum.TargetMean = HarmonicMean(targets)
	sum.TargetStdDev = PStdDev(targets)
	sum.SolvetimeMean = Mean(solvetimes)
	sum.SolvetimeStdDev = PStdDev(solvetimes)
	sum.NbNcStdDev = PStdDev(ratios)
	sum.ParentsMean = Mean(parents)
	sum.ParentsStdDev = PStdDev(parents)
	if sum.CohortBlocks > 0 {
		sum.NbNc = float64(n) / float64(sum.CohortBlocks)
		if lat := Mean(latencies); lat > 0 {
			sum.TimePerCohort = store.Time(n-1) / float64(sum.CohortBlocks) / lat
		}
	}

	cohorts := store.Cohorts([]int{0}, dag.Forward).All(0)
	sum.Cohorts = len(cohorts)
	sum.Orphans = int(store.Orphans().GetCardinality())
	if len(cohorts) > 0 {
		members := 0
		for _, c := range cohorts {
			members += len(c)
		}
		sum.CohortSizeMean = float64(members) / float64(len(cohorts))
	}
	if len(cohorts) > 1 {
		first := store.Time(cohorts[0][0])
		last := store.Time(cohorts[len(cohorts)-1][0])
		sum.CohortIntervalAvg = (last - first) / float64(len(cohorts)-1)
	}
	return sum
}

// CohortRatioOver returns blocks per cohort block over heights [from, to), or
// 0 when the range holds no cohort block.
func CohortRatioOver(store *dag.Store, from, to int) float64 {
	cohorts := 0
	for h := from; h < to; h++ {
		if store.Cohort(h) {
			cohorts++
		}
	}
	if cohorts == 0 {
		return 0
	}
	return float64(to-from) / float64(cohorts)
}

// ParentsOver returns the mean parent count over heights [from, to).
func ParentsOver(store *dag.Store, from, to int) float64 {
	if to <= from {
		return 0
	}
	total := 0
	for h := from; h < to; h++ {
		total += store.NumParents(h)
	}
	return float64(total) / float64(to-from)
}

// Rolling holds trailing-window series, zero until the window is full.
type Rolling struct {
	DAGWidth      []float64 // mean parents over the window
	ConsensusTime []float64 // time per cohort block over the window, divided by 10
}

// RollingSeries computes the trailing series over window blocks.
func RollingSeries(store *dag.Store, window int) Rolling {
	n := store.Len()
	r := Rolling{
		DAGWidth:      make([]float64, n),
		ConsensusTime: make([]float64, n),
	}
	if window < 1 {
		return r
	}

	parents, cohorts := 0, 0
	for h := 0; h < n; h++ {
		if h >= window {
			// Window is [h-window, h).
			if h > window+1 {
				r.DAGWidth[h] = float64(parents) / float64(window)
				if cohorts > 0 {
					r.ConsensusTime[h] = (store.Time(h) - store.Time(h-window)) / float64(cohorts) / consensusTimeScale
				}
			}
			parents -= store.NumParents(h - window)
			if store.Cohort(h - window) {
				cohorts--
			}
		}
		parents += store.NumParents(h)
		if store.Cohort(h) {
			cohorts++
		}
	}
	return r
}
