package difficulty

import "math"

// nbncController: x = x1 * (1 + (ratio - Nb/(Nc+adjust)) / n), with x1 the
// harmonic mean of the look-back targets and Nc the cohort blocks among them.
// The adjust constant is empirical (1.3 to 1.35) and corrects the undercount
// of cohort flags that are still tentative near the tip.
type nbncController struct {
	filter float64
	adjust float64
	ratio  float64
}

func (c *nbncController) Kind() Kind { return NbNc }

func (c *nbncController) Next(hist History, obs Observation) Decision {
	x1, clamped := harmonicMean(hist, obs.Lookback)

	nc := 0.0
	for _, h := range obs.Lookback {
		if hist.Cohort(h) {
			nc++
		}
	}
	if nc < minCohorts {
		nc = minCohorts
		clamped = true
	}
	observed := float64(len(obs.Lookback)) / (nc + c.adjust)

	x, floored := scale(x1, 1+(c.ratio-observed)/c.filter)
	return Decision{Target: x, CohortRatio: observed, Clamped: clamped || floored}
}

// parentsController: x = x1 * (1 + (desired - parents) / n), with x1 the
// harmonic mean of the parents' targets.
type parentsController struct {
	filter  float64
	desired float64
}

func (c *parentsController) Kind() Kind { return Parents }

func (c *parentsController) Next(hist History, obs Observation) Decision {
	x1, clamped := harmonicMean(hist, obs.Parents)
	x, floored := scale(x1, 1+(c.desired-float64(len(obs.Parents)))/c.filter)
	return Decision{Target: x, Clamped: clamped || floored}
}

// smaController: x = x1 * timespan / (T * n), with x1 the harmonic mean of
// the last n targets. Blocks flagged as siblings are left out of the mean so
// concurrent blocks are not counted twice; if every block in the window is a
// sibling the whole window is used.
type smaController struct {
	window    int
	blockTime float64
}

func (c *smaController) Kind() Kind { return SMA }

func (c *smaController) Next(hist History, obs Observation) Decision {
	h := obs.Height
	heights := make([]int, 0, c.window)
	for m := 1; m <= c.window; m++ {
		if !hist.Sibling(h - m) {
			heights = append(heights, h-m)
		}
	}
	if len(heights) == 0 {
		for m := 1; m <= c.window; m++ {
			heights = append(heights, h-m)
		}
	}
	x1, clamped := harmonicMean(hist, heights)

	timespan := math.Max(obs.Time-hist.Time(h-c.window), 0)
	x, floored := scale(x1, timespan/(c.blockTime*float64(c.window)))
	return Decision{Target: x, Clamped: clamped || floored}
}
