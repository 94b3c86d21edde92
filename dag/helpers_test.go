package dag

import (
	"math/rand/v2"
	"testing"

	"braidsim/models"

	"github.com/stretchr/testify/require"
)

// storeFromParents builds a store where block h has parents[h].
func storeFromParents(t *testing.T, parents [][]int) *Store {
	t.Helper()
	s := NewStore(len(parents), 0)
	for h, ps := range parents {
		require.NoError(t, s.Append(models.Block{Height: h, Time: float64(h), Parents: ps}))
	}
	return s
}

// randomBraid grows a braid with unit latency and exponential gaps of the
// given mean, after a linear warm-up of lookback+1 blocks. The horizon is the
// warm-up length.
func randomBraid(t *testing.T, n, lookback int, meanGap float64, seed uint64) *Store {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 11))
	s := NewStore(n, 0)
	s.SetHorizon(lookback + 1)
	b := NewBuilder(s, LatencyOracle{}, lookback)

	now := 0.0
	for h := 0; h < n; h++ {
		if h <= lookback {
			var ps []int
			if h > 0 {
				ps = []int{h - 1}
				now += 2
			}
			require.NoError(t, s.Append(models.Block{Height: h, Time: now, Latency: 1, Parents: ps}))
			continue
		}
		now += rng.ExpFloat64() * meanGap
		pending := Arrival{Height: h, Time: now, Latency: 1}
		sel, err := b.Build(pending)
		require.NoError(t, err)
		require.NoError(t, s.Append(models.Block{
			Height:  h,
			Time:    now,
			Latency: 1,
			Parents: sel.Parents,
			Sibling: sel.Sibling,
		}))
	}
	s.FinalizeAll()
	return s
}
