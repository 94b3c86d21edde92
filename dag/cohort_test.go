package dag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCohorts_ChainAndDiamond(t *testing.T) {
	//  0 - 1 - 2 < 3 > 5 - 6
	//              4
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {2}, {3, 4}, {5}})

	got := s.Cohorts([]int{0}, Forward).All(0)
	assert.Equal(t, [][]int{{0}, {1}, {2}, {3, 4}, {5}}, got)
}

func TestCohorts_InterleavedBranchesMerge(t *testing.T) {
	// 3 and 4 fork from 2, each grows one more block, 7 merges them.
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {2}, {3}, {4}, {5, 6}, {7}})

	got := s.Cohorts([]int{0}, Forward).All(0)
	assert.Equal(t, [][]int{{0}, {1}, {2}, {3, 4, 5, 6}, {7}}, got)
}

func TestCohorts_UnknownParentDefersChild(t *testing.T) {
	// 4 has parents 2 and 3, where 3 is a child of 2. 4 waits for 3 to be
	// known, so each block stands alone.
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {2, 3}, {4}})

	got := s.Cohorts([]int{0}, Forward).All(0)
	assert.Equal(t, [][]int{{0}, {1}, {2}, {3}, {4}}, got)
}

func TestCohorts_Backward(t *testing.T) {
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {2}, {3, 4}, {5}})

	got := s.Cohorts(s.Tips(), Backward).All(0)
	assert.Equal(t, [][]int{{5}, {3, 4}, {2}, {1}}, got)
}

func TestCohorts_OrphanIsSkipped(t *testing.T) {
	// 3 is never referenced and falls below the horizon, so both walks go
	// around it.
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {2}, {4}, {5}})
	s.SetHorizon(2)

	got := s.Cohorts([]int{0}, Forward).All(0)
	assert.Equal(t, [][]int{{0}, {1}, {2}, {4}, {5}}, got)

	got = s.Cohorts(s.Tips(), Backward).All(0)
	assert.Equal(t, [][]int{{5}, {4}, {2}, {1}}, got)
}

func TestCohorts_OrphanChainIsSkipped(t *testing.T) {
	// 4 is childless and 3 is referenced only by 4.
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {3}, {2}, {5}, {6}, {7}})
	s.SetHorizon(3)

	got := s.Cohorts([]int{0}, Forward).All(0)
	assert.Equal(t, [][]int{{0}, {1}, {2}, {5}, {6}, {7}}, got)
}

func TestCohorts_ChildlessWithinHorizonEndsWalk(t *testing.T) {
	// Without a horizon 3 counts as a tip, and no later group can be
	// confirmed past 2.
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {2}, {4}, {5}})

	got := s.Cohorts([]int{0}, Forward).All(0)
	assert.Equal(t, [][]int{{0}, {1}, {2}}, got)
}

func TestCohorts_Limit(t *testing.T) {
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {3}})
	assert.Len(t, s.Cohorts([]int{0}, Forward).All(2), 2)

	it := s.Cohorts(nil, Forward)
	_, ok := it.Next()
	assert.False(t, ok)
}

func TestCohorts_RandomBraidSafety(t *testing.T) {
	s := randomBraid(t, 1500, 12, 1.5, 21)

	tips := map[int]bool{}
	for _, h := range s.Tips() {
		tips[h] = true
	}
	orphans := s.Orphans()

	cohorts := s.Cohorts([]int{0}, Forward).All(0)
	require.Greater(t, len(cohorts), 50)

	lastMin, lastMax := -1, -1
	covered := 0
	for i, c := range cohorts {
		require.NotEmpty(t, c)
		require.Greater(t, c[0], lastMin, "cohort %d", i)
		require.Greater(t, c[0], lastMax, "cohort %d overlaps its predecessor", i)
		for _, h := range c {
			require.False(t, tips[h], "cohort %d holds tip %d", i, h)
			require.False(t, orphans.Contains(uint32(h)), "cohort %d holds orphan %d", i, h)
			require.NotEmpty(t, s.Children(h))
		}
		lastMin, lastMax = c[0], c[len(c)-1]
		covered += len(c)
	}
	// Cohorts and orphans partition a prefix of the DAG.
	skipped := 0
	orphans.Iterate(func(h uint32) bool {
		if int(h) < lastMax {
			skipped++
		}
		return true
	})
	assert.Equal(t, lastMax+1, covered+skipped)
	assert.Greater(t, lastMax, s.Len()-s.Horizon()-50)
}

func TestCohorts_LongNarrowBraid(t *testing.T) {
	// A short look-back on a fast chain leaves many blocks unreferenced.
	// Both walks have to get past them and stay linear in the run length.
	const n = 20000
	s := randomBraid(t, n, 4, 0.4, 5)

	type walk struct {
		forward, backward [][]int
	}
	done := make(chan walk, 1)
	go func() {
		var w walk
		w.forward = s.Cohorts([]int{0}, Forward).All(0)
		w.backward = s.Cohorts(s.Tips(), Backward).All(0)
		done <- w
	}()

	var w walk
	select {
	case w = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("cohort walk did not finish")
	}

	require.NotEmpty(t, w.forward)
	last := w.forward[len(w.forward)-1]
	assert.Greater(t, last[0], n-100)

	require.NotEmpty(t, w.backward)
	assert.Less(t, w.backward[len(w.backward)-1][0], 10)
	assert.Greater(t, w.backward[0][0], n-100)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("backward")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Forward, d)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrUnknownDirection)
}
