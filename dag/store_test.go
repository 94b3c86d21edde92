package dag

import (
	"testing"

	"braidsim/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_IndexesChildren(t *testing.T) {
	s := storeFromParents(t, [][]int{nil, {0}, {0}, {1, 2}})

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []int{1, 2}, s.Children(0))
	assert.Equal(t, []int{3}, s.Children(1))
	assert.Equal(t, 2, s.NumParents(3))
	assert.Equal(t, 0, s.NumParents(0))
	assert.Equal(t, []int{3}, s.Tips())
}

func TestAppend_RejectsBadBlocks(t *testing.T) {
	s := storeFromParents(t, [][]int{nil})

	err := s.Append(models.Block{Height: 2})
	require.Error(t, err)
	assert.Equal(t, ErrHeightMismatch, errors.Cause(err))

	err = s.Append(models.Block{Height: 1, Parents: []int{1}})
	require.Error(t, err)
	assert.Equal(t, ErrParentOutOfRange, errors.Cause(err))
	assert.Equal(t, 1, s.Len())
}

func TestFinality_DropsLateWrites(t *testing.T) {
	s := NewStore(10, 3)
	for h := 0; h < 6; h++ {
		var ps []int
		if h > 0 {
			ps = []int{h - 1}
		}
		require.NoError(t, s.Append(models.Block{Height: h, Parents: ps}))
	}

	// Heights 0..2 are three or more blocks behind the tip at 5.
	assert.True(t, s.Final(2))
	assert.False(t, s.Final(3))

	s.MarkCohort(1)
	s.MarkSibling(2)
	s.MarkCohort(4)
	assert.False(t, s.Cohort(1))
	assert.False(t, s.Sibling(2))
	assert.True(t, s.Cohort(4))
	assert.Equal(t, 2, s.LateWrites())

	s.FinalizeAll()
	assert.True(t, s.Final(5))
}

func TestFromBlocks_RebuildsChildren(t *testing.T) {
	src := storeFromParents(t, [][]int{nil, {0}, {0}, {2, 1}})
	src.MarkCohort(0)
	blocks := src.Blocks(0, src.Len())

	s, err := FromBlocks(blocks)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, s.Children(0))
	assert.True(t, s.Cohort(0))
	assert.True(t, s.Final(3))
}

func TestBlocks_ClampsRange(t *testing.T) {
	s := storeFromParents(t, [][]int{nil, {0}, {1}})
	assert.Len(t, s.Blocks(-5, 100), 3)
	assert.Len(t, s.Blocks(1, 2), 1)
	assert.Nil(t, s.Blocks(2, 1))
}

func TestAncestors(t *testing.T) {
	//   0 - 1 - 3 - 5
	//    \- 2 - 4 -/
	s := storeFromParents(t, [][]int{nil, {0}, {0}, {1}, {2}, {3, 4}})

	assert.ElementsMatch(t, []uint32{0, 1, 2, 3, 4}, s.Ancestors(5, 0).ToArray())
	assert.ElementsMatch(t, []uint32{3, 4}, s.Ancestors(5, 3).ToArray())
	assert.True(t, s.IsAncestor(1, 5))
	assert.False(t, s.IsAncestor(1, 4))
	assert.False(t, s.IsAncestor(5, 5))
}

func TestOrphans_BelowHorizon(t *testing.T) {
	s := storeFromParents(t, [][]int{nil, {0}, {1}, {2}, {3}, {2}, {5}, {6}, {7}})

	assert.Equal(t, []int{4, 8}, s.Tips())
	assert.True(t, s.Orphans().IsEmpty())

	s.SetHorizon(3)
	assert.Equal(t, 3, s.Horizon())
	assert.Equal(t, []int{8}, s.Tips())
	assert.Equal(t, []uint32{3, 4}, s.Orphans().ToArray())

	s.SetHorizon(100)
	assert.Equal(t, []int{4, 8}, s.Tips())
	assert.True(t, s.Orphans().IsEmpty())
}
