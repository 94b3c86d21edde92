package repository

import (
	"testing"

	"braidsim/db"
	"braidsim/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	l, err := db.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return NewRunRepository(l)
}

func chain(n int) []models.Block {
	blocks := make([]models.Block, n)
	for h := range blocks {
		blocks[h] = models.Block{Height: h, Time: float64(h), Target: 1}
		if h > 0 {
			blocks[h].Parents = []int{h - 1}
			blocks[h].NumParents = 1
			blocks[h-1].Children = []int{h}
		}
	}
	return blocks
}

func TestRunRepository_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	run := &models.Run{ID: "abc", Strategy: "parents", Seed: 7, Config: []byte(`{"blocks":12}`)}
	require.NoError(t, repo.PutRun(run, chain(12)))

	got, err := repo.GetRun("abc")
	require.NoError(t, err)
	assert.Equal(t, "parents", got.Strategy)
	assert.JSONEq(t, `{"blocks":12}`, string(got.Config))

	blocks, err := repo.GetBlocks("abc", 3, 6)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, 3, blocks[0].Height)
	assert.Equal(t, []int{2}, blocks[0].Parents)
	assert.Nil(t, blocks[0].Children)

	// Height 10 must sort after 9.
	blocks, err = repo.GetBlocks("abc", 8, -1)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, 11, blocks[3].Height)
}

func TestRunRepository_ListAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.PutRun(&models.Run{ID: "a"}, chain(3)))
	require.NoError(t, repo.PutRun(&models.Run{ID: "ab"}, chain(2)))

	runs, err := repo.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)

	// "a" must not pick up the blocks of "ab".
	blocks, err := repo.GetBlocks("a", 0, -1)
	require.NoError(t, err)
	assert.Len(t, blocks, 3)

	require.NoError(t, repo.DeleteRun("a"))
	_, err = repo.GetRun("a")
	assert.True(t, errors.Is(err, ErrNotFound))
	blocks, err = repo.GetBlocks("ab", 0, -1)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestRunRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetRun("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetBlocks("missing", 0, 10)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteRun("missing"), ErrNotFound)
}
