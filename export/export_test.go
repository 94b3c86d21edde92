package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"braidsim/dag"
	"braidsim/models"
	"braidsim/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *dag.Store {
	t.Helper()
	parents := [][]int{nil, {0}, {1}, {1}, {2, 3}}
	s := dag.NewStore(len(parents), 0)
	for h, ps := range parents {
		require.NoError(t, s.Append(models.Block{
			Height: h, Time: float64(h), Target: 1.5, Latency: 1, Parents: ps,
		}))
	}
	s.MarkCohort(1)
	s.MarkSibling(2)
	s.FinalizeAll()
	return s
}

func TestDOT(t *testing.T) {
	out := DOT(testStore(t), 1, 10)

	assert.True(t, strings.HasPrefix(out, "digraph"))
	assert.Contains(t, out, "rankdir")
	assert.Contains(t, out, "box")
	assert.Contains(t, out, "lightgrey")
	// Block 0 is outside the range, so 1 has no outgoing edge.
	assert.Equal(t, 4, strings.Count(out, "->"))
}

func TestWriteCSV(t *testing.T) {
	s := testStore(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s, stats.RollingSeries(s, 2)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"4", "4", "0", "1.5", "1", "0", "2", "0", "false", "false", "1", "0"}, rows[5])
	assert.Equal(t, "true", rows[2][8])
	assert.Equal(t, "true", rows[3][9])
}
