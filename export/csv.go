package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"braidsim/dag"
	"braidsim/stats"

	"github.com/pkg/errors"
)

var csvHeader = []string{
	"height", "time", "solvetime", "target", "latency", "hashrate",
	"num_parents", "cohort_ratio", "cohort", "sibling", "dag_width", "consensus_time",
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per height with the per-height arrays of the run and
// the rolling series next to them.
func WriteCSV(w io.Writer, store *dag.Store, rolling stats.Rolling) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for h := 0; h < store.Len(); h++ {
		b := store.Block(h)
		var width, consensus float64
		if h < len(rolling.DAGWidth) {
			width, consensus = rolling.DAGWidth[h], rolling.ConsensusTime[h]
		}
		row := []string{
			strconv.Itoa(h), ftoa(b.Time), ftoa(b.Solvetime), ftoa(b.Target),
			ftoa(b.Latency), ftoa(b.Hashrate), strconv.Itoa(b.NumParents),
			ftoa(b.CohortRatio), strconv.FormatBool(b.Cohort), strconv.FormatBool(b.Sibling),
			ftoa(width), ftoa(consensus),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write csv row %d", h)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
