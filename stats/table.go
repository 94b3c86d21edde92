package stats

import (
	"fmt"
	"io"

	"braidsim/models"

	"github.com/olekukonko/tablewriter"
)

func f3(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// WriteParams renders a one-row table of run parameters.
func WriteParams(w io.Writer, header []string, values []string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.Append(values)
	table.Render()
}

// WriteSummary renders the mean/stddev table of one run.
func WriteSummary(w io.Writer, s models.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "Mean", "StdDev"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.AppendBulk([][]string{
		{"x", f3(s.TargetMean), f3(s.TargetStdDev)},
		{"solvetime", f3(s.SolvetimeMean), f3(s.SolvetimeStdDev)},
		{"Nb/Nc", f3(s.NbNc), f3(s.NbNcStdDev)},
		{"num_parents", f3(s.ParentsMean), f3(s.ParentsStdDev)},
		{"time per Nc block per latency", f3(s.TimePerCohort), ""},
		{"cohorts", fmt.Sprint(s.Cohorts), ""},
		{"cohort size", f3(s.CohortSizeMean), ""},
		{"time between cohorts", f3(s.CohortIntervalAvg), ""},
		{"orphans", fmt.Sprint(s.Orphans), ""},
	})
	table.Render()
}

// WriteSweep renders one row per run followed by the mean over runs.
func WriteSweep(w io.Writer, seeds []uint64, sums []models.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"seed", "x", "solvetime", "Nb/Nc", "num_parents", "time/Nc", "cohorts"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	var x, st, nbnc, np, tpc, coh []float64
	for i, s := range sums {
		table.Append([]string{
			fmt.Sprint(seeds[i]), f3(s.TargetMean), f3(s.SolvetimeMean), f3(s.NbNc),
			f3(s.ParentsMean), f3(s.TimePerCohort), fmt.Sprint(s.Cohorts),
		})
		x = append(x, s.TargetMean)
		st = append(st, s.SolvetimeMean)
		nbnc = append(nbnc, s.NbNc)
		np = append(np, s.ParentsMean)
		tpc = append(tpc, s.TimePerCohort)
		coh = append(coh, float64(s.Cohorts))
	}
	table.SetFooter([]string{"mean", f3(Mean(x)), f3(Mean(st)), f3(Mean(nbnc)), f3(Mean(np)), f3(Mean(tpc)), f3(Mean(coh))})
	table.Render()
}
