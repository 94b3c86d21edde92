package sim

// Series is the per-height output of a run in column form.
type Series struct {
	Time        []float64
	Solvetime   []float64
	Target      []float64
	Latency     []float64
	Hashrate    []float64
	CohortRatio []float64
	NumParents  []int
	Cohort      []bool
}

// Series copies the per-height arrays out of the store.
func (r *Result) Series() Series {
	n := r.Store.Len()
	s := Series{
		Time:        make([]float64, n),
		Solvetime:   make([]float64, n),
		Target:      make([]float64, n),
		Latency:     make([]float64, n),
		Hashrate:    make([]float64, n),
		CohortRatio: make([]float64, n),
		NumParents:  make([]int, n),
		Cohort:      make([]bool, n),
	}
	for h := 0; h < n; h++ {
		b := r.Store.Block(h)
		s.Time[h] = b.Time
		s.Solvetime[h] = b.Solvetime
		s.Target[h] = b.Target
		s.Latency[h] = b.Latency
		s.Hashrate[h] = b.Hashrate
		s.CohortRatio[h] = b.CohortRatio
		s.NumParents[h] = b.NumParents
		s.Cohort[h] = b.Cohort
	}
	return s
}
