package models

import "encoding/json"

// Summary holds the aggregate statistics printed after a run.
type Summary struct {
	Blocks            int     `json:"blocks"`
	TargetMean        float64 `json:"target_mean"` // harmonic mean
	TargetStdDev      float64 `json:"target_stddev"`
	SolvetimeMean     float64 `json:"solvetime_mean"`
	SolvetimeStdDev   float64 `json:"solvetime_stddev"`
	CohortBlocks      int     `json:"cohort_blocks"`
	NbNc              float64 `json:"nb_nc"` // blocks per cohort block
	NbNcStdDev        float64 `json:"nb_nc_stddev"`
	ParentsMean       float64 `json:"parents_mean"`
	ParentsStdDev     float64 `json:"parents_stddev"`
	TimePerCohort     float64 `json:"time_per_cohort"` // per cohort block, in units of mean latency
	Cohorts           int     `json:"cohorts"`         // from the cohort iterator
	CohortSizeMean    float64 `json:"cohort_size_mean"`
	CohortIntervalAvg float64 `json:"cohort_interval_mean"`
	Orphans           int     `json:"orphans"` // unreferenced blocks left out of cohorts
	LateFlagWrites    int     `json:"late_flag_writes"`
}

// Run is an archived simulation: its parameters and headline numbers.
// Blocks are stored separately under the run ID.
type Run struct {
	ID        string          `json:"id"`
	Strategy  string          `json:"strategy"`
	Seed      uint64          `json:"seed"`
	Config    json.RawMessage `json:"config"`
	Summary   Summary         `json:"summary"`
	CreatedAt int64           `json:"created_at"` // unix timestamp in ms
	Elapsed   int64           `json:"elapsed_ms"`
}
