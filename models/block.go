package models

// Block is one simulated braid block. Height doubles as the creation order.
type Block struct {
	Height      int     `json:"height"`             // creation order, genesis is 0
	Time        float64 `json:"time"`               // cumulative simulated arrival time
	Solvetime   float64 `json:"solvetime"`          // time since the previous block
	Target      float64 `json:"target"`             // x = 1/difficulty
	Latency     float64 `json:"latency"`            // propagation delay bound of the miner
	Hashrate    float64 `json:"hashrate"`           // hashrate in effect when mined
	Parents     []int   `json:"parents"`            // direct parents, all lower heights
	Children    []int   `json:"children,omitempty"` // reverse index of Parents
	NumParents  int     `json:"num_parents"`        // len(Parents)
	CohortRatio float64 `json:"cohort_ratio"`       // Nb/Nc observed when the target was set
	Cohort      bool    `json:"cohort"`             // single-block generation (Nc block)
	Sibling     bool    `json:"sibling"`            // mined concurrently with another block
	Final       bool    `json:"final"`              // flags can no longer change
}

// Cohort is one confirmed cohort as reported by the API.
type Cohort struct {
	Index   int     `json:"index"`
	Heights []int   `json:"heights"`
	Start   float64 `json:"start"` // time of the earliest member
	End     float64 `json:"end"`   // time of the latest member
}
