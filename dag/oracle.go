package dag

import "math"

// Arrival is what the visibility model knows about a block.
type Arrival struct {
	Height  int
	Time    float64
	Latency float64
}

// VisibilityOracle decides whether receiver had seen sender when it was mined.
type VisibilityOracle interface {
	Visible(receiver, sender Arrival) bool
}

// LatencyOracle uses the simulator's global clock: sender is visible once the
// time between the two blocks covers the slower of their two latencies.
// No real validator can know this; it stands in for gossip and hash ordering.
type LatencyOracle struct{}

func (LatencyOracle) Visible(receiver, sender Arrival) bool {
	return math.Max(receiver.Latency, sender.Latency) <= receiver.Time-sender.Time
}
