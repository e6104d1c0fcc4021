// Package trace provides decision-trace recording for network analysis.
// This package has no dependencies on sim/ or sim/network/; it stores pure data types.
package trace

// AdmissionRecord captures a queue server's decision to admit or drop a packet.
type AdmissionRecord struct {
	Node     string
	PacketID int64
	Source   string
	Clock    float64
	Admitted bool
	InFlight int     // packets held by the node before the decision
	Bytes    float64 // bytes held by the node before the decision
}

// BranchRecord captures a single brancher decision.
type BranchRecord struct {
	Brancher string
	PacketID int64
	Source   string
	Clock    float64
	Draw     float64 // uniform draw in [0, 1)
	Edge     int     // index of the selected edge; -1 when the draw fell past every interval
	Target   string  // downstream node name; empty when the edge is open
}
