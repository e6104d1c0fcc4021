package trace

// TraceLevel controls how much of a network run is recorded.
type TraceLevel string

const (
	// TraceLevelNone records nothing; NewSimulationTrace returns nil.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions records every buffer admission check at a queue
	// server and every edge chosen by a brancher.
	TraceLevelDecisions TraceLevel = "decisions"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace is the decision log of one network run, in event order.
//
// Admissions holds one record per packet that reached a queue server, with
// the buffer occupancy the packet saw; a record with Admitted=false is a drop.
// Branches holds one record per packet that reached a brancher, with the
// uniform draw and the chosen edge; Edge=-1 or an empty Target is a discard.
// Every record is keyed by the packet's (Source, PacketID).
//
// A nil *SimulationTrace is valid and records nothing.
type SimulationTrace struct {
	Config     TraceConfig
	Admissions []AdmissionRecord
	Branches   []BranchRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
// It returns nil for TraceLevelNone so callers can skip recording with a nil check.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	if config.Level == TraceLevelNone || config.Level == "" {
		return nil
	}
	return &SimulationTrace{
		Config:     config,
		Admissions: make([]AdmissionRecord, 0),
		Branches:   make([]BranchRecord, 0),
	}
}

// RecordAdmission appends the outcome of a queue server's buffer check.
func (st *SimulationTrace) RecordAdmission(record AdmissionRecord) {
	if st == nil {
		return
	}
	st.Admissions = append(st.Admissions, record)
}

// RecordBranch appends a brancher's routing decision.
func (st *SimulationTrace) RecordBranch(record BranchRecord) {
	if st == nil {
		return
	}
	st.Branches = append(st.Branches, record)
}

// Drops returns the rejected admissions, optionally limited to one queue
// server (empty node matches all).
func (st *SimulationTrace) Drops(node string) []AdmissionRecord {
	if st == nil {
		return nil
	}
	var out []AdmissionRecord
	for _, a := range st.Admissions {
		if !a.Admitted && (node == "" || a.Node == node) {
			out = append(out, a)
		}
	}
	return out
}
