package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAdmissions int
	AdmittedCount   int
	DroppedCount    int
	DropsByNode     map[string]int         // queue server → dropped packets
	BranchCounts    map[string]map[int]int // brancher → edge index → packets routed
	BranchTotals    map[string]int         // brancher → decisions
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DropsByNode:  make(map[string]int),
		BranchCounts: make(map[string]map[int]int),
		BranchTotals: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalAdmissions = len(st.Admissions)
	for _, a := range st.Admissions {
		if a.Admitted {
			summary.AdmittedCount++
		} else {
			summary.DroppedCount++
			summary.DropsByNode[a.Node]++
		}
	}

	for _, b := range st.Branches {
		edges, ok := summary.BranchCounts[b.Brancher]
		if !ok {
			edges = make(map[int]int)
			summary.BranchCounts[b.Brancher] = edges
		}
		edges[b.Edge]++
		summary.BranchTotals[b.Brancher]++
	}

	return summary
}

// BranchFraction returns the fraction of a brancher's decisions that chose
// the given edge, or 0 when the brancher made no decisions.
func (s *TraceSummary) BranchFraction(brancher string, edge int) float64 {
	total := s.BranchTotals[brancher]
	if total == 0 {
		return 0
	}
	return float64(s.BranchCounts[brancher][edge]) / float64(total)
}
