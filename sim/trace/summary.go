package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches int
	TagCounts       map[string]int // tag name → number of dispatches
	Migrations      int
	MigratedVms     int     // distinct VMs migrated at least once
	MeanDelay       float64 // mean migration delay
	MaxDelay        float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TagCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDispatches = len(st.Dispatches)
	for _, d := range st.Dispatches {
		summary.TagCounts[d.Tag]++
	}

	if len(st.Migrations) > 0 {
		vms := make(map[int]bool)
		totalDelay := 0.0
		for _, m := range st.Migrations {
			vms[m.VmID] = true
			totalDelay += m.Delay
			if m.Delay > summary.MaxDelay {
				summary.MaxDelay = m.Delay
			}
		}
		summary.Migrations = len(st.Migrations)
		summary.MigratedVms = len(vms)
		summary.MeanDelay = totalDelay / float64(len(st.Migrations))
	}

	return summary
}
