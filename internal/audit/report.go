package audit

import (
	"sort"
	"time"
)

// Report aggregates the verdicts of one batch run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Rows        []CheckResult
}

// BuildReport sorts results back into original input order and stamps the
// report. Naive collection order is latency-dependent, so the sort here is
// what makes output deterministic.
func BuildReport(runID string, results []CheckResult, generatedAt time.Time) Report {
	rows := make([]CheckResult, len(results))
	copy(rows, results)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Target.Index < rows[j].Target.Index
	})
	return Report{
		RunID:       runID,
		GeneratedAt: generatedAt.UTC(),
		Rows:        rows,
	}
}

// Summary counts rows per status.
func (r Report) Summary() map[Status]int {
	counts := make(map[Status]int, 6)
	for _, row := range r.Rows {
		counts[row.Status]++
	}
	return counts
}
