package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildReportRestoresInputOrder(t *testing.T) {
	t.Parallel()

	// Completion order is latency-dependent; the report must not be.
	results := []CheckResult{
		{Target: Target{URL: "http://c.example", Index: 2}, Status: StatusOK},
		{Target: Target{URL: "http://a.example", Index: 0}, Status: StatusParked},
		{Target: Target{URL: "http://b.example", Index: 1}, Status: StatusBroken},
	}
	rep := BuildReport("run-1", results, time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC))

	require.Equal(t, "run-1", rep.RunID)
	require.Equal(t, "http://a.example", rep.Rows[0].Target.URL)
	require.Equal(t, "http://b.example", rep.Rows[1].Target.URL)
	require.Equal(t, "http://c.example", rep.Rows[2].Target.URL)

	// The input slice must stay untouched.
	require.Equal(t, "http://c.example", results[0].Target.URL)
}

func TestReportSummaryCounts(t *testing.T) {
	t.Parallel()

	rep := BuildReport("run-2", []CheckResult{
		{Target: Target{Index: 0}, Status: StatusOK},
		{Target: Target{Index: 1}, Status: StatusOK},
		{Target: Target{Index: 2}, Status: StatusParked},
		{Target: Target{Index: 3}, Status: StatusServerError},
		{Target: Target{Index: 4}, Status: StatusNotFound},
		{Target: Target{Index: 5}, Status: StatusOther},
	}, time.Now())

	summary := rep.Summary()
	require.Equal(t, 2, summary[StatusOK])
	require.Equal(t, 1, summary[StatusParked])
	require.Equal(t, 1, summary[StatusServerError])
	require.Equal(t, 1, summary[StatusNotFound])
	require.Equal(t, 1, summary[StatusOther])
	require.Equal(t, 0, summary[StatusBroken])
}
