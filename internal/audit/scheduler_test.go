package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gaugedRenderer records the peak number of simultaneous navigations.
type gaugedRenderer struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	order    []string
}

func (r *gaugedRenderer) Navigate(_ context.Context, url string, _ time.Duration) (RenderedPage, error) {
	current := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		peak := r.peak.Load()
		if current <= peak || r.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	r.mu.Lock()
	r.order = append(r.order, url)
	r.mu.Unlock()

	return RenderedPage{StatusCode: 200, Document: &fakeDoc{
		body:     strings.Repeat("steady content ", 40),
		elements: 50,
	}}, nil
}

func newTestScheduler(r Renderer, width int) *Scheduler {
	classifier := NewContentClassifier(DefaultRules(), nil, time.Second, 1500, zap.NewNop())
	retry := RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond}
	checker := NewChecker(r, classifier, retry, time.Second, time.Millisecond, zap.NewNop())
	return NewScheduler(checker, width, zap.NewNop())
}

func TestSchedulerChecksEveryTargetOnce(t *testing.T) {
	t.Parallel()

	renderer := &gaugedRenderer{}
	targets := make([]Target, 20)
	for i := range targets {
		targets[i] = Target{URL: fmt.Sprintf("http://site-%02d.example", i), Index: i}
	}

	results := newTestScheduler(renderer, 4).Run(context.Background(), targets)
	require.Len(t, results, len(targets))

	seen := make(map[string]int, len(results))
	for _, result := range results {
		seen[result.Target.URL]++
		require.Equal(t, StatusOK, result.Status)
	}
	for _, target := range targets {
		require.Equal(t, 1, seen[target.URL], "each target checked exactly once")
	}
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	t.Parallel()

	renderer := &gaugedRenderer{}
	targets := make([]Target, 30)
	for i := range targets {
		targets[i] = Target{URL: fmt.Sprintf("http://site-%02d.example", i), Index: i}
	}

	newTestScheduler(renderer, 3).Run(context.Background(), targets)
	require.LessOrEqual(t, renderer.peak.Load(), int32(3))
	require.Greater(t, renderer.peak.Load(), int32(1), "pool should actually run in parallel")
}
