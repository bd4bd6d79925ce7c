package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Scheduler fans targets out to a fixed pool of workers, each running the
// full check state machine to completion before pulling the next item. A
// check suspended in navigation, quiescence, backoff, or an oracle call
// never blocks its siblings; a slot frees as soon as its check settles.
type Scheduler struct {
	checker *Checker
	width   int
	logger  *zap.Logger
}

// NewScheduler builds a scheduler with the given pool width (default 4).
func NewScheduler(checker *Checker, width int, logger *zap.Logger) *Scheduler {
	if width <= 0 {
		width = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		checker: checker,
		width:   width,
		logger:  logger,
	}
}

// Run checks every target and returns one result per target. Collection is
// append-only under a lock; completion order is latency-dependent and
// callers needing input order must sort by Target.Index (BuildReport does).
func (s *Scheduler) Run(ctx context.Context, targets []Target) []CheckResult {
	jobs := make(chan Target)
	results := make([]CheckResult, 0, len(targets))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < s.width; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			logger := s.logger.With(zap.Int("worker", worker))
			for target := range jobs {
				logger.Info("checking url", zap.String("url", target.URL), zap.Int("index", target.Index))
				result := s.checker.Check(ctx, target)
				logger.Info("url settled",
					zap.String("url", target.URL),
					zap.String("status", string(result.Status)),
					zap.Int("attempts", result.Attempts),
					zap.Duration("elapsed", result.Elapsed),
				)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}(i)
	}

	for _, target := range targets {
		jobs <- target
	}
	close(jobs)
	wg.Wait()

	return results
}
