package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Checker drives the end-to-end verdict for a single URL: navigate, classify
// the response, classify the content, retry transient failures with backoff,
// and settle on exactly one Status.
type Checker struct {
	renderer   Renderer
	classifier *ContentClassifier
	retry      RetryPolicy
	navTimeout time.Duration
	quiescence time.Duration
	logger     *zap.Logger
}

// NewChecker constructs a Checker. Zero durations fall back to 30s
// navigation and 3s quiescence bounds.
func NewChecker(renderer Renderer, classifier *ContentClassifier, retry RetryPolicy, navTimeout, quiescence time.Duration, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	if quiescence <= 0 {
		quiescence = 3 * time.Second
	}
	return &Checker{
		renderer:   renderer,
		classifier: classifier,
		retry:      retry,
		navTimeout: navTimeout,
		quiescence: quiescence,
		logger:     logger,
	}
}

// attemptOutcome is the transient result of one attempt iteration. Either
// settled carries a final partial CheckResult, or failure/errDetail describe
// a retryable fault.
type attemptOutcome struct {
	settled   bool
	status    Status
	notes     string
	errDetail string
	failure   string
}

func settled(status Status, notes, errDetail string) attemptOutcome {
	return attemptOutcome{settled: true, status: status, notes: notes, errDetail: errDetail}
}

func retryable(failure, errDetail string) attemptOutcome {
	return attemptOutcome{failure: failure, errDetail: errDetail}
}

// Check runs the attempt loop for one target until a verdict settles. Every
// reachable path terminates in exactly one Status; faults inside the check
// never escape to the caller.
func (c *Checker) Check(ctx context.Context, target Target) CheckResult {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		outcome := c.attempt(ctx, target, attempt)
		if outcome.settled {
			c.logger.Debug("check settled",
				zap.String("url", target.URL),
				zap.String("status", string(outcome.status)),
				zap.Int("attempts", attempt+1),
			)
			return CheckResult{
				Target:   target,
				Status:   outcome.status,
				Notes:    outcome.notes,
				Err:      outcome.errDetail,
				Attempts: attempt + 1,
				Elapsed:  time.Since(start),
			}
		}

		if !c.retry.ShouldRetry(attempt) {
			// Exhausted retries on a transient failure reads as an outage.
			return CheckResult{
				Target:   target,
				Status:   StatusServerError,
				Notes:    fmt.Sprintf("%s after %d attempts", outcome.failure, attempt+1),
				Err:      outcome.errDetail,
				Attempts: attempt + 1,
				Elapsed:  time.Since(start),
			}
		}

		c.logger.Debug("retrying check",
			zap.String("url", target.URL),
			zap.String("failure", outcome.failure),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", c.retry.Backoff(attempt)),
		)
		if err := c.retry.Wait(ctx, attempt); err != nil {
			return CheckResult{
				Target:   target,
				Status:   StatusServerError,
				Notes:    fmt.Sprintf("%s, retry aborted: %v", outcome.failure, err),
				Err:      outcome.errDetail,
				Attempts: attempt + 1,
				Elapsed:  time.Since(start),
			}
		}
	}
}

// attempt executes one navigation plus classification pass. The rendered
// document is released on every exit path before the next attempt can start.
func (c *Checker) attempt(ctx context.Context, target Target, attempt int) (outcome attemptOutcome) {
	defer func() {
		if r := recover(); r != nil {
			// A fault during analysis must not abort the batch.
			outcome = settled(StatusOther, fmt.Sprintf("classification fault: %v", r), fmt.Sprint(r))
		}
	}()

	page, err := c.renderer.Navigate(ctx, target.URL, c.navTimeout)
	if err != nil {
		return retryable("navigation failed", err.Error())
	}
	doc := page.Document
	if doc != nil {
		defer doc.Close()
	}

	if page.StatusCode == 0 {
		// Navigation succeeded without an observable HTTP response; judge
		// whatever content actually loaded.
		return c.classifyLoaded(ctx, doc, 0)
	}

	switch ClassifyResponse(page.StatusCode) {
	case CandidateServerError:
		return retryable(fmt.Sprintf("HTTP %d", page.StatusCode), "")

	case CandidateNotFound:
		return settled(StatusNotFound, c.notFoundNote(ctx, doc), "")

	case CandidateDeferred:
		sig, serr := collectSignals(ctx, doc)
		if serr != nil {
			return settled(StatusOther, fmt.Sprintf("classification fault: %v", serr), serr.Error())
		}
		if Substantial(sig) {
			return settled(StatusOK, "HTTP 403 with substantial content; possible bot block", "")
		}
		return settled(StatusBroken, "HTTP 403", "")

	case CandidateBroken:
		return settled(StatusBroken, fmt.Sprintf("HTTP %d", page.StatusCode), "")

	default:
		if doc != nil {
			if werr := doc.WaitForQuiescence(ctx, c.quiescence); werr != nil {
				c.logger.Debug("quiescence wait ended early",
					zap.String("url", target.URL),
					zap.Error(werr),
				)
			}
		}
		return c.classifyLoaded(ctx, doc, page.StatusCode)
	}
}

func (c *Checker) classifyLoaded(ctx context.Context, doc Document, httpStatus int) attemptOutcome {
	sig, err := collectSignals(ctx, doc)
	if err != nil {
		return settled(StatusOther, fmt.Sprintf("classification fault: %v", err), err.Error())
	}
	status, note := c.classifier.Classify(ctx, sig, httpStatus)
	return settled(status, note, "")
}

// notFoundNote enriches the 404 note with any heuristic the page content
// also matches. The verdict stays NotFound regardless.
func (c *Checker) notFoundNote(ctx context.Context, doc Document) string {
	const base = "HTTP 404"
	sig, err := collectSignals(ctx, doc)
	if err != nil {
		return base
	}
	if phrase, ok := c.classifier.rules.MatchParked(sig.Title, sig.BodyText); ok {
		return fmt.Sprintf("%s (page also matches %q)", base, phrase)
	}
	if phrase, ok := c.classifier.rules.MatchBroken(sig.Title, sig.BodyText); ok {
		return fmt.Sprintf("%s (page also matches %q)", base, phrase)
	}
	return base
}

// collectSignals snapshots the classification view of a document. Signals
// are computed fresh per attempt; content may change between retries.
func collectSignals(ctx context.Context, doc Document) (ClassificationSignals, error) {
	if doc == nil {
		return ClassificationSignals{}, errors.New("no document available")
	}
	title, err := doc.Title(ctx)
	if err != nil {
		return ClassificationSignals{}, fmt.Errorf("read title: %w", err)
	}
	body, err := doc.BodyText(ctx)
	if err != nil {
		return ClassificationSignals{}, fmt.Errorf("read body text: %w", err)
	}
	count, err := doc.ElementCount(ctx)
	if err != nil {
		return ClassificationSignals{}, fmt.Errorf("count elements: %w", err)
	}
	meta, err := doc.MetaDescription(ctx)
	if err != nil {
		return ClassificationSignals{}, fmt.Errorf("read meta description: %w", err)
	}
	body = strings.TrimSpace(body)
	return ClassificationSignals{
		Title:           title,
		BodyText:        strings.ToLower(body),
		BodyLength:      len(body),
		ElementCount:    count,
		MetaDescription: meta,
	}, nil
}
