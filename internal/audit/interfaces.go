package audit

import (
	"context"
	"time"
)

// Document is a live, queryable rendered page owned by a single attempt.
// Close releases the underlying tab and must be called on every exit path.
type Document interface {
	Title(ctx context.Context) (string, error)
	BodyText(ctx context.Context) (string, error)
	ElementCount(ctx context.Context) (int, error)
	MetaDescription(ctx context.Context) (string, error)
	// WaitForQuiescence pauses, best-effort, until in-page async content has
	// settled or the bound elapses. A lapsed bound is not an error.
	WaitForQuiescence(ctx context.Context, timeout time.Duration) error
	Close()
}

// RenderedPage is the outcome of a successful navigation. StatusCode is 0
// when no HTTP response was observed for the document (e.g. a non-HTTP
// scheme); callers must not conflate that with a real status.
type RenderedPage struct {
	StatusCode int
	Document   Document
}

// Renderer navigates URLs inside a shared browser session. Implementations
// return *NavigationError for network/DNS/TLS/timeout failures.
type Renderer interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) (RenderedPage, error)
}

// Oracle is the optional text-classification capability consulted when the
// parked heuristic fires. Implementations must bound their own wait and
// return VerdictInconclusive when disabled.
type Oracle interface {
	Classify(ctx context.Context, summary string) (OracleVerdict, error)
}
