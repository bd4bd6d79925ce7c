package renderer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"linkaudit/internal/audit"
)

var _ audit.Document = (*document)(nil)

// opTimeout bounds each individual document query against the tab.
const opTimeout = 10 * time.Second

// quiescencePoll is how often the document ready state is re-checked.
const quiescencePoll = 250 * time.Millisecond

// settleDelay is a short grace period after the document reports complete,
// letting late async content paint before the DOM is snapshotted.
const settleDelay = 500 * time.Millisecond

// document is a live tab wrapped as an audit.Document. DOM signals are read
// from one OuterHTML snapshot parsed with goquery; the snapshot is
// invalidated by WaitForQuiescence so post-quiescence reads see fresh state.
type document struct {
	tabCtx    context.Context
	close     func()
	closeOnce sync.Once

	mu   sync.Mutex
	snap *snapshot
}

// snapshot holds the parsed DOM signals of one OuterHTML capture.
type snapshot struct {
	title           string
	bodyText        string
	elementCount    int
	metaDescription string
}

func parseSnapshot(html string) (*snapshot, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse dom snapshot: %w", err)
	}
	return &snapshot{
		title:           strings.TrimSpace(gq.Find("title").First().Text()),
		bodyText:        strings.TrimSpace(gq.Find("body").Text()),
		elementCount:    gq.Find("*").Length(),
		metaDescription: gq.Find(`meta[name="description"]`).AttrOr("content", ""),
	}, nil
}

func (d *document) Title(ctx context.Context) (string, error) {
	snap, err := d.ensureSnapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.title, nil
}

func (d *document) BodyText(ctx context.Context) (string, error) {
	snap, err := d.ensureSnapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.bodyText, nil
}

func (d *document) ElementCount(ctx context.Context) (int, error) {
	snap, err := d.ensureSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	return snap.elementCount, nil
}

func (d *document) MetaDescription(ctx context.Context) (string, error) {
	snap, err := d.ensureSnapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.metaDescription, nil
}

// WaitForQuiescence polls the document ready state until it reports
// complete or the bound lapses, then waits a short settle delay. A lapsed
// bound is best-effort success, not an error.
func (d *document) WaitForQuiescence(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var state string
		if err := d.run(ctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
			return err
		}
		if state == "complete" || time.Now().After(deadline) {
			break
		}
		timer := time.NewTimer(quiescencePoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	timer := time.NewTimer(settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	d.mu.Lock()
	d.snap = nil
	d.mu.Unlock()
	return nil
}

// Close releases the tab and its render slot. Safe to call more than once.
func (d *document) Close() {
	d.closeOnce.Do(d.close)
}

func (d *document) ensureSnapshot(ctx context.Context) (*snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap != nil {
		return d.snap, nil
	}
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("capture outer html: %w", err)
	}
	snap, err := parseSnapshot(html)
	if err != nil {
		return nil, err
	}
	d.snap = snap
	return snap, nil
}

// run executes chromedp actions on the tab, bounded by opTimeout and the
// caller's context.
func (d *document) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.tabCtx, opTimeout)
	defer cancel()
	stopForward := forwardCancel(ctx, cancel)
	defer stopForward()
	return chromedp.Run(runCtx, actions...)
}
