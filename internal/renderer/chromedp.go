// Package renderer provides the headless-Chrome rendering engine behind the
// audit.Renderer interface. One browser process is shared by the whole
// batch; each attempt gets its own tab, released when the attempt ends.
package renderer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"linkaudit/internal/audit"
)

// Config controls the rendering engine.
type Config struct {
	UserAgent   string
	MaxParallel int
	// PerHostQPS throttles navigations per host; 0 disables throttling.
	PerHostQPS float64
}

// Engine implements audit.Renderer using chromedp.
type Engine struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	sem           chan struct{}
	hostLimiters  sync.Map
	logger        *zap.Logger
}

// New starts a headless browser and warms up the shared session. Failure to
// start is fatal to the batch and is reported as *audit.SetupError.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, &audit.SetupError{Err: fmt.Errorf("chromedp warmup: %w", err)}
	}

	var sem chan struct{}
	if cfg.MaxParallel > 0 {
		sem = make(chan struct{}, cfg.MaxParallel)
	}
	return &Engine{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		sem:           sem,
		logger:        logger,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (e *Engine) Close() {
	e.browserCancel()
	e.allocCancel()
}

// Navigate opens a fresh tab, drives it to the URL, and returns the observed
// HTTP status (0 when none arrived) plus a live document handle. The tab
// stays open until Document.Close.
func (e *Engine) Navigate(ctx context.Context, rawURL string, timeout time.Duration) (audit.RenderedPage, error) {
	release, err := e.acquireSlot(ctx)
	if err != nil {
		return audit.RenderedPage{}, &audit.NavigationError{URL: rawURL, Err: err}
	}

	if err := e.waitHostBudget(ctx, rawURL); err != nil {
		release()
		return audit.RenderedPage{}, &audit.NavigationError{URL: rawURL, Err: err}
	}

	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx)

	meta := newResponseMeta()
	chromedp.ListenTarget(tabCtx, meta.captureEvent)

	navCtx, navCancel := context.WithTimeout(tabCtx, timeout)
	defer navCancel()
	stopForward := forwardCancel(ctx, navCancel)
	defer stopForward()

	err = chromedp.Run(navCtx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		tabCancel()
		release()
		return audit.RenderedPage{}, &audit.NavigationError{URL: rawURL, Err: err}
	}

	doc := &document{
		tabCtx: tabCtx,
		close: func() {
			tabCancel()
			release()
		},
	}
	return audit.RenderedPage{StatusCode: meta.status(), Document: doc}, nil
}

func (e *Engine) acquireSlot(ctx context.Context) (func(), error) {
	if e.sem == nil {
		return func() {}, nil
	}
	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-e.sem }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire render slot: %w", ctx.Err())
	}
}

func (e *Engine) waitHostBudget(ctx context.Context, rawURL string) error {
	if e.cfg.PerHostQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := e.hostLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(e.cfg.PerHostQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait host limiter: %w", err)
	}
	return nil
}

// responseMeta captures the status of the first document response seen on a
// tab. Absence of a capture leaves the status at 0, which callers read as
// "no response arrived".
type responseMeta struct {
	once       sync.Once
	mu         sync.Mutex
	statusCode int
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (m *responseMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.once.Do(func() {
		m.mu.Lock()
		m.statusCode = int(resp.Response.Status)
		m.mu.Unlock()
	})
}

func (m *responseMeta) status() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCode
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
