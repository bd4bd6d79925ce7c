package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDoc struct {
	title    string
	body     string
	meta     string
	elements int

	bodyErr error

	mu       sync.Mutex
	closed   int
	quiesced int
}

func (d *fakeDoc) Title(context.Context) (string, error) { return d.title, nil }

func (d *fakeDoc) BodyText(context.Context) (string, error) {
	if d.bodyErr != nil {
		return "", d.bodyErr
	}
	return d.body, nil
}

func (d *fakeDoc) ElementCount(context.Context) (int, error) { return d.elements, nil }

func (d *fakeDoc) MetaDescription(context.Context) (string, error) { return d.meta, nil }

func (d *fakeDoc) WaitForQuiescence(context.Context, time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quiesced++
	return nil
}

func (d *fakeDoc) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
}

func (d *fakeDoc) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type navStep struct {
	status int
	doc    *fakeDoc
	err    error
}

type fakeRenderer struct {
	mu    sync.Mutex
	steps []navStep
	calls int
}

func (r *fakeRenderer) Navigate(_ context.Context, url string, _ time.Duration) (RenderedPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step := r.steps[len(r.steps)-1]
	if r.calls < len(r.steps) {
		step = r.steps[r.calls]
	}
	r.calls++
	if step.err != nil {
		return RenderedPage{}, &NavigationError{URL: url, Err: step.err}
	}
	page := RenderedPage{StatusCode: step.status}
	if step.doc != nil {
		page.Document = step.doc
	}
	return page, nil
}

func newTestChecker(r Renderer) *Checker {
	classifier := NewContentClassifier(DefaultRules(), nil, time.Second, 1500, zap.NewNop())
	retry := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}
	return NewChecker(r, classifier, retry, time.Second, time.Millisecond, zap.NewNop())
}

func TestCheckNotFound(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{body: "Page Not Found", elements: 20}
	renderer := &fakeRenderer{steps: []navStep{{status: 404, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://a.example"})

	require.Equal(t, StatusNotFound, result.Status)
	require.Equal(t, "HTTP 404", result.Notes)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, 1, doc.closeCount())
}

func TestCheckNotFoundNoteEnrichment(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{body: "this page is under construction", elements: 20}
	renderer := &fakeRenderer{steps: []navStep{{status: 404, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://a.example"})

	require.Equal(t, StatusNotFound, result.Status)
	require.Contains(t, result.Notes, "HTTP 404")
	require.Contains(t, result.Notes, "under construction")
}

func TestCheckServerErrorExhaustsRetries(t *testing.T) {
	t.Parallel()

	docs := make([]*fakeDoc, 4)
	steps := make([]navStep, 4)
	for i := range steps {
		docs[i] = &fakeDoc{body: "internal error", elements: 3}
		steps[i] = navStep{status: 500, doc: docs[i]}
	}
	renderer := &fakeRenderer{steps: steps}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://down.example"})

	require.Equal(t, StatusServerError, result.Status)
	require.Equal(t, 4, result.Attempts)
	require.Equal(t, 4, renderer.calls)
	require.Contains(t, result.Notes, "500")
	require.Contains(t, result.Notes, "4")
	for i, doc := range docs {
		require.Equal(t, 1, doc.closeCount(), "doc %d must be released", i)
	}
}

func TestCheckServerErrorRecoversMidRetry(t *testing.T) {
	t.Parallel()

	healthy := &fakeDoc{
		title:    "Acme",
		body:     strings.Repeat("real page content ", 40),
		elements: 80,
	}
	renderer := &fakeRenderer{steps: []navStep{
		{status: 503, doc: &fakeDoc{}},
		{status: 200, doc: healthy},
	}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://flaky.example"})

	require.Equal(t, StatusOK, result.Status)
	require.Equal(t, 2, result.Attempts)
}

func TestCheckNavigationFailureExhaustsRetries(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{steps: []navStep{{err: errors.New("net::ERR_NAME_NOT_RESOLVED")}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://gone.example"})

	require.Equal(t, StatusServerError, result.Status)
	require.Equal(t, 4, result.Attempts)
	require.Equal(t, 4, renderer.calls)
	require.Contains(t, result.Notes, "navigation failed after 4 attempts")
	require.Contains(t, result.Err, "ERR_NAME_NOT_RESOLVED")
}

func TestCheckNavigationFailureThenSuccess(t *testing.T) {
	t.Parallel()

	parked := &fakeDoc{body: "this domain is for sale", elements: 12}
	renderer := &fakeRenderer{steps: []navStep{
		{err: errors.New("connection refused")},
		{status: 200, doc: parked},
	}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://slow.example"})

	require.Equal(t, StatusParked, result.Status)
	require.Equal(t, 2, result.Attempts)
}

func TestCheckForbiddenSubstantialContent(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{
		title:    "Product catalog",
		body:     strings.Repeat("normal product listing row ", 80),
		elements: 200,
	}
	renderer := &fakeRenderer{steps: []navStep{{status: 403, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://shop.example"})

	require.Equal(t, StatusOK, result.Status)
	require.Contains(t, result.Notes, "possible bot block")
	require.Equal(t, 1, doc.closeCount())
}

func TestCheckForbiddenThinContent(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{body: "403 Forbidden", elements: 4}
	renderer := &fakeRenderer{steps: []navStep{{status: 403, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://blocked.example"})

	require.Equal(t, StatusBroken, result.Status)
	require.Equal(t, "HTTP 403", result.Notes)
}

func TestCheckOtherClientErrorIsBroken(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{body: "gone", elements: 3}
	renderer := &fakeRenderer{steps: []navStep{{status: 410, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://old.example"})

	require.Equal(t, StatusBroken, result.Status)
	require.Equal(t, "HTTP 410", result.Notes)
	require.Equal(t, 1, result.Attempts)
}

func TestCheckContentPathWaitsForQuiescence(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{body: "Welcome to nginx! If you see this page the web server is working.", elements: 9}
	renderer := &fakeRenderer{steps: []navStep{{status: 200, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://fresh.example"})

	require.Equal(t, StatusParked, result.Status)
	require.Equal(t, 1, doc.quiesced)
	require.Equal(t, 1, doc.closeCount())
}

func TestCheckEmptyPageIsBroken(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{body: "", elements: 0}
	renderer := &fakeRenderer{steps: []navStep{{status: 200, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://hollow.example"})

	require.Equal(t, StatusBroken, result.Status)
	require.Contains(t, result.Notes, "structurally empty")
}

func TestCheckNoResponseClassifiesContent(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{
		title:    "Docs",
		body:     strings.Repeat("documentation paragraphs ", 40),
		elements: 60,
	}
	renderer := &fakeRenderer{steps: []navStep{{status: 0, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://odd.example"})

	require.Equal(t, StatusOK, result.Status)
	require.Contains(t, result.Notes, "no status observed")
}

func TestCheckClassificationFaultSettlesOther(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{bodyErr: fmt.Errorf("target crashed")}
	renderer := &fakeRenderer{steps: []navStep{{status: 200, doc: doc}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://crash.example"})

	require.Equal(t, StatusOther, result.Status)
	require.Contains(t, result.Notes, "classification fault")
	require.Contains(t, result.Err, "target crashed")
	require.Equal(t, 1, doc.closeCount())
}

func TestCheckMissingDocumentSettlesOther(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{steps: []navStep{{status: 0, doc: nil}}}
	result := newTestChecker(renderer).Check(context.Background(), Target{URL: "http://void.example"})

	require.Equal(t, StatusOther, result.Status)
	require.Contains(t, result.Notes, "no document available")
}
