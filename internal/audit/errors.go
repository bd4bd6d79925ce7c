package audit

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned by Normalize for empty or whitespace-only input.
var ErrEmptyInput = errors.New("empty url input")

// NavigationError wraps network, DNS, TLS, and timeout failures raised while
// navigating to a URL. Navigation errors are retryable.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// SetupError indicates the rendering engine failed to initialize. It is the
// only fault class that aborts the whole batch.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("rendering engine setup: %v", e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
