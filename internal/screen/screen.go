// Package screen implements the orchestration behind each UI surface:
// mount-time session gating, loading phases, transient banners, and the
// fetch-after-mutation refresh pattern every admin screen follows.
package screen

import (
	"context"
	"errors"

	"sarasavi/internal/client"
)

// Phase is the lifecycle of a screen's data: Idle until mounted, Loading
// while requests are in flight, then Ready or Failed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// RedirectError tells the caller to navigate away instead of rendering.
type RedirectError struct {
	Route string
}

func (e *RedirectError) Error() string {
	return "redirect to " + e.Route
}

// ErrLoginRequired is returned by guards when the session lacks the flags a
// screen needs; callers navigate to the login route without fetching data.
var ErrLoginRequired = &RedirectError{Route: "/login"}

// failureMessage maps an operation error to the banner text. Transport
// failures collapse into the generic connectivity message; API errors
// surface the server's own words.
func failureMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Error connecting to server"
}

// supersede cancels any in-flight load and returns a child context for the
// replacement request.
func supersede(ctx context.Context, prev context.CancelFunc) (context.Context, context.CancelFunc) {
	if prev != nil {
		prev()
	}
	return context.WithCancel(ctx)
}
