// Package llm talks to language-model backends. Every provider implements
// Client and reports failures through the same small error taxonomy so the
// caller can treat them uniformly.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged prompt entry.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Response carries the visible content and, when the backend supplies it
// out of band, the reasoning text.
type Response struct {
	Content     string
	Reasoning   string
	TotalTokens int
}

// Client performs completion calls. Implementations must honor ctx
// cancellation and deadlines.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

var (
	// ErrTimeout is returned when the call deadline expired.
	ErrTimeout = errors.New("model request timed out")
	// ErrEmptyReply is returned when the backend produced no visible text.
	ErrEmptyReply = errors.New("model returned an empty reply")
)

// TransportError wraps a network-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport error: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError is a non-success response from the model service.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: status %d: %s", e.StatusCode, e.Message)
}

// classify maps an error from a transport or SDK call onto the taxonomy.
// Errors already classified are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	var te *TransportError
	if errors.As(err, &be) || errors.As(err, &te) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrEmptyReply) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return &TransportError{Err: err}
}
