// Package submit delivers validated sign-up records to whatever accepts new
// accounts. Implementations are selected by name through a Registry.
package submit

import (
	"context"
	"fmt"
	"sync"

	"github.com/smileynet/signup/internal/signup"
)

// Submitter delivers a validated record. A nil error means it was accepted.
type Submitter interface {
	Name() string
	Submit(ctx context.Context, in signup.Input) error
}

// Verify MockSubmitter satisfies Submitter at compile time.
var _ Submitter = (*MockSubmitter)(nil)

// MockSubmitter is a test double that records every call.
type MockSubmitter struct {
	NameVal    string
	SubmitFunc func(ctx context.Context, in signup.Input) error

	mu    sync.Mutex
	calls []signup.Input
}

// Name returns the configured submitter name.
func (m *MockSubmitter) Name() string { return m.NameVal }

// Submit records in and delegates to SubmitFunc, returning nil if SubmitFunc is nil.
func (m *MockSubmitter) Submit(ctx context.Context, in signup.Input) error {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	m.mu.Unlock()
	if m.SubmitFunc == nil {
		return nil
	}
	return m.SubmitFunc(ctx, in)
}

// Calls returns the records received so far.
func (m *MockSubmitter) Calls() []signup.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]signup.Input(nil), m.calls...)
}

// SubmitError wraps a delivery failure from a specific submitter.
type SubmitError struct {
	Submitter string
	Err       error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit: %s: %s", e.Submitter, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// RejectedError indicates the receiving side refused the record.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submit: rejected (%d): %s", e.StatusCode, e.Message)
}
