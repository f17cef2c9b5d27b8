// Package form holds the state of a sign-up form: field values, the
// violations from the last submit attempt, and the submitting flag that
// serialises attempts.
package form

import (
	"context"
	"errors"
	"sync"

	"github.com/smileynet/signup/internal/signup"
)

// ErrSubmitting is returned when a submit is attempted while another one is
// still in flight.
var ErrSubmitting = errors.New("form: submit already in progress")

// Submitter receives a validated sign-up record. A nil error means the
// record was accepted.
type Submitter interface {
	Submit(ctx context.Context, in signup.Input) error
}

// ValidateFunc turns raw field text into a validated record.
type ValidateFunc func(signup.Draft) (signup.Input, error)

// Controller owns form state. It is safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	validate   ValidateFunc
	order      []signup.Field
	values     map[signup.Field]string
	violations signup.Violations
	submitErr  error
	submitting bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithValidator replaces signup.Validate as the schema check.
func WithValidator(fn ValidateFunc) Option {
	return func(c *Controller) {
		c.validate = fn
	}
}

// New creates a Controller with no registered fields.
func New(opts ...Option) *Controller {
	c := &Controller{
		validate: signup.Validate,
		values:   make(map[signup.Field]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binding pushes input changes for one field into its Controller.
type Binding struct {
	c     *Controller
	field signup.Field
}

// Field returns the bound field.
func (b Binding) Field() signup.Field { return b.field }

// Set stores v as the field's current value.
func (b Binding) Set(v string) { b.c.Set(b.field, v) }

// Value returns the field's current value.
func (b Binding) Value() string { return b.c.Value(b.field) }

// Register makes f part of the form and returns its binding.
// Registering the same field again returns an equivalent binding.
func (c *Controller) Register(f signup.Field) Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[f]; !ok {
		c.values[f] = ""
		c.order = append(c.order, f)
	}
	return Binding{c: c, field: f}
}

// Registered returns the registered fields in registration order.
func (c *Controller) Registered() []signup.Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]signup.Field(nil), c.order...)
}

// Set stores v for f. Unregistered fields are ignored.
func (c *Controller) Set(f signup.Field, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[f]; ok {
		c.values[f] = v
	}
}

// Value returns the current value of f.
func (c *Controller) Value(f signup.Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[f]
}

// Values returns a copy of every registered field's value.
func (c *Controller) Values() map[signup.Field]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[signup.Field]string, len(c.values))
	for f, v := range c.values {
		out[f] = v
	}
	return out
}

// Errors returns the violations from the last failed attempt.
func (c *Controller) Errors() signup.Violations {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.violations.Clone()
}

// SubmitError returns the error from the last failed submit, if any.
func (c *Controller) SubmitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// Submitting reports whether an attempt is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Begin starts a submit attempt. It returns ErrSubmitting while another
// attempt is in flight, or the validation error when the current values are
// invalid. On success the form is marked submitting and the caller must end
// the attempt with Finish.
func (c *Controller) Begin() (signup.Input, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return signup.Input{}, ErrSubmitting
	}

	in, err := c.validate(signup.DraftFrom(c.values))
	if err != nil {
		var v signup.Violations
		if errors.As(err, &v) {
			c.violations = v.Clone()
		}
		return signup.Input{}, err
	}

	c.violations = nil
	c.submitErr = nil
	c.submitting = true
	return in, nil
}

// Finish ends the attempt started by Begin. A nil err resets every field;
// otherwise values are kept and err is recorded as the submit error.
func (c *Controller) Finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitting = false
	if err != nil {
		c.submitErr = err
		return
	}
	c.resetLocked()
}

// Revalidate re-runs the schema on the current values and replaces the stored
// violations without starting an attempt. Used to refresh errors as the user
// edits after a failed submit.
func (c *Controller) Revalidate() signup.Violations {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.violations = nil
	if _, err := c.validate(signup.DraftFrom(c.values)); err != nil {
		var v signup.Violations
		if errors.As(err, &v) {
			c.violations = v.Clone()
		}
	}
	return c.violations.Clone()
}

// HandleSubmit validates the current values and, when they are valid, hands
// the record to s. It blocks until s returns.
func (c *Controller) HandleSubmit(ctx context.Context, s Submitter) error {
	in, err := c.Begin()
	if err != nil {
		return err
	}
	err = s.Submit(ctx, in)
	c.Finish(err)
	return err
}

// Reset clears values, violations and the submit error. It does not end an
// in-flight attempt.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	for f := range c.values {
		c.values[f] = ""
	}
	c.violations = nil
	c.submitErr = nil
}
