package form

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/smileynet/signup/internal/signup"
)

// recordingSubmitter captures every Input it receives.
type recordingSubmitter struct {
	mu      sync.Mutex
	got     []signup.Input
	err     error
	block   chan struct{} // If set, Submit waits for it to close.
	entered chan struct{} // If set, closed on the first Submit.
}

func (r *recordingSubmitter) Submit(ctx context.Context, in signup.Input) error {
	r.mu.Lock()
	r.got = append(r.got, in)
	if r.entered != nil && len(r.got) == 1 {
		close(r.entered)
	}
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return r.err
}

func (r *recordingSubmitter) calls() []signup.Input {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]signup.Input(nil), r.got...)
}

func newSignupForm() *Controller {
	c := New()
	for _, f := range signup.Fields() {
		c.Register(f)
	}
	return c
}

func fillValid(c *Controller) {
	c.Set(signup.FieldName, "John Doe")
	c.Set(signup.FieldEmail, "john@example.com")
	c.Set(signup.FieldPassword, "password123")
	c.Set(signup.FieldPhoneNumber, "8801234567")
}

func TestRegister_BindingPushesValues(t *testing.T) {
	c := New()
	b := c.Register(signup.FieldEmail)
	b.Set("john@example.com")

	if got := c.Value(signup.FieldEmail); got != "john@example.com" {
		t.Errorf("Value(email) = %q, want %q", got, "john@example.com")
	}
	if got := b.Value(); got != "john@example.com" {
		t.Errorf("binding Value() = %q, want %q", got, "john@example.com")
	}
	if b.Field() != signup.FieldEmail {
		t.Errorf("binding Field() = %q, want %q", b.Field(), signup.FieldEmail)
	}
}

func TestRegister_TwiceKeepsValueAndOrder(t *testing.T) {
	c := New()
	c.Register(signup.FieldName).Set("Joe")
	c.Register(signup.FieldEmail)
	c.Register(signup.FieldName)

	if got := c.Value(signup.FieldName); got != "Joe" {
		t.Errorf("Value(name) = %q, want %q", got, "Joe")
	}
	got := c.Registered()
	want := []signup.Field{signup.FieldName, signup.FieldEmail}
	if len(got) != len(want) {
		t.Fatalf("Registered() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Registered()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSet_UnregisteredFieldIgnored(t *testing.T) {
	c := New()
	c.Set(signup.FieldName, "Joe")
	if got := c.Value(signup.FieldName); got != "" {
		t.Errorf("Value(name) = %q, want empty for unregistered field", got)
	}
	if len(c.Values()) != 0 {
		t.Errorf("Values() = %v, want empty", c.Values())
	}
}

func TestHandleSubmit_ValidInputForwardedAndReset(t *testing.T) {
	c := newSignupForm()
	fillValid(c)
	s := &recordingSubmitter{}

	if err := c.HandleSubmit(context.Background(), s); err != nil {
		t.Fatalf("HandleSubmit() error = %v", err)
	}

	calls := s.calls()
	if len(calls) != 1 {
		t.Fatalf("submitter called %d times, want 1", len(calls))
	}
	want := signup.Input{
		Name:        "John Doe",
		Email:       "john@example.com",
		Password:    "password123",
		PhoneNumber: 8801234567,
	}
	if calls[0] != want {
		t.Errorf("submitted %+v, want %+v", calls[0], want)
	}
	for f, v := range c.Values() {
		if v != "" {
			t.Errorf("after success %s = %q, want empty", f, v)
		}
	}
	if c.Submitting() {
		t.Error("Submitting() = true after completion")
	}
	if len(c.Errors()) != 0 {
		t.Errorf("Errors() = %v, want none", c.Errors())
	}
}

func TestHandleSubmit_InvalidInputBlocked(t *testing.T) {
	tests := []struct {
		name  string
		field signup.Field
		value string
		want  string
	}{
		{name: "short name", field: signup.FieldName, value: "Jo", want: signup.MsgName},
		{name: "bad email", field: signup.FieldEmail, value: "john", want: signup.MsgEmail},
		{name: "short password", field: signup.FieldPassword, value: "pass", want: signup.MsgPassword},
		{name: "small phone", field: signup.FieldPhoneNumber, value: "10", want: signup.MsgPhoneNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newSignupForm()
			fillValid(c)
			c.Set(tt.field, tt.value)
			s := &recordingSubmitter{}

			err := c.HandleSubmit(context.Background(), s)

			var v signup.Violations
			if !errors.As(err, &v) {
				t.Fatalf("HandleSubmit() error = %v, want Violations", err)
			}
			if len(s.calls()) != 0 {
				t.Error("submitter must not be called for invalid input")
			}
			if got := c.Errors().First(tt.field); got != tt.want {
				t.Errorf("Errors()[%s] = %q, want %q", tt.field, got, tt.want)
			}
			if got := c.Value(tt.field); got != tt.value {
				t.Errorf("value after failed validation = %q, want %q kept", got, tt.value)
			}
			if c.Submitting() {
				t.Error("Submitting() = true after validation failure")
			}
		})
	}
}

func TestHandleSubmit_SubmitterFailureKeepsValues(t *testing.T) {
	c := newSignupForm()
	fillValid(c)
	rejected := errors.New("email already exists")
	s := &recordingSubmitter{err: rejected}

	err := c.HandleSubmit(context.Background(), s)
	if !errors.Is(err, rejected) {
		t.Fatalf("HandleSubmit() error = %v, want %v", err, rejected)
	}
	if !errors.Is(c.SubmitError(), rejected) {
		t.Errorf("SubmitError() = %v, want %v", c.SubmitError(), rejected)
	}
	if got := c.Value(signup.FieldEmail); got != "john@example.com" {
		t.Errorf("email after failed submit = %q, want kept", got)
	}
	if c.Submitting() {
		t.Error("Submitting() = true after failed submit")
	}

	// A later successful attempt clears the submit error.
	s.err = nil
	if err := c.HandleSubmit(context.Background(), s); err != nil {
		t.Fatalf("second HandleSubmit() error = %v", err)
	}
	if c.SubmitError() != nil {
		t.Errorf("SubmitError() = %v after success, want nil", c.SubmitError())
	}
}

func TestHandleSubmit_InFlightAttemptBlocksOthers(t *testing.T) {
	c := newSignupForm()
	fillValid(c)
	s := &recordingSubmitter{block: make(chan struct{}), entered: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		done <- c.HandleSubmit(context.Background(), s)
	}()
	<-s.entered

	if !c.Submitting() {
		t.Fatal("Submitting() = false while submit in flight")
	}

	var rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.HandleSubmit(context.Background(), s); errors.Is(err, ErrSubmitting) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := rejected.Load(); got != 5 {
		t.Errorf("rejected concurrent submits = %d, want 5", got)
	}
	if got := len(s.calls()); got != 1 {
		t.Errorf("submitter called %d times while in flight, want 1", got)
	}

	close(s.block)
	if err := <-done; err != nil {
		t.Fatalf("first HandleSubmit() error = %v", err)
	}
	if c.Submitting() {
		t.Error("Submitting() = true after attempt resolved")
	}
}

func TestBegin_WhileSubmittingLeavesStateAlone(t *testing.T) {
	c := newSignupForm()
	fillValid(c)
	if _, err := c.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	c.Set(signup.FieldName, "Jo")
	if _, err := c.Begin(); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("second Begin() error = %v, want ErrSubmitting", err)
	}
	if len(c.Errors()) != 0 {
		t.Errorf("Errors() = %v, want none while submitting", c.Errors())
	}

	c.Finish(nil)
	if c.Value(signup.FieldName) != "" {
		t.Errorf("name = %q after Finish(nil), want empty", c.Value(signup.FieldName))
	}
}

func TestBegin_ClearsPreviousViolations(t *testing.T) {
	c := newSignupForm()
	if _, err := c.Begin(); err == nil {
		t.Fatal("Begin() on empty form should fail validation")
	}
	if len(c.Errors()) != 4 {
		t.Fatalf("Errors() has %d fields, want 4", len(c.Errors()))
	}

	fillValid(c)
	if _, err := c.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if len(c.Errors()) != 0 {
		t.Errorf("Errors() = %v after valid Begin, want none", c.Errors())
	}
}

func TestRevalidate(t *testing.T) {
	c := newSignupForm()
	fillValid(c)
	c.Set(signup.FieldEmail, "john")

	v := c.Revalidate()
	if v.First(signup.FieldEmail) != signup.MsgEmail {
		t.Errorf("Revalidate() email = %q, want %q", v.First(signup.FieldEmail), signup.MsgEmail)
	}
	if c.Submitting() {
		t.Error("Revalidate() must not start an attempt")
	}

	c.Set(signup.FieldEmail, "john@example.com")
	if v := c.Revalidate(); len(v) != 0 {
		t.Errorf("Revalidate() = %v after fix, want none", v)
	}
	if len(c.Errors()) != 0 {
		t.Errorf("Errors() = %v after fix, want none", c.Errors())
	}
}

func TestWithValidator(t *testing.T) {
	boom := errors.New("schema unavailable")
	c := New(WithValidator(func(signup.Draft) (signup.Input, error) {
		return signup.Input{}, boom
	}))
	c.Register(signup.FieldName)

	_, err := c.Begin()
	if !errors.Is(err, boom) {
		t.Fatalf("Begin() error = %v, want %v", err, boom)
	}
	if c.Errors() != nil {
		t.Errorf("Errors() = %v, want nil for non-validation failure", c.Errors())
	}
}

func TestReset(t *testing.T) {
	c := newSignupForm()
	c.Set(signup.FieldName, "Jo")
	_, _ = c.Begin()
	c.Reset()

	if c.Value(signup.FieldName) != "" {
		t.Errorf("name = %q after Reset, want empty", c.Value(signup.FieldName))
	}
	if len(c.Errors()) != 0 {
		t.Errorf("Errors() = %v after Reset, want none", c.Errors())
	}
}
