package tui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/smileynet/signup/internal/form"
	"github.com/smileynet/signup/internal/signup"
)

// --- isTTY ---

func TestIsTTY_NonFileWriter(t *testing.T) {
	var buf bytes.Buffer
	if isTTY(&buf) {
		t.Error("non-*os.File writer should not be a TTY")
	}
}

func TestIsTTY_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	if isTTY(f) {
		t.Error("regular file should not be a TTY")
	}
}

// --- NewDisplay ---

func TestNewDisplay_NonTTYIsPlain(t *testing.T) {
	d := NewDisplay(DisplayOptions{Writer: &bytes.Buffer{}, Submitter: &fakeSubmitter{}})
	if _, ok := d.(*PlainDisplay); !ok {
		t.Errorf("NewDisplay() = %T, want *PlainDisplay", d)
	}
}

func TestNewDisplay_ForcePlain(t *testing.T) {
	d := NewDisplay(DisplayOptions{Writer: os.Stdout, ForcePlain: true, Submitter: &fakeSubmitter{}})
	if _, ok := d.(*PlainDisplay); !ok {
		t.Errorf("NewDisplay(ForcePlain) = %T, want *PlainDisplay", d)
	}
}

// --- PlainDisplay ---

func runPlain(t *testing.T, input string, opts DisplayOptions) (Outcome, string, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Writer = &out
	opts.Reader = strings.NewReader(input)
	opts.ForcePlain = true
	got, err := NewDisplay(opts).Run(context.Background())
	return got, out.String(), err
}

func TestPlainDisplay_ValidSignUp(t *testing.T) {
	s := &fakeSubmitter{}
	got, out, err := runPlain(t, "John Doe\njohn@example.com\n8801234567\npassword123\n",
		DisplayOptions{Submitter: s})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !got.Submitted {
		t.Error("Outcome.Submitted = false, want true")
	}
	if !strings.Contains(out, "Account created.") {
		t.Errorf("output missing confirmation:\n%s", out)
	}
	calls := s.calls()
	if len(calls) != 1 || calls[0].PhoneNumber != 8801234567 {
		t.Errorf("submitter calls = %+v", calls)
	}
}

func TestPlainDisplay_RetryKeepsPreviousAnswers(t *testing.T) {
	s := &fakeSubmitter{}
	input := "John Doe\njohn\n8801234567\npassword123\n" +
		"\njohn@example.com\n\n\n"
	got, out, err := runPlain(t, input, DisplayOptions{Submitter: s})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, "Email: "+signup.MsgEmail) {
		t.Errorf("output missing email violation:\n%s", out)
	}
	if !strings.Contains(out, "Name [John Doe]: ") {
		t.Errorf("second round should offer the previous name:\n%s", out)
	}
	if strings.Contains(out, "[password123]") {
		t.Error("password must not be echoed as a default")
	}
	if !got.Submitted {
		t.Error("Outcome.Submitted = false after corrected retry")
	}
	if calls := s.calls(); len(calls) != 1 || calls[0].Email != "john@example.com" {
		t.Errorf("submitter calls = %+v", calls)
	}
}

func TestPlainDisplay_HiddenViolations(t *testing.T) {
	_, out, err := runPlain(t, "Jo\njohn@example.com\n8801234567\npassword123\n",
		DisplayOptions{Submitter: &fakeSubmitter{}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out, signup.MsgName) {
		t.Error("name violation should be hidden by default")
	}
	if !strings.Contains(out, "Please check your details") {
		t.Errorf("output missing generic notice:\n%s", out)
	}
}

func TestPlainDisplay_AllErrorsShown(t *testing.T) {
	_, out, _ := runPlain(t, "Jo\njohn@example.com\n8801234567\npassword123\n",
		DisplayOptions{Submitter: &fakeSubmitter{}, ErrorDisplay: form.AllErrorDisplay()})
	if !strings.Contains(out, "Name: "+signup.MsgName) {
		t.Errorf("output missing name violation:\n%s", out)
	}
}

func TestPlainDisplay_Login(t *testing.T) {
	var states []string
	s := &fakeSubmitter{}
	got, _, err := runPlain(t, "John\n:login\n", DisplayOptions{
		Submitter:       s,
		ActiveStateFunc: func(st string) { states = append(states, st) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.ActiveState != LoginState {
		t.Errorf("Outcome.ActiveState = %q, want %q", got.ActiveState, LoginState)
	}
	if len(states) != 1 || states[0] != LoginState {
		t.Errorf("callback calls = %v, want [%q]", states, LoginState)
	}
	if len(s.calls()) != 0 {
		t.Error("login must not submit")
	}
}

func TestPlainDisplay_EOFEnds(t *testing.T) {
	got, _, err := runPlain(t, "John Doe\n", DisplayOptions{Submitter: &fakeSubmitter{}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != (Outcome{}) {
		t.Errorf("Outcome = %+v, want zero", got)
	}
}

func TestPlainDisplay_SubmitterFailure(t *testing.T) {
	s := &fakeSubmitter{err: errors.New("email already registered")}
	got, out, err := runPlain(t, "John Doe\njohn@example.com\n8801234567\npassword123\n",
		DisplayOptions{Submitter: s})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Submitted {
		t.Error("Outcome.Submitted = true after rejection")
	}
	if !strings.Contains(out, "Sign up failed: email already registered") {
		t.Errorf("output missing failure:\n%s", out)
	}
}

func TestPlainDisplay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDisplay(DisplayOptions{
		Writer:     &bytes.Buffer{},
		Reader:     strings.NewReader("John Doe\n"),
		ForcePlain: true,
		Submitter:  &fakeSubmitter{},
	})
	if _, err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
