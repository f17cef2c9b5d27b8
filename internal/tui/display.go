package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/signup/internal/form"
	"github.com/smileynet/signup/internal/signup"
)

// LoginCommand typed at any plain prompt switches to the login view.
const LoginCommand = ":login"

// Outcome reports how a form session ended.
type Outcome struct {
	Submitted   bool   // At least one sign-up was accepted.
	ActiveState string // View requested through the Login link, or "".
}

// Display runs the sign-up form until the user leaves it.
type Display interface {
	Run(ctx context.Context) (Outcome, error)
}

// DisplayOptions configures display creation.
type DisplayOptions struct {
	Writer          io.Writer // Output destination (default: os.Stdout).
	Reader          io.Reader // Input source (default: os.Stdin).
	ForcePlain      bool      // Force plain text even if TTY.
	Controller      *form.Controller
	Submitter       form.Submitter
	ErrorDisplay    form.ErrorDisplay
	ShowPassword    bool
	ActiveStateFunc func(string)
}

// NewDisplay returns a TUI display when stdout is a TTY, or a plain text
// display otherwise. ForcePlain overrides TTY detection.
func NewDisplay(opts DisplayOptions) Display {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Reader == nil {
		opts.Reader = os.Stdin
	}
	if opts.Controller == nil {
		opts.Controller = form.New()
	}
	if opts.ErrorDisplay == nil {
		opts.ErrorDisplay = form.DefaultErrorDisplay()
	}

	if opts.ForcePlain || !isTTY(opts.Writer) {
		return &PlainDisplay{opts: opts}
	}
	return &TUIDisplay{opts: opts}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PlainDisplay prompts for each field on its own line.
type PlainDisplay struct {
	opts DisplayOptions
}

var errLogin = errors.New("login requested")

// Run prompts until a sign-up is accepted, input ends, or the user asks for
// the login view. Rejected or invalid attempts are reported and re-prompted.
func (d *PlainDisplay) Run(ctx context.Context) (Outcome, error) {
	var out Outcome
	ctrl := d.opts.Controller
	sc := bufio.NewScanner(d.opts.Reader)

	bindings := make([]form.Binding, len(fieldOrder))
	for i, f := range fieldOrder {
		bindings[i] = ctrl.Register(f)
	}

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		err := d.prompt(sc, bindings)
		if errors.Is(err, errLogin) {
			if d.opts.ActiveStateFunc != nil {
				d.opts.ActiveStateFunc(LoginState)
			}
			out.ActiveState = LoginState
			return out, nil
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}

		if err := ctrl.HandleSubmit(ctx, d.opts.Submitter); err != nil {
			d.report(err)
			continue
		}
		out.Submitted = true
		d.printf("Account created.\n")
		return out, nil
	}
}

// prompt reads one value per field. Values already set are offered as the
// default and kept on an empty answer.
func (d *PlainDisplay) prompt(sc *bufio.Scanner, bindings []form.Binding) error {
	for _, b := range bindings {
		label := fieldLabels[b.Field()]
		if cur := b.Value(); cur != "" && b.Field() != signup.FieldPassword {
			d.printf("%s [%s]: ", label, cur)
		} else {
			d.printf("%s: ", label)
		}

		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fmt.Errorf("reading %s: %w", b.Field(), err)
			}
			return io.EOF
		}
		line := strings.TrimSpace(sc.Text())
		if line == LoginCommand {
			return errLogin
		}
		if line != "" {
			b.Set(line)
		}
	}
	return nil
}

func (d *PlainDisplay) report(err error) {
	var v signup.Violations
	if !errors.As(err, &v) {
		d.printf("Sign up failed: %v\n", err)
		return
	}
	visible := d.opts.ErrorDisplay.Visible(v)
	if len(visible) == 0 {
		d.printf("Please check your details and try again.\n")
		return
	}
	for _, f := range visible.Fields() {
		d.printf("  %s: %s\n", fieldLabels[f], visible.First(f))
	}
}

func (d *PlainDisplay) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(d.opts.Writer, format, args...)
}

// TUIDisplay runs the form as a Bubble Tea program.
// Falls back to PlainDisplay if the TUI program fails to start.
type TUIDisplay struct {
	opts DisplayOptions
}

// Run starts the Bubble Tea program and blocks until the user quits or
// follows the Login link.
func (d *TUIDisplay) Run(ctx context.Context) (Outcome, error) {
	m := NewModel(d.opts.Controller, d.opts.Submitter,
		WithContext(ctx),
		WithErrorDisplay(d.opts.ErrorDisplay),
		WithShowPassword(d.opts.ShowPassword),
		WithActiveStateFunc(d.opts.ActiveStateFunc),
	)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(d.opts.Reader),
		tea.WithOutput(d.opts.Writer),
	)

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		plain := &PlainDisplay{opts: d.opts}
		return plain.Run(ctx)
	}

	fm, ok := final.(Model)
	if !ok {
		return Outcome{}, nil
	}
	return Outcome{Submitted: fm.Submitted() > 0, ActiveState: fm.ActiveState()}, nil
}
