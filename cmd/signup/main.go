package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/smileynet/signup/internal/config"
	"github.com/smileynet/signup/internal/form"
	"github.com/smileynet/signup/internal/logging"
	"github.com/smileynet/signup/internal/signup"
	"github.com/smileynet/signup/internal/submit"
	"github.com/smileynet/signup/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for signup.
type CLI struct {
	Version  kong.VersionFlag `help:"Show version." short:"V"`
	Form     FormCmd          `cmd:"" default:"withargs" help:"Fill in the sign-up form."`
	Validate ValidateCmd      `cmd:"" help:"Check sign-up details without submitting them."`
}

// FormCmd runs the interactive sign-up form.
type FormCmd struct {
	Submitter string `help:"Submitter that receives sign-ups (log, http)."`
	Endpoint  string `help:"URL the http submitter posts to."`
	Timeout   int    `help:"Submit timeout in seconds."`
	NoTUI     bool   `help:"Force plain text prompts even if stdout is a TTY." default:"false"`
	Config    string `help:"Config file applied after the user and project files." type:"path"`
}

// ValidateCmd checks one set of sign-up details against the schema.
type ValidateCmd struct {
	Name     string `help:"Full name."`
	Email    string `help:"Email address."`
	Password string `help:"Password."`
	Phone    string `help:"Phone number."`
}

// errInvalid reports that validate found violations.
var errInvalid = errors.New("sign-up details are invalid")

// loadConfig loads layered config from user, project and explicit paths with
// env overrides.
func loadConfig(extra string) (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/signup/config.yaml"),
		".signup/config.yaml",
		extra,
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies flags that were set onto cfg.
func (f *FormCmd) applyFlags(cfg *config.Config) {
	if f.Submitter != "" {
		cfg.Submit.Submitter = f.Submitter
	}
	if f.Endpoint != "" {
		cfg.Submit.Endpoint = f.Endpoint
	}
	if f.Timeout > 0 {
		cfg.Submit.Timeout = time.Duration(f.Timeout) * time.Second
	}
}

// Run executes the form command.
func (f *FormCmd) Run() error {
	cfg, err := loadConfig(f.Config)
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}
	f.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("form: %w", err)
	}

	// A full-screen UI owns the terminal, so stderr logs wait until it exits.
	var sink io.Writer = os.Stderr
	var deferred *logging.Deferred
	if !f.NoTUI && cfg.Log.File == "" && isatty.IsTerminal(os.Stdout.Fd()) {
		deferred = logging.NewDeferred(os.Stderr)
		sink = deferred
	}
	logger, closeLog, err := logging.Open(cfg.Log.File, cfg.Log.Level, sink)
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}
	defer func() {
		_ = closeLog()
		if deferred != nil {
			_ = deferred.Flush()
		}
	}()

	reg := submit.NewRegistry()
	submit.RegisterBuiltins(reg, submit.BuiltinOptions{
		Endpoint: cfg.Submit.Endpoint,
		Timeout:  cfg.Submit.Timeout,
		Logger:   logger,
	})
	s, err := reg.New(cfg.Submit.Submitter)
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	display := tui.NewDisplay(tui.DisplayOptions{
		Writer:          os.Stdout,
		Reader:          os.Stdin,
		ForcePlain:      f.NoTUI,
		Controller:      form.New(),
		Submitter:       newLoggedSubmitter(s, logger),
		ErrorDisplay:    cfg.ErrorDisplay(),
		ShowPassword:    cfg.Form.ShowPassword,
		ActiveStateFunc: activeStateLogger(logger),
	})
	return f.run(ctx, os.Stdout, display)
}

// run drives display and reports how the session ended.
func (f *FormCmd) run(ctx context.Context, w io.Writer, display tui.Display) error {
	out, err := display.Run(ctx)
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if out.ActiveState != "" {
		_, _ = fmt.Fprintf(w, "Switching to %s.\n", out.ActiveState)
	}
	return nil
}

// Run executes the validate command.
func (v *ValidateCmd) Run() error {
	return v.run(os.Stdout)
}

func (v *ValidateCmd) run(w io.Writer) error {
	_, err := signup.Validate(signup.Draft{
		Name:        v.Name,
		Email:       v.Email,
		Password:    v.Password,
		PhoneNumber: v.Phone,
	})
	var violations signup.Violations
	if errors.As(err, &violations) {
		for _, f := range violations.Fields() {
			for _, msg := range violations.Messages(f) {
				_, _ = fmt.Fprintf(w, "%s: %s\n", f, msg)
			}
		}
		return errInvalid
	}
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	_, _ = fmt.Fprintln(w, "ok")
	return nil
}

var _ form.Submitter = (*loggedSubmitter)(nil)

// loggedSubmitter records the result of every attempt. Passwords are never
// logged.
type loggedSubmitter struct {
	next   submit.Submitter
	logger *zap.Logger
}

func newLoggedSubmitter(s submit.Submitter, logger *zap.Logger) *loggedSubmitter {
	return &loggedSubmitter{next: s, logger: logger}
}

func (l *loggedSubmitter) Submit(ctx context.Context, in signup.Input) error {
	start := time.Now()
	err := l.next.Submit(ctx, in)
	fields := []zap.Field{
		zap.String("submitter", l.next.Name()),
		zap.String("email", in.Email),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.logger.Warn("sign-up failed", append(fields, zap.Error(err))...)
		return err
	}
	l.logger.Info("sign-up accepted", fields...)
	return nil
}

// activeStateLogger returns the mode-switch callback handed to the form.
func activeStateLogger(logger *zap.Logger) func(string) {
	return func(state string) {
		logger.Info("active state requested", zap.String("state", state))
	}
}

const (
	exitSuccess = 0
	exitInvalid = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, errInvalid) {
		return exitInvalid
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("signup"),
		kong.Description("Create an account from the terminal."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
