package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/signup/internal/form"
	"github.com/smileynet/signup/internal/signup"
)

// LoginState is the state name passed to the mode-switch callback.
const LoginState = "Login"

var fieldOrder = signup.Fields()

// Focusable controls after the text inputs.
var (
	focusEye    = len(fieldOrder)
	focusSubmit = focusEye + 1
	focusLogin  = focusEye + 2
	focusCount  = focusEye + 3
)

var fieldLabels = map[signup.Field]string{
	signup.FieldName:        "Name",
	signup.FieldEmail:       "Email",
	signup.FieldPhoneNumber: "Phone number",
	signup.FieldPassword:    "Password",
}

var fieldPlaceholders = map[signup.Field]string{
	signup.FieldName:        "Your name",
	signup.FieldEmail:       "you@example.com",
	signup.FieldPhoneNumber: "8801234567",
	signup.FieldPassword:    "At least 8 characters",
}

// SubmitResultMsg carries the submitter's answer for one attempt.
type SubmitResultMsg struct {
	Input signup.Input
	Err   error
}

// ActiveStateMsg asks the program to leave the form for another view.
type ActiveStateMsg struct {
	Name string
}

// Model is the Bubble Tea model for the sign-up form.
type Model struct {
	ctrl      *form.Controller
	submitter form.Submitter
	ctx       context.Context

	inputs   []textinput.Model
	bindings []form.Binding
	focus    int

	showPassword  bool
	display       form.ErrorDisplay
	onActiveState func(string)

	// attempted is set after a submit failed validation; edits then
	// re-run the schema so errors clear as they are fixed.
	attempted bool
	submitted int
	status    string

	activeState string
	quitting    bool

	keys formKeys
	help help.Model
}

// ModelOption configures optional Model behavior.
type ModelOption func(*Model)

// WithErrorDisplay sets which fields render their violations.
func WithErrorDisplay(d form.ErrorDisplay) ModelOption {
	return func(m *Model) {
		m.display = d
	}
}

// WithShowPassword sets the initial password visibility.
func WithShowPassword(show bool) ModelOption {
	return func(m *Model) {
		m.showPassword = show
	}
}

// WithActiveStateFunc sets the callback invoked when the user follows the
// Login link.
func WithActiveStateFunc(fn func(string)) ModelOption {
	return func(m *Model) {
		m.onActiveState = fn
	}
}

// WithContext sets the context handed to the submitter.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// NewModel creates a form Model that registers every sign-up field on ctrl
// and submits through s.
func NewModel(ctrl *form.Controller, s form.Submitter, opts ...ModelOption) Model {
	m := Model{
		ctrl:      ctrl,
		submitter: s,
		ctx:       context.Background(),
		display:   form.DefaultErrorDisplay(),
		keys:      FormKeyMap(),
		help:      help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.inputs = make([]textinput.Model, len(fieldOrder))
	m.bindings = make([]form.Binding, len(fieldOrder))
	for i, f := range fieldOrder {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = fieldPlaceholders[f]
		ti.SetValue(ctrl.Value(f))
		m.inputs[i] = ti
		m.bindings[i] = ctrl.Register(f)
	}
	m.applyEcho()
	m.inputs[0].Focus()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and submit results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case SubmitResultMsg:
		return m.finish(msg), nil

	case ActiveStateMsg:
		m.activeState = msg.Name
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.TogglePassword):
		return m.togglePassword(), nil
	case key.Matches(msg, m.keys.Login):
		return m.switchToLogin()
	case key.Matches(msg, m.keys.Next):
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m.moveFocus(-1)
	case key.Matches(msg, m.keys.Enter):
		return m.activate()
	}

	if m.focus >= len(m.inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.bindings[m.focus].Set(m.inputs[m.focus].Value())
	if m.attempted {
		m.ctrl.Revalidate()
	}
	return m, cmd
}

func (m Model) activate() (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusEye:
		return m.togglePassword(), nil
	case focusLogin:
		return m.switchToLogin()
	default:
		return m.submit()
	}
}

func (m Model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Blur()
	}
	m.focus = (m.focus + delta + focusCount) % focusCount
	if m.focus < len(m.inputs) {
		return m, m.inputs[m.focus].Focus()
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	in, err := m.ctrl.Begin()
	if errors.Is(err, form.ErrSubmitting) {
		return m, nil
	}
	m.status = ""
	if err != nil {
		m.attempted = true
		var v signup.Violations
		if !errors.As(err, &v) {
			m.status = err.Error()
		}
		return m, nil
	}

	ctx, s := m.ctx, m.submitter
	return m, func() tea.Msg {
		return SubmitResultMsg{Input: in, Err: s.Submit(ctx, in)}
	}
}

func (m Model) finish(msg SubmitResultMsg) Model {
	m.ctrl.Finish(msg.Err)
	if msg.Err != nil {
		return m
	}
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.attempted = false
	m.submitted++
	m.status = "Account created for " + msg.Input.Email + "."
	return m
}

func (m Model) togglePassword() Model {
	if m.showPassword {
		m.hidePassword()
	} else {
		m.revealPassword()
	}
	m.applyEcho()
	return m
}

func (m *Model) revealPassword() { m.showPassword = true }

func (m *Model) hidePassword() { m.showPassword = false }

func (m *Model) applyEcho() {
	i := indexOf(signup.FieldPassword)
	if m.showPassword {
		m.inputs[i].EchoMode = textinput.EchoNormal
		return
	}
	m.inputs[i].EchoMode = textinput.EchoPassword
	m.inputs[i].EchoCharacter = '•'
}

func (m Model) switchToLogin() (tea.Model, tea.Cmd) {
	if m.onActiveState != nil {
		m.onActiveState(LoginState)
	}
	return m, func() tea.Msg { return ActiveStateMsg{Name: LoginState} }
}

// ShowPassword reports whether the password is rendered in plain text.
func (m Model) ShowPassword() bool { return m.showPassword }

// ActiveState returns the view the user switched to, or "".
func (m Model) ActiveState() string { return m.activeState }

// Submitted returns the number of accepted sign-ups.
func (m Model) Submitted() int { return m.submitted }

// View renders the form.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Create an account"))
	b.WriteString("\n")

	visible := m.display.Visible(m.ctrl.Errors())
	for i, f := range fieldOrder {
		label := labelStyle.Render(fieldLabels[f])
		if m.focus == i {
			label = focusLabel.Render(fieldLabels[f])
		}
		b.WriteString(marker(m.focus == i) + label + "\n")
		b.WriteString("  " + m.inputs[i].View())
		if f == signup.FieldPassword {
			b.WriteString("  " + m.eyeView())
		}
		b.WriteString("\n")
		if msg := visible.First(f); msg != "" {
			b.WriteString(errorStyle.Render(msg) + "\n")
		}
	}
	b.WriteString(mutedStyle.Render("  Forgot your password?") + "\n\n")

	submitting := m.ctrl.Submitting()
	label := "Sign Up"
	if submitting {
		label = "Signing up..."
	}
	b.WriteString(marker(m.focus == focusSubmit) + ButtonStyle(m.focus == focusSubmit, submitting).Render(label) + "\n")

	if err := m.ctrl.SubmitError(); err != nil {
		b.WriteString(errorStyle.Render("Sign up failed: "+err.Error()) + "\n")
	}
	if m.status != "" {
		b.WriteString("  " + doneStyle.Render(m.status) + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render("  Or join with Google · GitHub") + "\n")
	login := linkStyle.Render("Login")
	if m.focus == focusLogin {
		login = linkStyle.Underline(true).Render("Login")
	}
	b.WriteString(marker(m.focus == focusLogin) + mutedStyle.Render("Already have an account? ") + login + "\n\n")

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) eyeView() string {
	icon := "[show]"
	if m.showPassword {
		icon = "[hide]"
	}
	if m.focus == focusEye {
		return focusLabel.Render(icon)
	}
	return mutedStyle.Render(icon)
}

func indexOf(f signup.Field) int {
	for i, g := range fieldOrder {
		if g == f {
			return i
		}
	}
	return -1
}
