// Package tui is the interactive terminal front end for editing a campaign.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"campaign-console/internal/form"
	"campaign-console/internal/request"
)

// Canceler aborts the form's in-flight request.
type Canceler interface {
	Cancel(message string)
}

// TokenSetter stores a freshly entered user token.
type TokenSetter interface {
	SetUserToken(ctx context.Context, token string) error
}

// StateMsg carries a fetcher state change into the program.
type StateMsg request.State

// AuthRequiredMsg asks the model to show the token prompt.
type AuthRequiredMsg struct{}

type submitDoneMsg struct {
	state request.State
	err   error
}

type tokenSetMsg struct{ err error }

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	modalStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).
			BorderForeground(lipgloss.Color("11"))
)

type Model struct {
	ctx     context.Context
	form    *form.Form
	cancel  Canceler
	session TokenSetter

	name    textinput.Model
	token   textinput.Model
	spinner spinner.Model

	state      request.State
	authPrompt bool
	message    string
	quitting   bool
}

func New(ctx context.Context, f *form.Form, c Canceler, s TokenSetter) Model {
	name := textinput.New()
	name.Placeholder = "campaign name"
	name.SetValue(f.Campaign().Name())
	name.Focus()

	token := textinput.New()
	token.Placeholder = "paste bearer token"
	token.EchoMode = textinput.EchoPassword

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{ctx: ctx, form: f, cancel: c, session: s, name: name, token: token, spinner: sp}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.authPrompt {
			return m.updatePrompt(msg)
		}
		return m.updateForm(msg)

	case StateMsg:
		wasLoading := m.state.Loading()
		m.state = request.State(msg)
		if m.state.Loading() && !wasLoading {
			return m, m.spinner.Tick
		}
		return m, nil

	case submitDoneMsg:
		m.state = msg.state
		switch {
		case msg.err == nil:
			m.name.SetValue(m.form.Campaign().Name())
			m.message = okStyle.Render("saved")
		case request.IsCancel(msg.err):
			m.message = hintStyle.Render(msg.err.Error())
		default:
			m.message = errStyle.Render(msg.err.Error())
		}
		return m, nil

	case AuthRequiredMsg:
		m.authPrompt = true
		m.name.Blur()
		m.token.Reset()
		return m, m.token.Focus()

	case tokenSetMsg:
		if msg.err != nil {
			m.message = errStyle.Render(msg.err.Error())
			return m, nil
		}
		m.authPrompt = false
		m.token.Blur()
		m.message = okStyle.Render("signed in")
		return m, m.name.Focus()

	case spinner.TickMsg:
		if !m.state.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+x":
		m.cancel.Cancel(request.DefaultCancelMessage)
		return m, nil
	case "enter":
		if m.state.Loading() {
			return m, nil
		}
		m.form.SetName(strings.TrimSpace(m.name.Value()))
		m.state = request.State{Status: request.StatusLoading, Data: m.state.Data}
		m.message = ""
		return m, tea.Batch(m.spinner.Tick, m.submit())
	}
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.authPrompt = false
		m.token.Blur()
		return m, m.name.Focus()
	case "enter":
		tok := strings.TrimSpace(m.token.Value())
		if tok == "" {
			return m, nil
		}
		return m, m.setToken(tok)
	}
	var cmd tea.Cmd
	m.token, cmd = m.token.Update(msg)
	return m, cmd
}

func (m Model) submit() tea.Cmd {
	f, ctx := m.form, m.ctx
	return func() tea.Msg {
		st, err := f.Submit(ctx)
		return submitDoneMsg{state: st, err: err}
	}
}

func (m Model) setToken(tok string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return tokenSetMsg{err: s.SetUserToken(ctx, tok)}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	id := m.form.Campaign().ID()
	b.WriteString(titleStyle.Render(fmt.Sprintf("Campaign %s", id)))
	b.WriteString("\n\n")
	b.WriteString(m.name.View())
	b.WriteString("\n\n")

	status := m.state.Status.String()
	if m.state.Loading() {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(hintStyle.Render("status: ") + status)
	if m.message != "" {
		b.WriteString("\n" + m.message)
	}
	b.WriteString("\n\n")

	if m.authPrompt {
		b.WriteString(modalStyle.Render("Authentication required\n\n" + m.token.View() +
			"\n\n" + hintStyle.Render("enter: sign in • esc: dismiss")))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(hintStyle.Render("enter: save • ctrl+x: cancel request • esc: quit"))
	b.WriteString("\n")
	return b.String()
}
