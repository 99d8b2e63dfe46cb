// Package tui is the terminal front end for the support chatbot.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"crustdata.com/support-chatbot/internal/core"
)

const Title = "CrustData API support"

// Conversation is the part of core.ChatService the terminal UI drives.
type Conversation interface {
	PostMessage(ctx context.Context, sessionID, content string) (*core.Turn, error)
	Transcript(sessionID string) ([]core.Turn, error)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	flaggedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type replyMsg struct {
	turn *core.Turn
	err  error
}

type model struct {
	ctx       context.Context
	chat      Conversation
	sessionID string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	waiting bool
	pending string
	err     error
	width   int
	height  int
}

func initialModel(ctx context.Context, chat Conversation, sessionID string) *model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about the CrustData API"
	ti.Focus()
	ti.CharLimit = 2000

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &model{
		ctx:       ctx,
		chat:      chat,
		sessionID: sessionID,
		input:     ti,
		viewport:  viewport.New(80, 20),
		spinner:   s,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func askCmd(ctx context.Context, chat Conversation, sessionID, question string) tea.Cmd {
	return func() tea.Msg {
		turn, err := chat.PostMessage(ctx, sessionID, question)
		return replyMsg{turn: turn, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 1)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			question := m.input.Value()
			if m.waiting || strings.TrimSpace(question) == "" {
				return m, nil
			}
			m.waiting = true
			m.pending = question
			m.err = nil
			m.input.Reset()
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.chat, m.sessionID, question))
		}

	case replyMsg:
		m.waiting = false
		m.pending = ""
		m.err = msg.err
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// refresh re-renders the transcript, newest exchange first.
func (m *model) refresh() {
	turns, err := m.chat.Transcript(m.sessionID)
	if err != nil {
		m.err = err
		return
	}

	var b strings.Builder
	if m.pending != "" {
		b.WriteString(userStyle.Render("You: ") + m.pending + "\n\n")
	}
	for _, ex := range core.Exchanges(turns) {
		b.WriteString(userStyle.Render("You: ") + ex.Question.Content + "\n")
		b.WriteString(renderAnswer(ex.Answer.Content) + "\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}

func renderAnswer(answer string) string {
	switch {
	case answer == core.FallbackAnswer:
		return fallbackStyle.Render("Bot: " + answer)
	case strings.HasPrefix(answer, core.HallucinationPrefix):
		return flaggedStyle.Render("Bot: " + answer)
	default:
		return botStyle.Render("Bot: " + answer)
	}
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(Title) + "\n\n")
	b.WriteString(m.input.View() + "\n")
	switch {
	case m.waiting:
		b.WriteString(m.spinner.View() + " Thinking...\n")
	case m.err != nil:
		b.WriteString(fallbackStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(helpStyle.Render("enter: send • esc/ctrl+c: quit"))
	return b.String()
}

// Run starts the terminal chat for one session and blocks until the user
// quits.
func Run(ctx context.Context, chat Conversation, sessionID string) error {
	p := tea.NewProgram(initialModel(ctx, chat, sessionID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
