package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/advisor/internal/config"
	"github.com/diogo/advisor/internal/models"
	"github.com/diogo/advisor/internal/orchestrator"
	"github.com/diogo/advisor/internal/render"
	"github.com/diogo/advisor/internal/transcript"
)

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

type (
	animationTickMsg time.Time

	// snapshotMsg carries the transcript after a store mutation
	snapshotMsg struct {
		snap transcript.Snapshot
		ok   bool
	}

	// turnDoneMsg is sent when a submitted turn has been reconciled
	turnDoneMsg struct {
		outcome orchestrator.Outcome
	}
)

// Model is the chat TUI state
type Model struct {
	ctx       context.Context
	orch      *orchestrator.Orchestrator
	snapshots <-chan transcript.Snapshot
	cancelSub func()

	backend  string
	markdown config.MarkdownConfig
	autoCopy bool

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	messages       []models.Message
	pending        bool
	loading        bool
	ready          bool
	alert          string
	feedback       string
	err            error
	animationFrame int

	width  int
	height int
}

// NewChatModel creates the chat model over orch.
// The model subscribes to orch's transcript; call Close when done.
func NewChatModel(ctx context.Context, orch *orchestrator.Orchestrator, cfg config.Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your portfolio..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	store := orch.Transcript()
	snapshots, cancel := store.Subscribe()
	snap := store.Snapshot()

	return Model{
		ctx:       ctx,
		orch:      orch,
		snapshots: snapshots,
		cancelSub: cancel,
		backend:   cfg.Advice.Backend,
		markdown:  cfg.Markdown,
		autoCopy:  cfg.CopyToClipboard,
		textarea:  ta,
		spinner:   s,
		messages:  snap.Messages,
		pending:   snap.Pending,
	}
}

// Close stops the transcript subscription
func (m Model) Close() {
	if m.cancelSub != nil {
		m.cancelSub()
	}
}

// Init starts the cursor blink and the transcript listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		waitForSnapshot(m.snapshots),
	)
}

func waitForSnapshot(ch <-chan transcript.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		return snapshotMsg{snap: snap, ok: ok}
	}
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// runTurn completes the turn off the UI goroutine
func (m Model) runTurn(turn *orchestrator.Turn) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return turnDoneMsg{outcome: turn.Run(ctx)}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 2
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		if m.alert != "" {
			// The alert is modal: nothing else reacts until it is dismissed
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter", "esc":
				m.alert = ""
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if !m.loading {
				return m, tea.Quit
			}

		case "ctrl+y":
			m.copyLastAdvice()
			return m, nil

		case "enter":
			if m.loading {
				return m, nil
			}
			return m.submit()
		}

	case snapshotMsg:
		if !msg.ok {
			return m, nil
		}
		m.messages = msg.snap.Messages
		m.pending = msg.snap.Pending
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForSnapshot(m.snapshots))

	case turnDoneMsg:
		m.loading = m.orch.IsLoading()
		m.textarea.Focus()
		if msg.outcome.Alert != "" {
			m.alert = msg.outcome.Alert
		}
		if msg.outcome.Kind == orchestrator.OutcomeAdvice && m.autoCopy {
			if err := clipboardWrite(msg.outcome.Advice); err != nil {
				m.err = fmt.Errorf("copy to clipboard: %w", err)
			}
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.updateViewport()
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Input is disabled while a turn is in flight
	if !m.loading && m.alert == "" {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles Enter: local commands first, then a new turn
func (m Model) submit() (tea.Model, tea.Cmd) {
	raw := m.textarea.Value()
	input := strings.TrimSpace(raw)

	switch {
	case input == "":
		return m, nil
	case input == "exit" || input == "quit" || input == "/exit" || input == "/quit":
		return m, tea.Quit
	case input == "/export" || strings.HasPrefix(input, "/export "):
		m.textarea.Reset()
		m.exportTranscript(strings.TrimSpace(strings.TrimPrefix(input, "/export")))
		return m, nil
	}

	turn, ok := m.orch.Submit(raw)
	if !ok {
		return m, nil
	}

	m.textarea.Reset()
	m.textarea.Blur()
	m.loading = true
	m.err = nil
	m.feedback = ""
	m.animationFrame = 0

	return m, tea.Batch(
		m.runTurn(turn),
		m.spinner.Tick,
		animationTick(),
	)
}

func (m *Model) copyLastAdvice() {
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if msg.IsUser() || m.isPending(i) {
			continue
		}
		if err := clipboardWrite(msg.Content); err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", err)
			return
		}
		m.err = nil
		m.feedback = "Copied last answer to clipboard"
		return
	}
	m.feedback = "Nothing to copy yet"
}

func (m *Model) exportTranscript(path string) {
	if path == "" {
		m.err = fmt.Errorf("usage: /export <file>")
		return
	}
	snap := m.orch.Transcript().Snapshot()
	if err := os.WriteFile(path, []byte(render.TranscriptMarkdown(snap)), 0o600); err != nil {
		m.err = fmt.Errorf("export transcript: %w", err)
		return
	}
	m.err = nil
	m.feedback = fmt.Sprintf("Exported %d messages to %s", snap.Len(), path)
}

func (m Model) isPending(i int) bool {
	return m.pending && i == len(m.messages)-1
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.alert != "" {
		return m.renderAlert()
	}

	var sections []string
	contentWidth := m.width - 4

	headerParts := []string{
		titleStyle.Render("✦ Advisor"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.backend),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(strings.ToUpper(m.orch.Currency()) + " " + strings.Join(m.orch.Assets(), ", ")),
	}
	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	var messagesContent string
	if len(m.messages) <= 1 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	switch {
	case m.err != nil:
		sections = append(sections, FormatError(m.err))
	case m.feedback != "":
		sections = append(sections, feedbackStyle.Render("  "+m.feedback))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome shows the greeting until the first question is asked
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	greeting := models.GreetingText
	if len(m.messages) == 1 {
		greeting = m.messages[0].Content
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render(greeting),
		"",
		welcomeStyle.Width(width).Render("Ask a question below. Current prices are added to every question."),
		"",
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}
	frame := m.animationFrame

	spin := lipgloss.NewStyle().
		Foreground(gradientColors[frame%len(gradientColors)]).
		Bold(true).
		Render(chars[frame%len(chars)])

	var bar strings.Builder
	for i := 0; i < 20; i++ {
		style := lipgloss.NewStyle().Foreground(gradientColors[(i+frame)%len(gradientColors)])
		bar.WriteString(style.Render(barChars[(i+frame/2)%len(barChars)]))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + m.orch.State().String() + " ")
	return fmt.Sprintf("%s %s %s", spin, bar.String(), text)
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy answer"},
		{"/export", "Save"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func (m Model) renderAlert() string {
	width := m.width - 8
	if width < 30 {
		width = 30
	}
	if width > 72 {
		width = 72
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		alertTitleStyle.Render("⚠ The advisor could not answer"),
		"",
		lipgloss.NewStyle().Foreground(colorText).Width(width-8).Render(m.alert),
		"",
		hintStyle.Render("Press Enter or Esc to dismiss"),
	)
	box := alertBoxStyle.Width(width).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// updateViewport renders the transcript into the viewport
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	opts := render.OptionsFromConfig(m.markdown, bubbleWidth-4)

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			label := userLabelStyle.Render("● You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble + "\n")
			continue
		}

		content.WriteString(advisorLabelStyle.Render("✦ Advisor") + "\n")
		switch {
		case m.isPending(i):
			body := m.spinner.View() + " " + placeholderTextStyle.Render(msg.Content)
			content.WriteString(advisorBubbleStyle.Width(bubbleWidth).Render(body))
		case msg.Content == models.MarketFailureText:
			content.WriteString(apologyBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		default:
			rendered, err := render.Markdown(msg.Content, opts)
			if err != nil {
				rendered = msg.Content
			}
			rendered = strings.TrimRight(rendered, "\n")
			content.WriteString(advisorBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctx context.Context, orch *orchestrator.Orchestrator, cfg config.Config) error {
	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		UpdateTheme()
	}

	m := NewChatModel(ctx, orch, cfg)
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
