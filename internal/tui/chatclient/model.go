// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     chatclient
// Description: Bubbletea chat running the command processor in-process
// License:     MIT
// ============================================================================

package chatclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/version"
)

// Config holds chat client configuration
type Config struct {
	Processor *interpreter.Processor
	// Author is the member the local user chats as
	Author  interpreter.Member
	Channel string
	// HistoryFile persists input history; empty disables persistence
	HistoryFile string
}

// Model is the main Bubbletea model for the chat client
type Model struct {
	width   int
	height  int
	ready   bool
	loading bool

	// showDetails toggles the interpretation footer under bot messages
	showDetails bool

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	messages []ChatMessage

	inputHistory []string
	historyIndex int    // -1 while not navigating
	currentInput string // input saved when navigation starts

	processor   *interpreter.Processor
	author      interpreter.Member
	channel     string
	historyFile string
}

// New creates a new chat client model
func New(cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Skriv ett meddelande, t.ex. !vad är det för lunch idag?"
	ta.Focus()
	ta.CharLimit = 2000
	ta.SetWidth(80)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	author := cfg.Author
	if author.ID == "" {
		author.ID = "local"
	}
	if author.Name == "" {
		author.Name = author.ID
	}

	return Model{
		textarea:     ta,
		spinner:      sp,
		showDetails:  true,
		inputHistory: LoadInputHistory(cfg.HistoryFile),
		historyIndex: -1,
		processor:    cfg.Processor,
		author:       author,
		channel:      cfg.Channel,
		historyFile:  cfg.HistoryFile,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 7
		viewportHeight := msg.Height - headerHeight - footerHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.textarea.SetWidth(msg.Width - 4)
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case interpretedMsg:
		m.loading = false
		if msg.err != nil {
			m.messages = append(m.messages, ChatMessage{
				Role:      "error",
				Content:   "Fel: " + msg.err.Error(),
				Timestamp: time.Now(),
			})
		}
		if msg.content != "" {
			m.messages = append(m.messages, ChatMessage{
				Role:        "bot",
				Content:     msg.content,
				Timestamp:   time.Now(),
				Duration:    msg.duration,
				Pronouns:    msg.pronouns,
				Category:    msg.category,
				Subcategory: msg.subcategory,
			})
		}
		m.updateViewportContent()
		m.viewport.GotoBottom()
	}

	if !m.loading {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+l":
		m.messages = nil
		m.updateViewportContent()
		return m, nil

	case "ctrl+d":
		m.showDetails = !m.showDetails
		m.updateViewportContent()
		return m, nil
	}

	if m.loading {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" {
			return m, nil
		}
		m.remember(input)

		m.messages = append(m.messages, ChatMessage{
			Role:      "user",
			Content:   input,
			Timestamp: time.Now(),
		})
		m.textarea.Reset()
		m.updateViewportContent()
		m.viewport.GotoBottom()

		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.interpret(input))

	case tea.KeyUp:
		if len(m.inputHistory) > 0 {
			if m.historyIndex == -1 {
				m.currentInput = m.textarea.Value()
				m.historyIndex = len(m.inputHistory) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}
			m.textarea.SetValue(m.inputHistory[m.historyIndex])
			m.textarea.CursorEnd()
		}
		return m, nil

	case tea.KeyDown:
		if m.historyIndex != -1 {
			if m.historyIndex < len(m.inputHistory)-1 {
				m.historyIndex++
				m.textarea.SetValue(m.inputHistory[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.textarea.SetValue(m.currentInput)
			}
			m.textarea.CursorEnd()
		}
		return m, nil

	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// remember appends input to the history unless it repeats the last entry
func (m *Model) remember(input string) {
	if len(m.inputHistory) == 0 || m.inputHistory[len(m.inputHistory)-1] != input {
		m.inputHistory = append(m.inputHistory, input)
		if len(m.inputHistory) > maxHistory {
			m.inputHistory = m.inputHistory[len(m.inputHistory)-maxHistory:]
		}
		_ = SaveInputHistory(m.historyFile, m.inputHistory)
	}
	m.historyIndex = -1
	m.currentInput = ""
}

// interpret runs the processor and the resolved response off the UI loop
func (m Model) interpret(input string) tea.Cmd {
	processor := m.processor
	author := m.author
	channel := m.channel
	return func() tea.Msg {
		start := time.Now()
		msg := interpreter.NewMessage(input, author)
		msg.ChannelID = channel

		in := processor.Process(msg)
		text, err := in.Respond()
		if err == nil {
			err = in.Err()
		}
		return interpretedMsg{
			content:     text,
			pronouns:    in.Pronouns().String(),
			category:    in.Category().String(),
			subcategory: in.Subcategory().String(),
			duration:    time.Since(start),
			err:         err,
		}
	}
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Startar chatten..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(ChatPanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderInputArea())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	header := LogoStyle.Render(Logo) + "   " + HelpDescStyle.Render(fmt.Sprintf("%d funktioner", len(m.processor.Features())))
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

func (m Model) renderInputArea() string {
	input := m.textarea.View()
	if m.loading {
		input = m.spinner.View() + ThinkingStyle.Render(" Tänker...")
	}
	return InputStyle.Width(m.width - 2).Render(input)
}

func (m Model) renderStatusBar() string {
	left := StatusOnStyle.Render(m.author.Name)
	if m.channel != "" {
		left += HelpDescStyle.Render(" #" + m.channel)
	}
	right := HelpDescStyle.Render("v" + version.Platform)

	space := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if space < 1 {
		space = 1
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", space) + right)
}

func (m Model) renderHelpBar() string {
	details := "visa tolkning"
	if m.showDetails {
		details = "dölj tolkning"
	}
	items := []string{
		RenderKeyHint("Enter", "skicka"),
		RenderKeyHint("↑/↓", "historik"),
		RenderKeyHint("Ctrl+D", details),
		RenderKeyHint("Ctrl+L", "rensa"),
		RenderKeyHint("Ctrl+C", "avsluta"),
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

// interpretationLine formats the footer shown under bot messages
func interpretationLine(msg ChatMessage) string {
	return fmt.Sprintf("%s / %s  %s  %.1fms", msg.Category, msg.Subcategory, msg.Pronouns, float64(msg.Duration.Microseconds())/1000)
}

// updateViewportContent updates the viewport with current messages
func (m *Model) updateViewportContent() {
	var content strings.Builder
	width := m.width - 6
	if width < 10 {
		width = 10
	}

	for _, msg := range m.messages {
		timeStr := HelpDescStyle.Render(msg.Timestamp.Format("15:04"))
		switch msg.Role {
		case "user":
			content.WriteString(RoleLabelUserStyle.Render(m.author.Name) + "  " + timeStr + "\n")
			content.WriteString(UserMessageStyle.Width(width).Render(msg.Content))
			content.WriteString("\n")

		case "bot":
			content.WriteString(RoleLabelBotStyle.Render("robbot") + "  " + timeStr + "\n")
			content.WriteString(BotMessageStyle.Width(width).Render(msg.Content))
			content.WriteString("\n")
			if m.showDetails {
				content.WriteString(InterpretationStyle.Render(interpretationLine(msg)))
				content.WriteString("\n")
			}

		case "error":
			content.WriteString(ErrorMessageStyle.Render(msg.Content))
			content.WriteString("\n")

		default:
			content.WriteString(SystemMessageStyle.Render(msg.Content))
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// Run starts the chat client
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
