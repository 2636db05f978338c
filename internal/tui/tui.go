// Package tui is a terminal spectator for a live session: the board, the
// opponent's thinking, the scores and the event log.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
)

// powerBarWidth cells represent powerBarMax on the displayed power scale.
const (
	powerBarWidth = 20
	powerBarMax   = 100.0
)

// FrameMsg carries a new session snapshot into the program
type FrameMsg game.Frame

// EntryMsg carries one event log entry into the program
type EntryMsg events.Entry

// QuitMsg is a custom message to signal quit
type QuitMsg struct{}

// Model is the Bubble Tea model for the spectator view
type Model struct {
	logger *log.Logger

	logViewport viewport.Model
	entries     []string

	frame    game.Frame
	hasFrame bool
	quitting bool

	width       int
	height      int
	initialized bool
}

// NewModel creates a spectator model with an empty board
func NewModel(logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	return &Model{
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case QuitMsg:
		m.quitting = true
		return m, tea.Quit

	case FrameMsg:
		m.frame = game.Frame(msg)
		m.hasFrame = true
		return m, nil

	case EntryMsg:
		m.addEntry(events.Entry(msg))
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			m.logViewport.ScrollUp(1)
		case "down", "j":
			m.logViewport.ScrollDown(1)
		case "home", "g":
			m.logViewport.GotoTop()
		case "end", "G":
			m.logViewport.GotoBottom()
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m *Model) addEntry(e events.Entry) {
	line := fmt.Sprintf("%s %s", e.Time.Format("15:04:05"), severityStyle(e.Severity).Render(e.Message))
	m.entries = append(m.entries, line)
	if len(m.entries) > events.DefaultHistory {
		m.entries = m.entries[len(m.entries)-events.DefaultHistory:]
	}

	m.logViewport.SetContent(strings.Join(m.entries, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the spectator screen
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	boardPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Render(renderBoard(m.frame))

	sidebar := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		Width(36).
		Height(lipgloss.Height(boardPane) - 2).
		Render(m.renderSidebar())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, boardPane, sidebar)

	logWidth := max(lipgloss.Width(topRow)-2, 1)
	logHeight := max(m.height-lipgloss.Height(topRow)-3, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	if !m.initialized && logHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(logHeight).
		Render(m.logViewport.View())

	help := InfoStyle.Render("↑↓ scroll log • q to quit")
	return lipgloss.JoinVertical(lipgloss.Left, topRow, logPane, help)
}

func (m *Model) renderSidebar() string {
	if !m.hasFrame {
		return InfoStyle.Render("Waiting for the table...")
	}
	f := m.frame

	var content strings.Builder
	content.WriteString(HeaderStyle.Render(" Carrom "))
	content.WriteString("\n\n")

	content.WriteString(renderScores(f))
	content.WriteString("\n")
	content.WriteString(renderThinking(f.Thinking, f.Profile))
	content.WriteString("\n")

	content.WriteString(PanelTitleStyle.Render("Record"))
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("  Games: %d  You: %d  AI: %d\n", f.Stats.GamesPlayed, f.Stats.HumanWins, f.Stats.OpponentWins))
	content.WriteString(fmt.Sprintf("  Your win rate: %.0f%%", f.Stats.WinRate()*100))
	return content.String()
}

func renderScores(f game.Frame) string {
	var sb strings.Builder
	sb.WriteString(PanelTitleStyle.Render("Score"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  You (%s): %d\n", f.HumanAgent, f.HumanScore))
	sb.WriteString(fmt.Sprintf("  AI: %d\n", f.OpponentScore))

	turn := SuccessStyle.Render("Your turn")
	if f.Turn == game.Opponent {
		turn = AIStyle.Render("AI's turn")
	}
	sb.WriteString(fmt.Sprintf("  Turn %d · %s (%s)\n", f.TurnNumber, turn, f.Phase))
	return sb.String()
}

func renderThinking(t opponent.ThinkingState, p opponent.Profile) string {
	var sb strings.Builder
	sb.WriteString(PanelTitleStyle.Render("AI"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Mode: %s (%.0f%% confident)\n", p.Label(), p.Confidence*100))

	if !t.InProgress {
		sb.WriteString(InfoStyle.Render("  Waiting"))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %s\n", AIStyle.Render(t.Stage.String())))
	sb.WriteString(fmt.Sprintf("  Gaze: %.0f, %.0f\n", t.Gaze.X, t.Gaze.Y))
	sb.WriteString(fmt.Sprintf("  Power: %s %.0f\n", powerBar(t.Power), t.Power))
	return sb.String()
}

func powerBar(power float64) string {
	filled := int(power / powerBarMax * powerBarWidth)
	filled = clamp(filled, 0, powerBarWidth)
	return "[" + WarningStyle.Render(strings.Repeat("#", filled)) + strings.Repeat("-", powerBarWidth-filled) + "]"
}
