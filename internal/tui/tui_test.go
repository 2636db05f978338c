package tui

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/bot"
	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/physics"
	"github.com/lox/carrombot/internal/randutil"
	"github.com/lox/carrombot/internal/vec"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func testFrame() game.Frame {
	return game.Frame{
		MatchID:       "0abc",
		Turn:          game.Opponent,
		Phase:         game.Thinking,
		TurnNumber:    4,
		HumanScore:    40,
		OpponentScore: 30,
		HumanAgent:    "sharp",
		Geometry:      board.DefaultGeometry(),
		Bodies: []physics.Body{
			{ID: 1, Kind: board.Striker, Position: vec.New(400, 140)},
			{ID: 2, Kind: board.Queen, Position: vec.New(400, 400)},
			{ID: 3, Kind: board.Light, Position: vec.New(200, 600)},
		},
		Thinking: opponent.ThinkingState{
			Gaze:       vec.New(600, 300),
			Power:      50,
			InProgress: true,
			Stage:      opponent.Charging,
		},
		Profile: opponent.DeriveProfile(opponent.Statistics{}),
		Stats:   opponent.Statistics{GamesPlayed: 2, HumanWins: 1, OpponentWins: 1},
	}
}

func TestRenderBoardPlacesPieces(t *testing.T) {
	lines := strings.Split(ansi.Strip(renderBoard(testFrame())), "\n")
	require.Len(t, lines, boardRows)
	for _, l := range lines {
		assert.Equal(t, boardCols, len([]rune(l)))
	}

	at := func(row, col int) rune { return []rune(lines[row])[col] }
	assert.Equal(t, 'O', at(1, 2), "top-left pocket")
	assert.Equal(t, 'S', at(3, 20))
	assert.Equal(t, 'Q', at(10, 20))
	assert.Equal(t, 'o', at(15, 10))
	assert.Equal(t, '+', at(7, 30), "gaze is drawn while thinking")
	assert.Equal(t, '-', at(16, 8), "human baseline")
}

func TestRenderBoardHidesGazeWhenIdle(t *testing.T) {
	f := testFrame()
	f.Thinking.InProgress = false
	assert.NotContains(t, ansi.Strip(renderBoard(f)), "+")
}

func TestModelView(t *testing.T) {
	m := NewModel(testLogger())
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Contains(t, ansi.Strip(m.View()), "Waiting for the table")

	m.Update(FrameMsg(testFrame()))
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "You (sharp): 40")
	assert.Contains(t, view, "AI: 30")
	assert.Contains(t, view, "charging")
	assert.Contains(t, view, "Standard (70% confident)")
	assert.Contains(t, view, "Your win rate: 50%")
}

func TestModelLogsEntries(t *testing.T) {
	m := NewModel(testLogger())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	m.Update(EntryMsg(events.Entry{Time: now, Severity: events.Success, Message: "Strike!"}))
	for i := 0; i < events.DefaultHistory+5; i++ {
		m.Update(EntryMsg(events.Entry{Time: now, Severity: events.Info, Message: "tick"}))
	}

	assert.Len(t, m.entries, events.DefaultHistory)
	assert.NotContains(t, strings.Join(m.entries, "\n"), "Strike!", "oldest entries roll off")
	assert.Equal(t, "15:04:05 tick", ansi.Strip(m.entries[0]))
}

func TestModelQuits(t *testing.T) {
	for _, msg := range []tea.Msg{QuitMsg{}, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}} {
		m := NewModel(testLogger())
		_, cmd := m.Update(msg)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, m.View())
	}
}

func TestPowerBar(t *testing.T) {
	assert.Equal(t, "[--------------------]", ansi.Strip(powerBar(0)))
	assert.Equal(t, "[##########----------]", ansi.Strip(powerBar(50)))
	assert.Equal(t, "[####################]", ansi.Strip(powerBar(250)))
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestBridgeForwardsFramesAndEntries(t *testing.T) {
	logger := testLogger()
	eventLog := events.NewLog(logger)

	agent, err := bot.New("steady", randutil.New(1), logger)
	require.NoError(t, err)
	session, err := game.NewSession(game.Config{
		Agent:  agent,
		Rand:   randutil.New(2),
		Clock:  quartz.NewMock(t),
		Logger: logger,
		Events: eventLog,
	})
	require.NoError(t, err)

	sender := &recordingSender{}
	bridge := NewBridge(sender)
	bridge.Attach(session, eventLog)

	require.NoError(t, session.Step())
	eventLog.Emit(events.Warning, "Careful")
	bridge.Quit()

	var frames, entries, quits int
	for _, msg := range sender.msgs {
		switch msg := msg.(type) {
		case FrameMsg:
			frames++
			assert.Equal(t, "steady", msg.HumanAgent)
		case EntryMsg:
			entries++
		case QuitMsg:
			quits++
		}
	}
	assert.Equal(t, 1, frames)
	assert.GreaterOrEqual(t, entries, 1)
	assert.Equal(t, 1, quits)
}
