package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/game"
)

// Sender is the part of *tea.Program the bridge needs
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards frames and log entries into a running program. The hooks
// run on the producer's goroutine (a local session or a spectator client);
// Send hands the value over to the program's own loop so the model is never
// touched concurrently.
type Bridge struct {
	sender Sender
}

// NewBridge creates a bridge delivering to sender
func NewBridge(sender Sender) *Bridge {
	return &Bridge{sender: sender}
}

// Attach subscribes the bridge to session frames and to the event log.
func (b *Bridge) Attach(session *game.Session, log *events.Log) {
	session.OnFrame(b.Frame)
	if log != nil {
		log.Subscribe(events.SubscriberFunc(b.Entry))
	}
}

// Frame delivers one snapshot to the program.
func (b *Bridge) Frame(f game.Frame) {
	b.sender.Send(FrameMsg(f))
}

// Entry delivers one log entry to the program.
func (b *Bridge) Entry(e events.Entry) {
	b.sender.Send(EntryMsg(e))
}

// Quit asks the program to exit.
func (b *Bridge) Quit() {
	b.sender.Send(QuitMsg{})
}
