// Package events carries the human-readable telemetry stream: short messages
// tagged with a severity that the log file, the TUI and spectators all render.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Severity tags an entry for display
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
	AI
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case AI:
		return "ai"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity as its tag so JSON consumers see "ai" rather than 4.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity from its name.
func (s *Severity) UnmarshalText(text []byte) error {
	for _, v := range []Severity{Info, Success, Warning, Error, AI} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// level maps a severity onto the structured logger.
func (s Severity) level() log.Level {
	switch s {
	case Warning:
		return log.WarnLevel
	case Error:
		return log.ErrorLevel
	case AI:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// Entry is one emitted message
type Entry struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Sink receives telemetry
type Sink interface {
	Emit(severity Severity, message string)
}

// Subscriber is notified of every entry a Log accepts
type Subscriber interface {
	OnEntry(entry Entry)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Entry)

func (f SubscriberFunc) OnEntry(e Entry) { f(e) }

// DefaultHistory is how many entries a Log keeps for late subscribers.
const DefaultHistory = 50

// Log writes entries to a structured logger, keeps a short history and fans
// entries out to subscribers.
type Log struct {
	logger      *log.Logger
	now         func() time.Time
	mu          sync.Mutex
	history     []Entry
	limit       int
	subscribers []Subscriber
}

// NewLog creates a telemetry log backed by logger.
func NewLog(logger *log.Logger) *Log {
	return &Log{
		logger: logger.WithPrefix("events"),
		now:    time.Now,
		limit:  DefaultHistory,
	}
}

// Subscribe adds a subscriber to receive entries
func (l *Log) Subscribe(s Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, s)
}

// Emit records a message. Subscribers are called synchronously in
// subscription order.
func (l *Log) Emit(severity Severity, message string) {
	entry := Entry{Time: l.now(), Severity: severity, Message: message}
	l.logger.Log(severity.level(), message, "severity", severity.String())

	l.mu.Lock()
	l.history = append(l.history, entry)
	if len(l.history) > l.limit {
		l.history = l.history[len(l.history)-l.limit:]
	}
	subs := make([]Subscriber, len(l.subscribers))
	copy(subs, l.subscribers)
	l.mu.Unlock()

	for _, s := range subs {
		s.OnEntry(entry)
	}
}

// History returns the retained entries, oldest first.
func (l *Log) History() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.history))
	copy(out, l.history)
	return out
}

// Clear drops the retained history.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = nil
}

type discard struct{}

func (discard) Emit(Severity, string) {}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}
