package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/carrombot/internal/auth"
	"github.com/lox/carrombot/internal/bot"
	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/randutil"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func startServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	cfg.Logger = testLogger()
	s := NewServer(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Stop()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, s *Server, ts *httptest.Server, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return s.ConnectionCount() == want }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	_, ts := startServer(t, Config{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestSpectatorReceivesFramesAndEvents(t *testing.T) {
	s, ts := startServer(t, Config{})
	conn := dial(t, s, ts, 1)

	s.PublishFrame(game.Frame{MatchID: "abc", HumanScore: 20, Turn: game.Opponent})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeFrame, msg.Type)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &frame))
	assert.Equal(t, "abc", frame["match_id"])
	assert.Equal(t, 20.0, frame["human_score"])
	assert.Equal(t, "Opponent", frame["turn"])

	s.PublishEvent(events.Entry{Time: time.Now(), Severity: events.Success, Message: "Strike!"})
	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeEvent, msg.Type)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &entry))
	assert.Equal(t, "success", entry["severity"])
	assert.Equal(t, "Strike!", entry["message"])
}

func TestLateSpectatorGetsLatestFrame(t *testing.T) {
	s, ts := startServer(t, Config{})

	s.PublishFrame(game.Frame{MatchID: "first"})
	s.PublishFrame(game.Frame{MatchID: "second"})

	conn := dial(t, s, ts, 1)
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeFrame, msg.Type)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &frame))
	assert.Equal(t, "second", frame["match_id"])
}

func TestFrameEveryThrottles(t *testing.T) {
	s, ts := startServer(t, Config{FrameEvery: 3})
	conn := dial(t, s, ts, 1)

	for i := 0; i < 4; i++ {
		s.PublishFrame(game.Frame{Tick: i + 1})
	}

	for _, want := range []float64{1, 4} {
		msg := readMessage(t, conn)
		var frame map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &frame))
		assert.Equal(t, want, frame["tick"])
	}
}

func TestAttachStreamsSession(t *testing.T) {
	s, ts := startServer(t, Config{})
	conn := dial(t, s, ts, 1)

	logger := testLogger()
	eventLog := events.NewLog(logger)
	agent, err := bot.New("sharp", randutil.New(3), logger)
	require.NoError(t, err)
	session, err := game.NewSession(game.Config{
		Agent:  agent,
		Rand:   randutil.New(4),
		Clock:  quartz.NewMock(t),
		Logger: logger,
		Events: eventLog,
	})
	require.NoError(t, err)

	s.Attach(session, eventLog)
	require.NoError(t, session.Step())

	// the step may log events ahead of its frame
	for i := 0; i < 10; i++ {
		if msg := readMessage(t, conn); msg.Type == MessageTypeFrame {
			return
		}
	}
	t.Fatal("no frame received")
}

func TestDisconnectUnregisters(t *testing.T) {
	s, ts := startServer(t, Config{})
	conn := dial(t, s, ts, 1)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// broadcasting with nobody listening is a no-op
	s.PublishEvent(events.Entry{Message: "anyone?"})
}

type unavailableValidator struct{}

func (unavailableValidator) Validate(context.Context, string) (*auth.Identity, error) {
	return nil, fmt.Errorf("%w: down for maintenance", auth.ErrUnavailable)
}

func TestSpectatorAuth(t *testing.T) {
	s, ts := startServer(t, Config{Auth: auth.NewStaticValidator("letmein")})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{"Authorization": []string{"Bearer letmein"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	query, _, err := websocket.DefaultDialer.Dial(url+"?token=letmein", nil)
	require.NoError(t, err)
	defer query.Close()
	require.Eventually(t, func() bool { return s.ConnectionCount() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestSpectatorAuthFailsClosed(t *testing.T) {
	_, ts := startServer(t, Config{Auth: unavailableValidator{}})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": []string{"Bearer x"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
