// Package client watches a remote match from a spectator server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/server"
)

// Client represents a read-only WebSocket spectator
type Client struct {
	serverURL string
	token     string
	conn      *websocket.Conn
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.RWMutex
	connected bool
	closeOnce sync.Once

	eventHandlers map[server.MessageType][]EventHandler
}

// EventHandler is a function that handles incoming messages
type EventHandler func(*server.Message)

// NewClient creates a new spectator client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		receive:       make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		eventHandlers: make(map[server.MessageType][]EventHandler),
	}
}

// SetToken sets the bearer token presented when connecting.
func (c *Client) SetToken(token string) {
	c.token = token
}

// endpoint turns a server address into the spectator WebSocket URL.
func endpoint(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme", serverURL)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect establishes the WebSocket connection and starts dispatching.
// Handlers should be registered before calling Connect so the first frame is
// not missed.
func (c *Client) Connect(ctx context.Context) error {
	target, err := endpoint(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", target)

	var header http.Header
	if c.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + c.token}}
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.eventProcessor()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = c.conn.Close()
			c.connected = false
		}

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Done is closed once the connection has ended and every received message
// has been dispatched.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// readPump handles incoming messages from the server. Pings from the server
// are answered by the connection's default ping handler.
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		close(c.receive)
	}()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// eventProcessor dispatches messages in arrival order so frames are never
// rendered out of sequence.
func (c *Client) eventProcessor() {
	defer close(c.done)
	for {
		select {
		case msg, ok := <-c.receive:
			if !ok {
				return
			}
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) handleMessage(msg *server.Message) {
	c.mu.RLock()
	handlers := c.eventHandlers[msg.Type]
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.Type)
		return
	}
	for _, handler := range handlers {
		handler(msg)
	}
}

// AddEventHandler adds an event handler for a specific message type
func (c *Client) AddEventHandler(messageType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// OnFrame registers a callback for decoded table snapshots.
func (c *Client) OnFrame(fn func(game.Frame)) {
	c.AddEventHandler(server.MessageTypeFrame, func(msg *server.Message) {
		var f server.FrameData
		if c.decode(msg, &f) {
			fn(f)
		}
	})
}

// OnEvent registers a callback for decoded log entries.
func (c *Client) OnEvent(fn func(events.Entry)) {
	c.AddEventHandler(server.MessageTypeEvent, func(msg *server.Message) {
		var e server.EventData
		if c.decode(msg, &e) {
			fn(events.Entry{Time: e.Time, Severity: e.Severity, Message: e.Message})
		}
	})
}

// OnMatchComplete registers a callback for finished matches.
func (c *Client) OnMatchComplete(fn func(game.Result)) {
	c.AddEventHandler(server.MessageTypeMatchComplete, func(msg *server.Message) {
		var r server.MatchCompleteData
		if c.decode(msg, &r) {
			fn(r)
		}
	})
}

func (c *Client) decode(msg *server.Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.logger.Warn("Dropping malformed message", "type", msg.Type, "error", err)
		return false
	}
	return true
}

// WaitForMessage waits for a specific message type with timeout
func (c *Client) WaitForMessage(messageType server.MessageType, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)

	c.AddEventHandler(messageType, func(msg *server.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	})

	select {
	case msg := <-responseChan:
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}
