// Package server streams a live session to WebSocket spectators.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/carrombot/internal/auth"
	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/game"
)

// Config holds spectator server settings
type Config struct {
	Addr       string
	FrameEvery int            // forward every nth frame; 1 forwards all
	Auth       auth.Validator // nil lets everyone watch
	Logger     *log.Logger
}

// Server represents the WebSocket server
type Server struct {
	addr       string
	frameEvery int
	auth       auth.Validator
	upgrader   websocket.Upgrader
	logger     *log.Logger

	mu          sync.RWMutex
	connections map[*Connection]bool
	latest      *Message
	frames      int
}

// NewServer creates a new WebSocket server
func NewServer(cfg Config) *Server {
	if cfg.FrameEvery <= 0 {
		cfg.FrameEvery = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Auth == nil {
		cfg.Auth = auth.NewNoopValidator()
	}

	return &Server{
		addr:       cfg.Addr,
		frameEvery: cfg.FrameEvery,
		auth:       cfg.Auth,
		upgrader: websocket.Upgrader{
			// spectators are read-only, any origin may watch
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		connections: make(map[*Connection]bool),
		logger:      cfg.Logger.WithPrefix("server"),
	}
}

// Handler returns the routes: /ws for spectators and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start serves until ctx is cancelled, then closes every spectator.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Stop closes all spectator connections
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
		delete(s.connections, conn)
	}
}

// ConnectionCount returns the number of connected spectators
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// Attach forwards a session's frames and results and an event log's entries
// to every spectator.
func (s *Server) Attach(session *game.Session, eventLog *events.Log) {
	session.OnFrame(s.PublishFrame)
	session.OnMatchComplete(s.PublishResult)
	if eventLog != nil {
		eventLog.Subscribe(events.SubscriberFunc(s.PublishEvent))
	}
}

// PublishFrame broadcasts every FrameEvery-th frame. The newest forwarded
// frame is kept so that late spectators start with the current table.
func (s *Server) PublishFrame(f game.Frame) {
	s.mu.Lock()
	s.frames++
	forward := (s.frames-1)%s.frameEvery == 0
	s.mu.Unlock()
	if !forward {
		return
	}

	msg, err := NewMessage(MessageTypeFrame, FrameData(f))
	if err != nil {
		s.logger.Error("Failed to encode frame", "error", err)
		return
	}

	s.mu.Lock()
	s.latest = msg
	s.mu.Unlock()
	s.Broadcast(msg)
}

// PublishEvent broadcasts one event log entry
func (s *Server) PublishEvent(e events.Entry) {
	s.publish(MessageTypeEvent, EventData{Time: e.Time, Severity: e.Severity, Message: e.Message})
}

// PublishResult broadcasts a finished match
func (s *Server) PublishResult(r game.Result) {
	s.publish(MessageTypeMatchComplete, MatchCompleteData(r))
}

func (s *Server) publish(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		s.logger.Error("Failed to encode message", "type", t, "error", err)
		return
	}
	s.Broadcast(msg)
}

// Broadcast sends a message to every connected spectator
func (s *Server) Broadcast(msg *Message) {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Dropped message for spectator", "type", msg.Type, "error", err)
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, err := s.auth.Validate(r.Context(), auth.TokenFromRequest(r))
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		s.logger.Warn("Rejected spectator", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	case err != nil:
		s.logger.Error("Spectator auth unavailable", "error", err)
		http.Error(w, "auth unavailable", http.StatusServiceUnavailable)
		return
	}
	if id != nil {
		s.logger.Debug("Spectator authenticated", "id", id.SpectatorID, "name", id.Name)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger)

	s.mu.Lock()
	s.connections[client] = true
	latest := s.latest
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Spectator connected", "total", total)

	client.Start()
	if latest != nil {
		_ = client.SendMessage(latest)
	}

	go func() {
		<-client.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Spectator disconnected", "total", total)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
