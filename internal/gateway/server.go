// Package gateway serves the browser-facing websocket endpoints. An applet
// page opens /ws/applet to expose its engine, the chat panel opens /ws/chat
// to exchange messages, and both are tied together by the session query
// parameter.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tangentchat/tangent/internal/bridge"
	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/engine"
	"github.com/tangentchat/tangent/internal/schema"
)

// Server owns the gateway HTTP listener and the per-session state behind it.
type Server struct {
	cfg    *config.Config
	client schema.ModelClient

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*gwSession
}

// gwSession ties one applet connection, its bridge, and any number of chat
// panel connections together under a session id.
type gwSession struct {
	id     string
	engine *AppletEngine
	bridge *bridge.Bridge

	mu         sync.Mutex // guards chat conn set and writes to those conns
	chatConns  map[*websocket.Conn]bool
	mode       string
	lastActive time.Time
}

// NewServer creates a gateway Server.
func NewServer(cfg *config.Config, client schema.ModelClient) *Server {
	return &Server{
		cfg:    cfg,
		client: client,
		upgrader: websocket.Upgrader{
			// The applet page and the gateway run on different origins
			// during local development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*gwSession),
	}
}

// Run serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/applet", s.handleApplet)
	mux.HandleFunc("/ws/chat", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Gateway.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "port", s.cfg.Gateway.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("gateway server: %w", err)
	}
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// PruneIdle drops sessions with no applet, no chat connections, and no
// activity for longer than ttl. Returns how many were removed.
func (s *Server) PruneIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		// Busy and Attached take the bridge's and the engine's own
		// locks. Keep them outside sess.mu so the order stays bridge
		// lock before session lock, matching Send's settings call.
		if sess.bridge.Busy() || sess.engine.Attached() {
			continue
		}
		sess.mu.Lock()
		idle := len(sess.chatConns) == 0 && time.Since(sess.lastActive) > ttl
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.mu.Lock()
	count := len(s.sessions)
	s.mu.Unlock()
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "sessions": count})
}

func (s *Server) handleApplet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session parameter", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("applet upgrade failed", "error", err)
		return
	}
	sess := s.getOrCreate(sessionID)
	sess.engine.Attach(conn)
	slog.Info("applet attached", "session", sessionID)
}

// chatFrame is one JSON message on the chat websocket, in either direction.
type chatFrame struct {
	Type  string        `json:"type"`            // "send", "mode" in; "transcript", "busy", "error" out
	Text  string        `json:"text,omitempty"`  // "send": user message
	Mode  string        `json:"mode,omitempty"`  // "mode": requested engine mode
	Turns []schema.Turn `json:"turns,omitempty"` // "transcript": full transcript
	Busy  bool          `json:"busy"`            // "transcript": a turn is in flight
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session parameter", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("chat upgrade failed", "error", err)
		return
	}
	sess := s.getOrCreate(sessionID)

	sess.mu.Lock()
	sess.chatConns[conn] = true
	sess.mu.Unlock()

	// Push the current transcript so a reconnecting panel catches up, then
	// push again on every transcript change.
	sess.push()
	cancel := sess.bridge.Subscribe(sess.push)

	defer func() {
		cancel()
		sess.mu.Lock()
		delete(sess.chatConns, conn)
		sess.mu.Unlock()
		conn.Close()
	}()

	for {
		var frame chatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			slog.Info("chat connection closed", "session", sessionID, "error", err)
			return
		}
		s.handleChatFrame(sess, conn, frame)
	}
}

func (s *Server) handleChatFrame(sess *gwSession, conn *websocket.Conn, frame chatFrame) {
	sess.mu.Lock()
	sess.lastActive = time.Now()
	sess.mu.Unlock()

	switch frame.Type {
	case "send":
		// The turn can run for minutes; keep the read loop free so the
		// panel can still reconnect or switch modes meanwhile. The turn
		// belongs to the session, not to the panel that submitted it, so
		// it runs under a fresh context and is bounded by the bridge's
		// own turn timeout rather than dying with this connection.
		go func() {
			err := sess.bridge.Send(context.Background(), frame.Text)
			switch {
			case errors.Is(err, schema.ErrTurnInProgress):
				sess.writeTo(conn, chatFrame{Type: "busy", Busy: true})
			case errors.Is(err, schema.ErrEmptyInput):
				sess.writeTo(conn, chatFrame{Type: "error", Text: "empty message"})
			}
		}()
	case "mode":
		if spec := engine.FindMode(frame.Mode); spec != nil {
			sess.mu.Lock()
			sess.mode = spec.Name
			sess.mu.Unlock()
			// Best effort: the applet should follow the switch, but a
			// detached applet picks the mode up when it reconnects.
			go func() {
				if err := sess.engine.SetMode(context.Background(), spec.Name); err != nil &&
					!errors.Is(err, schema.ErrEngineUnavailable) {
					slog.Warn("applet mode switch failed", "session", sess.id, "mode", spec.Name, "error", err)
				}
			}()
		} else {
			sess.writeTo(conn, chatFrame{Type: "error", Text: "unknown mode: " + frame.Mode})
		}
	default:
		sess.writeTo(conn, chatFrame{Type: "error", Text: "unknown frame type: " + frame.Type})
	}
}

// push broadcasts the full transcript to every chat connection.
func (sess *gwSession) push() {
	frame := chatFrame{
		Type:  "transcript",
		Turns: sess.bridge.Turns(),
		Busy:  sess.bridge.Busy(),
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for conn := range sess.chatConns {
		if err := conn.WriteJSON(frame); err != nil {
			slog.Warn("chat push failed", "session", sess.id, "error", err)
		}
	}
}

func (sess *gwSession) writeTo(conn *websocket.Conn, frame chatFrame) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := conn.WriteJSON(frame); err != nil {
		slog.Warn("chat write failed", "session", sess.id, "error", err)
	}
}

func (s *Server) getOrCreate(id string) *gwSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	sess := &gwSession{
		id:         id,
		engine:     NewAppletEngine(time.Duration(s.cfg.Gateway.RPCTimeoutSeconds) * time.Second),
		chatConns:  make(map[*websocket.Conn]bool),
		mode:       engine.ResolveMode(s.cfg.Mode).Name,
		lastActive: time.Now(),
	}
	settings := func() schema.SessionConfig {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return schema.SessionConfig{Language: s.cfg.Language, Mode: sess.mode}
	}
	sess.bridge = bridge.New(s.client, sess.engine, settings,
		bridge.WithTurnTimeout(time.Duration(s.cfg.Turn.TimeoutSeconds)*time.Second))

	s.sessions[id] = sess
	return sess
}
