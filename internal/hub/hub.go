// Package hub connects the chat channels to per-conversation bridges. Each
// session key ("channel:chat_id") gets its own bridge backed by an in-process
// engine, so remote chat users can define and reference named objects even
// though no browser applet is attached.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tangentchat/tangent/internal/bridge"
	"github.com/tangentchat/tangent/internal/bus"
	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/engine"
	"github.com/tangentchat/tangent/internal/schema"
)

// Hub consumes inbound bus messages, runs the matching bridge turn, and
// publishes the newly appended assistant turns outbound.
type Hub struct {
	b      bus.Bus
	client schema.ModelClient
	cfg    *config.Config

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one conversation's bridge plus its private engine.
//
// seen tracks how much of the transcript has already been delivered to the
// channel. The bridge's one-turn gate does not cover the bookkeeping after
// Send returns, and /mode runs without entering the bridge at all, so the
// mutable fields carry their own mutex.
type session struct {
	bridge *bridge.Bridge
	engine *engine.MemoryEngine

	mu         sync.Mutex // guards mode, seen and lastActive
	mode       string
	seen       int
	lastActive time.Time
}

// New creates a Hub.
func New(b bus.Bus, client schema.ModelClient, cfg *config.Config) *Hub {
	return &Hub{
		b:        b,
		client:   client,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Run reads from the inbound bus and processes each message in a goroutine.
// Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	slog.Info("hub started")
	for {
		select {
		case msg := <-h.b.InboundChan():
			go h.handleMessage(ctx, msg)
		case <-ctx.Done():
			slog.Info("hub stopping")
			return ctx.Err()
		}
	}
}

// Sessions returns the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// PruneIdle drops sessions that have been inactive longer than ttl and
// returns how many were removed. Transcripts are in-memory only, so pruning
// discards them by design.
func (h *Hub) PruneIdle(ttl time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for key, sess := range h.sessions {
		// Busy takes the bridge's lock; keep it outside sess.mu so the
		// order stays bridge lock before session lock, matching Send's
		// settings call.
		if sess.bridge.Busy() {
			continue
		}
		sess.mu.Lock()
		idle := time.Since(sess.lastActive) > ttl
		sess.mu.Unlock()
		if idle {
			delete(h.sessions, key)
			n++
		}
	}
	return n
}

func (h *Hub) handleMessage(ctx context.Context, msg bus.InboundMessage) {
	slog.Info("processing message",
		"channel", msg.Channel(),
		"sender", msg.SenderID(),
		"content", truncate(msg.Content(), 80),
	)

	sess := h.getOrCreate(msg.SessionKey())
	loc := bridge.ResolveLocale(h.cfg.Language)

	if reply, handled := h.handleSlashCommand(ctx, msg, sess); handled {
		if reply != "" {
			h.reply(msg, reply)
		}
		return
	}

	err := sess.bridge.Send(ctx, msg.Content())
	switch {
	case errors.Is(err, schema.ErrTurnInProgress):
		// No queuing: the send is dropped, the user is told why.
		h.reply(msg, loc.BusyNotice)
		return
	case errors.Is(err, schema.ErrEmptyInput):
		return
	}

	turns := sess.bridge.Turns()
	sess.mu.Lock()
	fresh := turns[sess.seen:]
	sess.seen = len(turns)
	sess.lastActive = time.Now()
	sess.mu.Unlock()

	var parts []string
	for _, t := range fresh {
		if t.Role == schema.RoleAssistant && t.Text != "" {
			parts = append(parts, t.Text)
		}
	}
	if len(parts) == 0 {
		// A turn with neither prose nor invocations is valid; stay silent.
		return
	}
	h.reply(msg, strings.Join(parts, "\n\n"))
}

// handleSlashCommand checks for a session-control command and runs it.
// Mode switching lives here because the surrounding surface, not the bridge,
// owns the session configuration.
func (h *Hub) handleSlashCommand(ctx context.Context, msg bus.InboundMessage, sess *session) (string, bool) {
	content := strings.TrimSpace(msg.Content())
	cmd, arg, _ := strings.Cut(content, " ")
	switch strings.ToLower(cmd) {
	case "/new":
		h.mu.Lock()
		delete(h.sessions, msg.SessionKey())
		h.mu.Unlock()
		return "New session started.", true
	case "/mode":
		arg = strings.TrimSpace(arg)
		if err := sess.engine.SetMode(ctx, arg); err != nil {
			return "Unknown mode. Available: " + strings.Join(engine.ModeNames(), ", "), true
		}
		spec := engine.ResolveMode(arg)
		sess.mu.Lock()
		sess.mode = spec.Name
		sess.mu.Unlock()
		return "Switched to " + spec.DisplayName + " mode.", true
	case "/help":
		return "tangent commands:\n/new — start a new conversation\n/mode <name> — switch engine mode (" +
			strings.Join(engine.ModeNames(), ", ") + ")\n/help — show this help", true
	}
	return "", false
}

func (h *Hub) reply(msg bus.InboundMessage, content string) {
	out := bus.NewOutboundMessage(msg.Channel(), msg.ChatID(), content)
	out.SetMetadata(msg.Metadata())
	h.b.PublishOutbound(out)
}

func (h *Hub) getOrCreate(key string) *session {
	h.mu.Lock()
	sess, ok := h.sessions[key]
	if !ok {
		sess = &session{
			engine: engine.NewMemoryEngine(h.cfg.Mode),
			mode:   engine.ResolveMode(h.cfg.Mode).Name,
		}
		// The bridge calls settings while holding its own lock, so the
		// closure may take sess.mu but never h.mu or the bridge's lock.
		settings := func() schema.SessionConfig {
			sess.mu.Lock()
			defer sess.mu.Unlock()
			return schema.SessionConfig{Language: h.cfg.Language, Mode: sess.mode}
		}
		sess.bridge = bridge.New(h.client, sess.engine, settings,
			bridge.WithTurnTimeout(time.Duration(h.cfg.Turn.TimeoutSeconds)*time.Second))
		h.sessions[key] = sess
	}
	h.mu.Unlock()

	sess.mu.Lock()
	sess.lastActive = time.Now()
	sess.mu.Unlock()
	return sess
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
