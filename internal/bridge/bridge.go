// Package bridge implements the chat-to-command bridge: it owns the turn
// lifecycle from user text through the model call to engine dispatch, and
// reconciles everything into an append-only conversation transcript.
package bridge

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tangentchat/tangent/internal/engine"
	"github.com/tangentchat/tangent/internal/schema"
)

// State is the bridge's turn-lifecycle state.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingModel State = "awaiting_model"
	StateDispatching   State = "dispatching"
	StateFailed        State = "failed"
)

// SettingsFunc supplies the current session configuration. It is called once
// per turn, so the presentation layer can change language or mode between
// turns without touching the bridge.
type SettingsFunc func() schema.SessionConfig

// DefaultTurnTimeout bounds one full turn, model call included. The source
// this design derives from had no deadline at all, which can wedge a session
// in awaiting-model forever; a bounded turn recovers to idle instead.
const DefaultTurnTimeout = 2 * time.Minute

// Option configures a Bridge.
type Option func(*Bridge)

// WithTurnTimeout overrides DefaultTurnTimeout. Zero disables the deadline.
func WithTurnTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.turnTimeout = d }
}

// Bridge runs one conversation. At most one turn is in flight at a time:
// a send while a turn is running is rejected, not queued.
//
// The engine adapter may be nil; the bridge then degrades gracefully (empty
// snapshot, dispatch skipped). The model client is required.
type Bridge struct {
	client      schema.ModelClient
	eng         schema.Engine
	settings    SettingsFunc
	turnTimeout time.Duration

	mu         sync.Mutex
	state      State
	transcript []schema.Turn
	observers  map[int]func()
	nextObsID  int
}

// New creates an idle Bridge with an empty transcript.
func New(client schema.ModelClient, eng schema.Engine, settings SettingsFunc, opts ...Option) *Bridge {
	b := &Bridge{
		client:      client,
		eng:         eng,
		settings:    settings,
		turnTimeout: DefaultTurnTimeout,
		state:       StateIdle,
		observers:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current turn-lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Busy reports whether a turn is in flight.
func (b *Bridge) Busy() bool { return b.State() != StateIdle }

// Turns returns a copy of the transcript.
func (b *Bridge) Turns() []schema.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]schema.Turn, len(b.transcript))
	copy(out, b.transcript)
	return out
}

// Subscribe registers fn to be called after every transcript change.
// The returned function cancels the subscription.
func (b *Bridge) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.nextObsID
	b.nextObsID++
	b.observers[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// Send runs one full turn synchronously: append the user turn, snapshot the
// engine, call the model, dispatch any command batches, and append the
// resulting assistant turns.
//
// Only the two reject conditions surface as errors (ErrEmptyInput and
// ErrTurnInProgress), and in both cases the transcript is untouched. Model
// and dispatch failures are reconciled into the transcript as a generic
// error turn and return nil; the underlying cause goes to the log only.
// The bridge is back in the idle state whenever Send returns.
func (b *Bridge) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return schema.ErrEmptyInput
	}

	b.mu.Lock()
	if b.state != StateIdle {
		b.mu.Unlock()
		return schema.ErrTurnInProgress
	}
	b.state = StateAwaitingModel
	cfg := b.settings()
	b.transcript = append(b.transcript, schema.NewUserTurn(text))
	b.mu.Unlock()
	b.notify()

	loc := ResolveLocale(cfg.Language)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn panicked", "panic", r)
			b.appendTurn(schema.NewAssistantTurn(loc.ErrorReply))
		}
		b.setState(StateIdle)
	}()

	b.runTurn(ctx, text, cfg, loc)
	return nil
}

// runTurn is the body of one turn, after the user turn has been appended.
func (b *Bridge) runTurn(ctx context.Context, text string, cfg schema.SessionConfig, loc Locale) {
	if b.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.turnTimeout)
		defer cancel()
	}

	mode := engine.ResolveMode(cfg.Mode)
	snap := buildSnapshot(ctx, b.eng)

	resp, err := b.client.Respond(ctx, schema.ModelRequest{
		System:   systemInstructions(loc, mode),
		Context:  contextBlock(snap),
		UserText: text,
		Tools:    []schema.ToolDefinition{schema.RunCommandsTool()},
	})
	if err != nil {
		slog.Error("model call failed", "err", err)
		b.setState(StateFailed)
		b.appendTurn(schema.NewAssistantTurn(loc.ErrorReply))
		return
	}

	b.setState(StateDispatching)

	for _, inv := range resp.Invocations {
		// An invocation with no commands is ignored rather than fatal.
		if len(inv.Commands) == 0 {
			continue
		}
		bound := b.dispatch(ctx, inv.Commands)

		record := inv.Explanation
		if record == "" {
			record = loc.ActionFallback
		}
		if mode.PersistentResults {
			record += b.enrichment(ctx, bound)
		}
		b.appendTurn(schema.NewActionTurn(record))
	}

	if resp.Text != "" {
		b.appendTurn(schema.NewAssistantTurn(resp.Text))
	}
	// A response with neither text nor invocations is valid: the turn ends
	// with only the user entry appended.
}

// dispatch sends every command to the engine in order, best-effort: a failed
// command is logged and skipped, later commands still run. Returns the names
// bound by assignment commands that dispatched cleanly. With no engine
// attached, dispatch is skipped entirely.
func (b *Bridge) dispatch(ctx context.Context, commands []string) []string {
	if b.eng == nil {
		slog.Warn("no engine attached, skipping dispatch", "commands", len(commands))
		return nil
	}
	var bound []string
	for _, cmd := range commands {
		if err := b.eng.ExecuteCommand(ctx, cmd); err != nil {
			slog.Warn("command dispatch failed", "command", cmd, "err", err)
			continue
		}
		if name := engine.BoundName(cmd); name != "" {
			bound = append(bound, name)
		}
	}
	return bound
}

// enrichment re-reads newly bound names so the action record can surface the
// computed results. Strictly best-effort: read failures drop the line.
func (b *Bridge) enrichment(ctx context.Context, bound []string) string {
	if b.eng == nil || len(bound) == 0 {
		return ""
	}
	var sb strings.Builder
	seen := make(map[string]bool, len(bound))
	for _, name := range bound {
		if seen[name] {
			continue
		}
		seen[name] = true
		value, err := b.eng.ObjectValue(ctx, name)
		if err != nil || value == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(name)
		sb.WriteString(" = ")
		sb.WriteString(value)
	}
	return sb.String()
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Bridge) appendTurn(t schema.Turn) {
	b.mu.Lock()
	b.transcript = append(b.transcript, t)
	b.mu.Unlock()
	b.notify()
}

// notify calls every observer outside the lock.
func (b *Bridge) notify() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.observers))
	for _, fn := range b.observers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
