package channels

import (
	"context"
	"log/slog"

	"github.com/tangentchat/tangent/internal/bus"
	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/schema"
)

// Manager owns all enabled channels and routes outbound messages to them.
type Manager struct {
	channels map[string]schema.Channel
	b        bus.Bus
}

// NewManager creates a Manager and initialises all enabled channels.
func NewManager(cfg *config.Config, b bus.Bus) *Manager {
	m := &Manager{
		channels: make(map[string]schema.Channel),
		b:        b,
	}

	if cfg.Channels.Telegram.Enabled {
		ch := NewTelegramChannel(&cfg.Channels.Telegram, b)
		m.channels[ch.Name()] = ch
		slog.Info("channel enabled", "name", ch.Name())
	}
	if cfg.Channels.Slack.Enabled {
		ch := NewSlackChannel(&cfg.Channels.Slack, b)
		m.channels[ch.Name()] = ch
		slog.Info("channel enabled", "name", ch.Name())
	}

	return m
}

// EnabledChannels returns the names of all enabled channels.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	return names
}

// StartAll starts all channels concurrently and dispatches outbound
// messages. Blocks until ctx is cancelled.
func (m *Manager) StartAll(ctx context.Context) error {
	go m.dispatchOutbound(ctx)

	for name, ch := range m.channels {
		go func(n string, c schema.Channel) {
			slog.Info("starting channel", "name", n)
			if err := c.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("channel exited with error", "name", n, "err", err)
			}
		}(name, ch)
	}

	<-ctx.Done()
	return ctx.Err()
}

// dispatchOutbound reads from the bus and routes each message to the
// appropriate channel's Send method.
func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-m.b.OutboundChan():
			ch, ok := m.channels[msg.Channel()]
			if !ok {
				slog.Debug("unknown channel for outbound message", "channel", msg.Channel())
				continue
			}
			if err := ch.Send(ctx, msg); err != nil {
				slog.Error("outbound send failed", "channel", msg.Channel(), "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
