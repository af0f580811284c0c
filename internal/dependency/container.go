// Package dependency wires core tangent services using go.uber.org/dig.
package dependency

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/tangentchat/tangent/internal/bus"
	"github.com/tangentchat/tangent/internal/channels"
	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/gateway"
	"github.com/tangentchat/tangent/internal/hub"
	"github.com/tangentchat/tangent/internal/model"
	"github.com/tangentchat/tangent/internal/schema"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	client  schema.ModelClient
	msgBus  bus.Bus
	hub     *hub.Hub
	gw      *gateway.Server
	janitor *gateway.Janitor
	chanMgr *channels.Manager
}

func (c *Container) ModelClient() schema.ModelClient   { return c.client }
func (c *Container) MessageBus() bus.Bus               { return c.msgBus }
func (c *Container) Hub() *hub.Hub                     { return c.hub }
func (c *Container) Gateway() *gateway.Server          { return c.gw }
func (c *Container) Janitor() *gateway.Janitor         { return c.janitor }
func (c *Container) ChannelManager() *channels.Manager { return c.chanMgr }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(NewModelClient); err != nil {
		return nil, err
	}
	if err := d.Provide(newMessageBus); err != nil {
		return nil, err
	}
	if err := d.Provide(newHub); err != nil {
		return nil, err
	}
	if err := d.Provide(newGateway); err != nil {
		return nil, err
	}
	if err := d.Provide(newJanitor); err != nil {
		return nil, err
	}
	if err := d.Provide(newChannelManager); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		client schema.ModelClient,
		msgBus bus.Bus,
		h *hub.Hub,
		gw *gateway.Server,
		janitor *gateway.Janitor,
		chanMgr *channels.Manager,
	) {
		result = &Container{
			client:  client,
			msgBus:  msgBus,
			hub:     h,
			gw:      gw,
			janitor: janitor,
			chanMgr: chanMgr,
		}
	})
	return result, err
}

// NewModelClient builds the LLM client from the provider config. Exported so
// the local chat command can build one without the full container.
func NewModelClient(cfg *config.Config) (schema.ModelClient, error) {
	p := cfg.Provider
	name := cfg.ProviderName()
	if p.APIKey == "" {
		if spec := model.FindByName(name); spec == nil || !spec.IsGateway {
			return nil, fmt.Errorf("no API key configured for model %q — edit %s", p.Model, config.ConfigPath())
		}
	}
	return model.New(model.Params{
		APIKey:       p.APIKey,
		APIBase:      p.APIBase,
		Model:        p.Model,
		ProviderName: name,
		ExtraHeaders: p.ExtraHeaders,
		MaxTokens:    cfg.Turn.MaxTokens,
		Temperature:  cfg.Turn.Temperature,
	}), nil
}

func newMessageBus() bus.Bus {
	return bus.NewMessageBus(100)
}

func newHub(b bus.Bus, client schema.ModelClient, cfg *config.Config) *hub.Hub {
	return hub.New(b, client, cfg)
}

func newGateway(cfg *config.Config, client schema.ModelClient) *gateway.Server {
	return gateway.NewServer(cfg, client)
}

func newJanitor(cfg *config.Config, gw *gateway.Server, h *hub.Hub) (*gateway.Janitor, error) {
	return gateway.NewJanitor(cfg, gw, h)
}

func newChannelManager(cfg *config.Config, b bus.Bus) *channels.Manager {
	return channels.NewManager(cfg, b)
}
