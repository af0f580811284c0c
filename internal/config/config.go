// Package config defines tangent's JSON configuration file and its loader.
package config

import (
	"strings"
)

// Config is the root configuration structure, stored as JSON at
// ~/.tangent/config.json.
type Config struct {
	// Session defaults supplied to every bridge.
	Language string `json:"language"`
	Mode     string `json:"mode"`

	Provider ProviderConfig `json:"provider"`
	Turn     TurnConfig     `json:"turn"`
	Gateway  GatewayConfig  `json:"gateway"`
	Channels ChannelsConfig `json:"channels"`
}

// ProviderConfig selects and authenticates the remote model service.
// The API key may also arrive via environment, out of band.
type ProviderConfig struct {
	Name         string            `json:"name,omitempty"`
	APIKey       string            `json:"apiKey,omitempty"`
	APIBase      string            `json:"apiBase,omitempty"`
	Model        string            `json:"model"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// TurnConfig bounds a single bridge turn.
type TurnConfig struct {
	TimeoutSeconds int     `json:"timeoutSeconds"`
	MaxTokens      int     `json:"maxTokens"`
	Temperature    float64 `json:"temperature"`
}

// GatewayConfig configures the browser/applet websocket gateway.
type GatewayConfig struct {
	Port int `json:"port"`
	// JanitorSchedule is a cron expression; idle sessions past the TTL are
	// pruned on this schedule.
	JanitorSchedule   string `json:"janitorSchedule"`
	SessionTTLMinutes int    `json:"sessionTTLMinutes"`
	// RPCTimeoutSeconds bounds one engine call proxied to the applet.
	RPCTimeoutSeconds int `json:"rpcTimeoutSeconds"`
}

// ChannelsConfig holds per-platform channel settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Slack    SlackConfig    `json:"slack"`
}

// TelegramConfig configures the Telegram long-polling channel.
type TelegramConfig struct {
	Enabled        bool     `json:"enabled"`
	Token          string   `json:"token,omitempty"`
	AllowFrom      []string `json:"allowFrom,omitempty"`
	ReplyToMessage bool     `json:"replyToMessage,omitempty"`
}

// SlackConfig configures the Slack Socket Mode channel.
type SlackConfig struct {
	Enabled       bool     `json:"enabled"`
	BotToken      string   `json:"botToken,omitempty"`
	AppToken      string   `json:"appToken,omitempty"`
	AllowFrom     []string `json:"allowFrom,omitempty"`
	ReplyInThread bool     `json:"replyInThread,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Language: "en",
		Mode:     "graphing",
		Provider: ProviderConfig{
			Model: "gemini-2.0-flash",
		},
		Turn: TurnConfig{
			TimeoutSeconds: 120,
			MaxTokens:      4096,
			Temperature:    0.3,
		},
		Gateway: GatewayConfig{
			Port:              18310,
			JanitorSchedule:   "*/5 * * * *",
			SessionTTLMinutes: 60,
			RPCTimeoutSeconds: 10,
		},
	}
}

// ProviderName returns the configured provider name, inferring it from the
// model string ("provider/model") when the field is empty.
func (c *Config) ProviderName() string {
	if c.Provider.Name != "" {
		return c.Provider.Name
	}
	if prefix, _, found := strings.Cut(c.Provider.Model, "/"); found {
		return prefix
	}
	return ""
}
