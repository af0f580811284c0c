package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/engine"
	"github.com/tangentchat/tangent/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tangent status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s tangent Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:   %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	fmt.Printf("Model:    %s\n", cfg.Provider.Model)
	fmt.Printf("Mode:     %s\n", engine.ResolveMode(cfg.Mode).DisplayName)
	fmt.Printf("Language: %s\n\n", cfg.Language)

	fmt.Println("Provider:")
	name := cfg.ProviderName()
	spec := model.FindByName(name)
	label := name
	if spec != nil {
		label = spec.Label()
	}
	keyMark := "(no API key)"
	if cfg.Provider.APIKey != "" {
		keyMark = "✓"
	}
	fmt.Printf("  %-20s %s\n\n", label, keyMark)

	fmt.Println("Channels:")
	tgMark := "disabled"
	if cfg.Channels.Telegram.Enabled {
		tgMark = "enabled"
	}
	slackMark := "disabled"
	if cfg.Channels.Slack.Enabled {
		slackMark = "enabled"
	}
	fmt.Printf("  %-20s %s\n", "Telegram", tgMark)
	fmt.Printf("  %-20s %s\n\n", "Slack", slackMark)

	printGatewayHealth(cfg.Gateway.Port)
	return nil
}

// printGatewayHealth probes a locally running gateway, if any.
func printGatewayHealth(port int) {
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%d/healthz", port))
	if err != nil {
		fmt.Printf("Gateway:  not running on port %d\n", port)
		return
	}
	defer resp.Body.Close()

	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		fmt.Printf("Gateway:  port %d responded but was unreadable\n", port)
		return
	}
	fmt.Printf("Gateway:  ✓ running on port %d (%d sessions)\n", port, health.Sessions)
}
