package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/dependency"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tangent gateway and chat channels",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Gateway port (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Gateway.Port = servePort
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%s Starting tangent gateway on port %d...\n", logo, cfg.Gateway.Port)

	chanMgr := container.ChannelManager()
	if enabled := chanMgr.EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("No chat channels enabled; gateway only.")
	}

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	janitor := container.Janitor()
	janitor.Start()
	defer janitor.Stop()

	g.Go(func() error { return container.Gateway().Run(gctx) })
	g.Go(func() error { return container.Hub().Run(gctx) })
	g.Go(func() error { return chanMgr.StartAll(gctx) })

	fmt.Printf("%s Gateway running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
