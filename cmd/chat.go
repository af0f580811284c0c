package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tangentchat/tangent/internal/bridge"
	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/dependency"
	"github.com/tangentchat/tangent/internal/engine"
	"github.com/tangentchat/tangent/internal/schema"
)

var (
	chatMessage string
	chatMode    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a local in-process engine",
	Long:  "Chat with the assistant against a local in-process engine instead of a browser applet. Useful for trying prompts and commands without the gateway.",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
	chatCmd.Flags().StringVar(&chatMode, "mode", "", "Engine mode (overrides config)")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if chatMode != "" {
		if engine.FindMode(chatMode) == nil {
			return fmt.Errorf("unknown mode %q (available: %s)", chatMode, strings.Join(engine.ModeNames(), ", "))
		}
		cfg.Mode = chatMode
	}

	client, err := dependency.NewModelClient(cfg)
	if err != nil {
		return err
	}

	mode := engine.ResolveMode(cfg.Mode).Name
	eng := engine.NewMemoryEngine(mode)
	settings := func() schema.SessionConfig {
		return schema.SessionConfig{Language: cfg.Language, Mode: mode}
	}
	br := bridge.New(client, eng, settings,
		bridge.WithTurnTimeout(time.Duration(cfg.Turn.TimeoutSeconds)*time.Second))

	if chatMessage != "" {
		return runSingleMessage(br, chatMessage)
	}
	return runInteractive(br, eng)
}

// runSingleMessage sends one message and prints the resulting turns.
func runSingleMessage(br *bridge.Bridge, text string) error {
	fmt.Fprintf(os.Stderr, "  ↳ thinking...\n")
	seen := len(br.Turns())
	if err := br.Send(context.Background(), text); err != nil {
		return err
	}
	printNewTurns(br, seen)
	return nil
}

// runInteractive reads lines from stdin and runs one turn per line.
func runInteractive(br *bridge.Bridge, eng *engine.MemoryEngine) error {
	fmt.Printf("%s Interactive mode, %s engine (type 'exit' or Ctrl+C to quit)\n\n", logo, eng.Mode())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listenForSignals(cancel)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}
		if line == "/objects" {
			printObjects(ctx, eng)
			continue
		}

		seen := len(br.Turns())
		err := br.Send(ctx, line)
		if errors.Is(err, schema.ErrTurnInProgress) {
			fmt.Println("(still working on the previous message)")
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printNewTurns(br, seen)
	}
}

// listenForSignals cancels ctx on SIGINT or SIGTERM and exits.
func listenForSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nGoodbye!")
		cancel()
		os.Exit(0)
	}()
}

func printNewTurns(br *bridge.Bridge, seen int) {
	for _, t := range br.Turns()[seen:] {
		if t.Role != schema.RoleAssistant {
			continue
		}
		if t.Action {
			fmt.Printf("\n%s tangent (action)\n%s\n", logo, t.Text)
		} else {
			fmt.Printf("\n%s tangent\n%s\n", logo, t.Text)
		}
	}
	fmt.Println()
}

func printObjects(ctx context.Context, eng *engine.MemoryEngine) {
	names, _ := eng.ObjectNames(ctx)
	if len(names) == 0 {
		fmt.Println(schema.NoObjectsMarker)
		return
	}
	for _, n := range names {
		v, err := eng.ObjectValue(ctx, n)
		if err != nil {
			continue
		}
		fmt.Printf("%s = %s\n", n, v)
	}
}
