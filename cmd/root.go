// Package cmd implements the tangent CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "📐"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "tangent",
	Short: logo + " tangent — chat assistant for math applets",
	Long:  logo + " tangent — a chat-to-command bridge that lets an LLM drive interactive math applets",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
}
