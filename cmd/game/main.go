// Command game runs saga: an interactive story narrated by a language model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "game",
	Short: "Interactive fiction narrated by a language model",
	Long: `game walks through world, character and scenario creation and then
narrates the story turn by turn.

Commands:
  game play       Play in the terminal UI
  game simulate   Play headless, always choosing the first suggested action
  game sessions   List saved sessions`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML configuration file (defaults to $SAGA_CONFIG)")
	rootCmd.AddCommand(playCmd, simulateCmd, sessionsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
