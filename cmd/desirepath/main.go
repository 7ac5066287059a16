package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "desirepath",
		Short: "Desire path simulation - walkers wearing trails into a meadow",
		Long: `desirepath simulates walkers crossing a meadow between goals.

Each walker picks the cheapest neighbouring cell by slope, distance to its
goal and existing wear, and wears the ground it steps on. Over time the
shared wear shapes informal shortcuts: desire paths.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.desirepath/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newWatchCmd(),
		newServeCmd(),
		newRenderCmd(),
		newRunsCmd(),
		newBackupCmd(),
		newConfigCmd(),
	)

	return rootCmd
}
