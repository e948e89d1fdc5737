package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pricetracker",
	Short: "pricetracker records product prices from retailers and charts their history.",
	Long: `pricetracker records product prices from retailers and charts their history.

Without a subcommand it starts the interactive menu.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(*verbose)
	},
	Run: func(cmd *cobra.Command, args []string) {
		runMenu(cmd.Context())
	},
}

var (
	configPath *string
	dataDir    *string
	verbose    *bool
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "pricetracker.json5", "The config file, a <name>.local.json5 next to it overrides it.")
	dataDir = rootCmd.PersistentFlags().String("data-dir", "", "Where price histories and charts are written, overrides data_dir in the config.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
