package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/circuitlens/circuitlens/cmd/circuitlens/commands"
	"github.com/circuitlens/circuitlens/logger"
)

var rootCmd = &cobra.Command{
	Use:   "circuitlens",
	Short: "circuitlens - transformer attention-head inspection",
	Long: `circuitlens serves an attention-head inspection UI: it runs text
through a transformer-inference backend, lets you select and group
attention heads into named circuits, and projects the surviving
attention edges as a layered token graph.

Examples:
  circuitlens serve                 # Start the inspection server
  circuitlens sample                # Write offline sample datasets
  circuitlens sample distilgpt2     # Sample data for one model
  circuitlens version --json        # Build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(false, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SampleCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
