// Munim — AI business assistant over Tally-synced ERP data.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "munim",
	Short: "Munim — conversational assistant for vouchers, ledgers, stock and warehouses.",
	Long: `Munim answers natural-language questions about ERP data synced from Tally.
It drives a reasoning model through search tools over the analytical store,
keeps full records out of the model context, and serves the results over an
HTTP chat API with UI-ready tables.`,
	RunE:          runServe, // Default to serve mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, queryCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
