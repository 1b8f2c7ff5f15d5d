// Package cmd provides the command-line interface of cdctrg.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cdctrg",
	Short: "cdctrg simulates the drift chamber trigger front-end boards.",
	Long: `cdctrg simulates the drift chamber trigger front-end boards. It ` +
		`prints board layouts, packs single board ticks by hand and runs ` +
		`events through the whole front end.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
