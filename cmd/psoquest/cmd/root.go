// Package cmd defines the psoquest CLI's cobra command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "psoquest",
	Short: "Inspect and convert PSO Gamecube Episode I & II quest files",
}

// Execute runs the psoquest command tree. Callers (main) are responsible
// for translating a returned error into a process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of a text report")
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(convertCmd)
}
