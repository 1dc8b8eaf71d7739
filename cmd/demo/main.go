package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slask-demo",
	Short: "Console demos of instant search screens",
	Long: `Builds the refinement list and getting started screens on top of a
search index and drives them with scripted actions.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
