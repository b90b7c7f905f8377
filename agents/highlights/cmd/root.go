package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "highlights",
	Short: "F1 highlights pipeline and API",
	Long: `F1 highlights - race highlight videos with AI-extracted key moments

The pipeline syncs the official highlights playlist, enriches every video
with metadata and its transcript, then asks Gemini for the key race events.
The API serves the stored videos and can trigger each stage.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
