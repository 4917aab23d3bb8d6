package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "camtrap",
		Short: "Trail camera ingestion tool with pluggable animal detection",
		Long: `Camtrap ingests images from trail camera SD cards into a canonically
organized destination tree, naming each file after the camera that took it
and the moment it was taken.

Camera identity and capture time are resolved from the image's information
banner (via OCR), from EXIF data, or from explicit overrides. An optional
external animal detector can be run over every copied image.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newIngestCmd())

	return cmd
}
