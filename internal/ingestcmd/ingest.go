package ingestcmd

import (
	"github.com/camtrap-tools/camtrap/internal/config"
	"github.com/spf13/cobra"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	var configPath string
	var overrides config.Overrides

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Copy trail camera images into the canonical destination tree",
		Long: `Ingest images from SD cards or a source folder into the destination tree,
renaming each file from its resolved capture identity:

    <prefix><ID><view>-<YYYYMMDD>-<HHMMSS>.<ext>

filed under <prefix><ID>/<YYYY-MM-DD>/<view name>/.

Re-running ingest over already-copied sources is safe: images whose
canonical destination exists are skipped, never overwritten. When no source
is given, every mounted volume matching a configured SD card size is
ingested.`,
		Example: `  # Ingest every SD card found, using the config file's settings
  camtrap ingest --config trailcam.yaml

  # Ingest one folder for a known camera, reading EXIF timestamps
  camtrap ingest --source /mnt/sdcard --dest ~/trailcam --id 5003

  # See what a run would do without copying anything
  camtrap ingest --config trailcam.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeIngest(cmd.Context(), configPath, overrides)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVarP(&overrides.Source, "source", "s", "", "Image source directory (default: all SD cards found)")
	cmd.Flags().StringVarP(&overrides.Dest, "dest", "d", "", "Image destination directory")
	cmd.Flags().StringVarP(&overrides.CameraID, "id", "i", "", "Camera ID (default: read from each image's banner)")
	cmd.Flags().IntVar(&overrides.Concurrency, "concurrency", 0, "Worker count (default: from config)")
	cmd.Flags().BoolVar(&overrides.DryRun, "dry-run", false, "Resolve and plan without copying")

	return cmd
}
