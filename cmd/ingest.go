package cmd

import (
	"github.com/camtrap-tools/camtrap/internal/ingestcmd"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	return ingestcmd.NewIngestCmd()
}
