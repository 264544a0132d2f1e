package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exaequos/exabuild/internal/service/build"
)

// fetchCmd downloads and prepares the CEF checkout without compiling.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download, verify and unpack the pinned CEF distribution",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return build.Fetch(commandContext(), buildOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(fetchCmd)
}
