package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exaequos/exabuild/internal/service/build"
)

// cleanCmd removes the output folder and the CEF checkout.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the output folder and the CEF checkout",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return build.Clean(commandContext(), buildOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(cleanCmd)
}
