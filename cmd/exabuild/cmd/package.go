package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exaequos/exabuild/internal/service/build"
)

// packageCmd assembles the output folder from a finished compile.
var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Assemble the output artifact set from a finished build",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return build.Package(commandContext(), buildOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(packageCmd)
}
