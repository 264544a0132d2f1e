package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exaequos/exabuild/internal/service/build"
)

// compileCmd runs the native build against an already prepared checkout.
var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the browser shell from a prepared CEF checkout",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return build.Compile(commandContext(), buildOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(compileCmd)
}
