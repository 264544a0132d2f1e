package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exaequos/exabuild/internal/service/build"
)

// doctorCmd verifies the environment without building anything.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the host has a usable toolchain for building the shell",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return build.Doctor(commandContext(), buildOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(doctorCmd)
}
