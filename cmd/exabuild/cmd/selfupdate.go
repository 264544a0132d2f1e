package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exaequos/exabuild/internal/service/selfupdate"
)

var (
	// forceUpdate applies the published release even when it is not newer.
	forceUpdate bool

	// selfupdateCmd replaces this executable with the published release.
	selfupdateCmd = &cobra.Command{
		Use:   "selfupdate",
		Short: "Update this tool from the configured release manifest",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			options := &selfupdate.Options{
				ConfigPath: configPath,
				Force:      forceUpdate,
			}

			return selfupdate.Run(commandContext(), options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	selfupdateCmd.Flags().BoolVar(&forceUpdate, "force", false,
		"apply the published release even if it is not newer")
	rootCmd.AddCommand(selfupdateCmd)
}
