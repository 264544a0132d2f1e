package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/service/build"
	"github.com/exaequos/exabuild/internal/version"
)

var (
	// configPath to the build manifest YAML file.
	configPath string

	// logLevel controls console verbosity.
	logLevel string

	// rootCmd runs the full build pipeline when invoked without a subcommand.
	rootCmd = &cobra.Command{
		Use:   "exabuild",
		Short: "Build the ExaequOS browser shell for the host platform",
		Long: `exabuild drives the full build of the ExaequOS CEF browser shell:
it checks the toolchain, downloads the pinned CEF distribution, patches
and compiles the sample shell, then assembles the runnable artifact set
into a single output folder.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return build.Run(commandContext(), buildOptions())
		},
	}
)

// Execute runs the exabuild CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commandContext returns a context cancelled on SIGTERM/SIGINT with the
// configured log level applied.
func commandContext() context.Context {
	if level, ok := logger.ParseLogLevel(logLevel); ok {
		logger.SetLevel(level)
	}

	// Cancellation terminates the running toolchain process; there is no
	// finer-grained cleanup.
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	return ctx
}

func buildOptions() *build.Options {
	return &build.Options{ConfigPath: configPath}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.DefaultManifestFilename, "path to the build manifest")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
}
