package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/exaequos/exabuild/internal/logger"
)

// Runner executes external build tools. Child stdout/stderr are streamed
// to the parent's unmodified so toolchain diagnostics reach the CI log
// verbatim.
type Runner struct {
	// Dir is the working directory for executed commands.
	Dir string
	// Env is the command environment; nil inherits the parent environment.
	Env []string
	// Stdout and Stderr override the streams commands write to.
	// They default to the parent's streams and exist for tests.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a runner executing commands in the provided directory.
func NewRunner(dir string) *Runner {
	return &Runner{Dir: dir}
}

// Run executes the named tool, blocking until it exits.
// A non-zero exit is returned as an error carrying the full command line.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env

	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	logger.InfoKV(ctx, "Running build tool", "command", name, "args", strings.Join(args, " "), "dir", r.Dir)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return nil
}

// Output executes the named tool and returns its combined standard output.
// Used for short queries like `cmake --version`.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return string(out), nil
}
