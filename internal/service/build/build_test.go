package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/platform"
)

// TestStageString covers the stage name mapping.
func TestStageString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "idle", StageIdle.String())
	require.Equal(t, "prepare", StagePreparing.String())
	require.Equal(t, "compile", StageCompiling.String())
	require.Equal(t, "package", StagePackaging.String())
	require.Equal(t, "done", StageDone.String())
	require.Equal(t, "failed", StageFailed.String())
	require.Equal(t, "unknown", Stage(42).String())
}

// TestAdvance checks stage transitions for passing and failing steps.
func TestAdvance(t *testing.T) {
	t.Parallel()

	r := &runner{stage: StageIdle}

	err := r.advance(context.Background(), StagePreparing, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, StagePreparing, r.stage)

	stepErr := errors.New("cmake exploded")

	err = r.advance(context.Background(), StageCompiling, func(context.Context) error {
		return stepErr
	})
	require.Error(t, err)
	require.ErrorIs(t, err, stepErr)
	require.Contains(t, err.Error(), "compile")
	require.Equal(t, StageFailed, r.stage)
}

func testRunner(t *testing.T, outputDir string) *runner {
	t.Helper()

	m := &config.Manifest{
		AppName:    "ExaequOS",
		CEFVersion: "120.0.0",
		OutputDir:  outputDir,
	}
	require.NoError(t, config.Validate(m))

	return &runner{
		m:      m,
		target: platform.Target{OS: "linux", Arch: "amd64"},
	}
}

// TestResetOutputDir covers the four states an output path can be in.
func TestResetOutputDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Absent path: nothing to do.
	r := testRunner(t, filepath.Join(dir, "absent"))
	require.NoError(t, r.resetOutputDir())

	// Stale directory with content: removed.
	stale := filepath.Join(dir, "stale")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "old"), []byte("x"), 0o600))

	r = testRunner(t, stale)
	require.NoError(t, r.resetOutputDir())

	_, err := os.Stat(stale)
	require.Error(t, err)

	// Symlink: removed, link target untouched.
	targetDir := filepath.Join(dir, "real")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(targetDir, link))

	r = testRunner(t, link)
	require.NoError(t, r.resetOutputDir())

	_, err = os.Lstat(link)
	require.Error(t, err)

	_, err = os.Stat(targetDir)
	require.NoError(t, err)

	// Regular file: fatal, asking for manual removal.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o600))

	r = testRunner(t, blocked)
	err = r.resetOutputDir()
	require.Error(t, err)
	require.Contains(t, err.Error(), "remove it manually")
}

// chdir switches the working directory for the test and restores it on
// cleanup; testing.T.Chdir is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

// TestMarkerLifecycle exercises create, detect and stale cleanup.
func TestMarkerLifecycle(t *testing.T) {
	chdir(t, t.TempDir())

	ctx := context.Background()

	require.False(t, IsBuildRunningNow(ctx))

	require.NoError(t, createMarker())

	// No other orchestrator process exists, so the marker counts as stale
	// and is cleaned up.
	require.False(t, IsBuildRunningNow(ctx))

	_, err := os.Stat(MarkerFilename)
	require.Error(t, err)

	// removeMarker tolerates a missing file.
	removeMarker()
}

// TestRunFailsFastWithoutManifest ensures a missing manifest aborts
// before any stage runs.
func TestRunFailsFastWithoutManifest(t *testing.T) {
	chdir(t, t.TempDir())

	err := Run(context.Background(), &Options{ConfigPath: "missing.yaml"})
	require.Error(t, err)
}
