package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/fetcher"
	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/patch"
	"github.com/exaequos/exabuild/internal/platform"
	"github.com/exaequos/exabuild/internal/service/pack"
	"github.com/exaequos/exabuild/internal/toolchain"
)

// Options contains inputs for the build entry points.
type Options struct {
	// ConfigPath is an optional path to the build manifest (defaults to exabuild.yaml).
	ConfigPath string
}

var (
	// errBuildRunning indicates another orchestrator invocation holds the marker.
	errBuildRunning = errors.New("another build is running now")
	// errOutputPathBlocked is returned when the output path exists but is not a directory.
	errOutputPathBlocked = errors.New("output path exists and is not a directory, remove it manually")
)

// runner holds the state for a single build execution.
// It is unexported; callers use the package-level entry points.
type runner struct {
	// m is the validated build manifest.
	m *config.Manifest
	// target is the host platform being built for.
	target platform.Target
	// stage tracks pipeline progress for logs and error messages.
	stage Stage
}

// Run executes the full pipeline: Prepare, Compile, Package.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "exabuild")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer removeMarker()

	if err = r.run(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Build completed successfully", "output_dir", r.m.OutputDir)
	r.outro(ctx)

	return nil
}

// Fetch runs only the dependency preparation (download, verify, unpack, patch).
func Fetch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "fetch")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer removeMarker()

	return r.advance(ctx, StagePreparing, r.prepare)
}

// Compile runs only the native compilation, assuming a prepared checkout.
func Compile(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "compile")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer removeMarker()

	return r.advance(ctx, StageCompiling, r.compile)
}

// Package runs only the artifact assembly, assuming a finished compile.
func Package(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "package")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer removeMarker()

	return r.advance(ctx, StagePackaging, r.pack)
}

// Doctor checks the environment (CMake version, platform support,
// compiler usability) without building anything.
func Doctor(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "doctor")

	m, err := config.Load(optsConfigPath(opts))
	if err != nil {
		return err
	}

	target := platform.Host()
	if err = target.Validate(); err != nil {
		return err
	}

	if _, err = toolchain.CheckCMake(ctx, m.CMakeMinVersion); err != nil {
		return err
	}

	if err = toolchain.ProbeCompiler(ctx, target); err != nil {
		return err
	}

	logger.Info(ctx, "Environment looks good")

	return nil
}

// Clean removes the output directory and the CEF checkout.
func Clean(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "clean")

	m, err := config.Load(optsConfigPath(opts))
	if err != nil {
		return err
	}

	for _, path := range []string{m.OutputDir, m.CEFDir} {
		logger.InfoKV(ctx, "Removing", "path", path)

		if err = os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}

	return nil
}

// newRunner loads the manifest, validates the host platform and takes
// the build marker.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	m, err := config.Load(optsConfigPath(opts))
	if err != nil {
		return nil, err
	}

	target := platform.Host()
	if err = target.Validate(); err != nil {
		return nil, err
	}

	if IsBuildRunningNow(ctx) {
		return nil, errBuildRunning
	}

	if err = createMarker(); err != nil {
		return nil, fmt.Errorf("create build marker: %w", err)
	}

	return &runner{m: m, target: target, stage: StageIdle}, nil
}

func optsConfigPath(opts *Options) string {
	if opts == nil {
		return ""
	}

	return opts.ConfigPath
}

// run drives the ordered stages. The first error is final: there are no
// retries and no partial cleanup beyond what the toolchain leaves behind.
func (r *runner) run(ctx context.Context) error {
	if err := r.advance(ctx, StagePreparing, r.prepare); err != nil {
		return err
	}

	if err := r.advance(ctx, StageCompiling, r.compile); err != nil {
		return err
	}

	if err := r.advance(ctx, StagePackaging, r.pack); err != nil {
		return err
	}

	r.stage = StageDone

	return nil
}

// advance moves the runner into the stage and executes its step.
// On failure the runner lands in StageFailed and the error names the stage.
func (r *runner) advance(ctx context.Context, stage Stage, step func(context.Context) error) error {
	r.stage = stage
	logger.InfoKV(ctx, "Entering build stage", "stage", stage.String())

	if err := step(ctx); err != nil {
		r.stage = StageFailed
		return fmt.Errorf("%s: %w", stage.String(), err)
	}

	return nil
}

// prepare covers everything before compilation: output reset, toolchain
// checks, CEF download and source patching. Any failure here signals a
// missing or misconfigured environment and aborts the build.
func (r *runner) prepare(ctx context.Context) error {
	if err := r.resetOutputDir(); err != nil {
		return err
	}

	if err := toolchain.InstallPackages(ctx, r.target, r.m.Packages[r.target.OS]); err != nil {
		return err
	}

	if _, err := toolchain.CheckCMake(ctx, r.m.CMakeMinVersion); err != nil {
		return err
	}

	if err := toolchain.ProbeCompiler(ctx, r.target); err != nil {
		return err
	}

	if err := fetcher.New(r.m.DownloadBaseURL).FetchCEF(ctx, r.m, r.target); err != nil {
		return fmt.Errorf("fetch cef: %w", err)
	}

	return patch.ApplyCEFPatches(ctx, r.m, r.target)
}

// compile drives the native toolchain. Windows configures in-tree with
// the Visual Studio generator; other platforms build out-of-tree with
// Ninja or Make.
func (r *runner) compile(ctx context.Context) error {
	buildType := "-DCMAKE_BUILD_TYPE=" + r.m.BuildType

	if r.target.OS == "windows" {
		runner := toolchain.NewRunner(r.m.CEFDir)

		if err := runner.Run(ctx, "cmake", "-DCEF_RUNTIME_LIBRARY_FLAG=/MD", buildType, "."); err != nil {
			return err
		}

		return runner.Run(ctx, "cmake", "--build", ".", "--config", r.m.BuildType)
	}

	buildDir := filepath.Join(r.m.CEFDir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}

	var (
		generator = toolchain.PickGenerator()
		runner    = toolchain.NewRunner(buildDir)
		jobs      = strconv.Itoa(r.m.Jobs)
	)

	if err := runner.Run(ctx, "cmake", "-G", generator.Name, buildType, ".."); err != nil {
		return err
	}

	if generator.Tool == "ninja" {
		return runner.Run(ctx, "ninja", "-j"+jobs, r.m.AppName)
	}

	return runner.Run(ctx, "make", r.m.AppName, "-j"+jobs)
}

// pack delegates to the packaging service.
func (r *runner) pack(ctx context.Context) error {
	return pack.Run(ctx, &pack.Options{Manifest: r.m, Target: r.target})
}

// resetOutputDir guarantees each run starts from an empty output folder.
// A symlink or stale directory is removed; anything else at the path is
// left alone and reported for manual removal.
func (r *runner) resetOutputDir() error {
	info, err := os.Lstat(r.m.OutputDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("inspect output path: %w", err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if err = os.Remove(r.m.OutputDir); err != nil {
			return fmt.Errorf("remove output symlink: %w", err)
		}

		return nil
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errOutputPathBlocked, r.m.OutputDir)
	}

	if err = os.RemoveAll(r.m.OutputDir); err != nil {
		return fmt.Errorf("remove stale output directory: %w", err)
	}

	return nil
}

// outro logs the runtime linker setup Unix users need before launching
// the shell from the output folder.
func (r *runner) outro(ctx context.Context) {
	if r.target.OS == "windows" {
		return
	}

	outputDir, err := filepath.Abs(r.m.OutputDir)
	if err != nil {
		outputDir = r.m.OutputDir
	}

	logger.Infof(ctx,
		"Before launching %s, point the dynamic linker at the bundled libraries:\n"+
			"  export LD_LIBRARY_PATH=$LD_LIBRARY_PATH:%s\n"+
			"  export LD_PRELOAD=%s",
		r.m.AppName, outputDir, filepath.Join(outputDir, r.target.CEFLibraryName()))
}
