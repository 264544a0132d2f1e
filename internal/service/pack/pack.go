package pack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/platform"
)

// Options contains inputs for the packaging stage.
type Options struct {
	// Manifest is the validated build manifest.
	Manifest *config.Manifest
	// Target is the platform the build ran on.
	Target platform.Target
}

var (
	errMissingManifest = errors.New("manifest is not set")
	errArtifactMissing = errors.New("expected build artifact is missing")
)

// Run assembles the output artifact set: the compiled shell executable,
// the CEF shared library and its resource files are copied from the
// toolchain's build tree into the output directory, then the result is
// verified against the platform's expected artifact list.
func Run(ctx context.Context, opts *Options) error {
	if opts == nil || opts.Manifest == nil {
		return errMissingManifest
	}

	ctx = logger.WithName(ctx, "package")

	var (
		m      = opts.Manifest
		target = opts.Target
	)

	logger.InfoKV(ctx, "Installing build artifacts", "output_dir", m.OutputDir)

	localesDir := filepath.Join(m.OutputDir, "locales")
	if err := os.MkdirAll(localesDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var err error

	switch target.OS {
	case "windows":
		err = installWindowsArtifacts(ctx, m)
	case "darwin":
		err = installDarwinArtifacts(ctx, m)
	default:
		err = installLinuxArtifacts(ctx, m)
	}

	if err != nil {
		return err
	}

	if err = VerifyArtifacts(m.OutputDir, target, m.AppName); err != nil {
		return err
	}

	if err = writeArtifactManifest(ctx, m); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Artifact set complete", "output_dir", m.OutputDir)

	return nil
}

// compiledDir returns where the native build put the compiled sample for
// non-Windows platforms (out-of-tree build directory).
func compiledDir(m *config.Manifest) string {
	return filepath.Join(m.CEFDir, "build", "tests", "cefsimple", m.BuildType)
}

// installLinuxArtifacts copies the executable, CEF shared objects and
// resources from the build tree.
func installLinuxArtifacts(ctx context.Context, m *config.Manifest) error {
	source := compiledDir(m)

	named := []string{
		m.AppName,
		"icudtl.dat",
		"v8_context_snapshot.bin",
	}

	for _, name := range named {
		if err := copyFile(ctx, filepath.Join(source, name), m.OutputDir); err != nil {
			return err
		}
	}

	globs := []string{"*.pak", "*.so", "*.so.*"}
	for _, pattern := range globs {
		if err := copyGlob(ctx, filepath.Join(source, pattern), m.OutputDir); err != nil {
			return err
		}
	}

	return copyGlob(ctx, filepath.Join(source, "locales", "*"), filepath.Join(m.OutputDir, "locales"))
}

// installDarwinArtifacts copies the app bundle and the CEF framework
// libraries and resources next to it.
func installDarwinArtifacts(ctx context.Context, m *config.Manifest) error {
	source := compiledDir(m)

	bundle := m.AppName + ".app"
	if err := copyTree(ctx, filepath.Join(source, bundle), filepath.Join(m.OutputDir, bundle)); err != nil {
		return err
	}

	framework := filepath.Join(m.CEFDir, m.BuildType, "Chromium Embedded Framework.framework")

	if err := copyGlob(ctx, filepath.Join(framework, "Libraries", "*.dylib"), m.OutputDir); err != nil {
		return err
	}

	return copyGlob(ctx, filepath.Join(framework, "Resources", "*"), m.OutputDir)
}

// installWindowsArtifacts copies the executable and DLLs from the build
// tree and the resource files from the distribution's Resources folder.
func installWindowsArtifacts(ctx context.Context, m *config.Manifest) error {
	source := filepath.Join(m.CEFDir, m.BuildType)

	named := []string{
		m.AppName + ".exe",
		"v8_context_snapshot.bin",
	}

	for _, name := range named {
		if err := copyFile(ctx, filepath.Join(source, name), m.OutputDir); err != nil {
			return err
		}
	}

	if err := copyGlob(ctx, filepath.Join(source, "*.dll"), m.OutputDir); err != nil {
		return err
	}

	resources := filepath.Join(m.CEFDir, "Resources")

	if err := copyFile(ctx, filepath.Join(resources, "icudtl.dat"), m.OutputDir); err != nil {
		return err
	}

	if err := copyGlob(ctx, filepath.Join(resources, "*.pak"), m.OutputDir); err != nil {
		return err
	}

	return copyGlob(ctx, filepath.Join(resources, "locales", "*"), filepath.Join(m.OutputDir, "locales"))
}

// VerifyArtifacts checks that every artifact the platform requires is
// present in the output directory. A missing artifact means the build
// did not produce a runnable shell and is reported as a packaging failure.
func VerifyArtifacts(outputDir string, target platform.Target, appName string) error {
	for _, name := range target.ExpectedArtifacts(appName) {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", errArtifactMissing, name)
			}

			return fmt.Errorf("stat %s: %w", name, err)
		}
	}

	return nil
}

// copyFile copies a single file into the destination directory,
// preserving its permissions.
func copyFile(ctx context.Context, sourcePath, destinationDir string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", sourcePath, err)
	}

	destination := filepath.Join(destinationDir, filepath.Base(sourcePath))

	logger.DebugKV(ctx, "Copying artifact", "from", sourcePath, "to", destination)

	source, err := os.Open(filepath.Clean(sourcePath))
	if err != nil {
		return fmt.Errorf("open %s: %w", sourcePath, err)
	}

	defer func() {
		_ = source.Close()
	}()

	file, err := os.OpenFile(filepath.Clean(destination),
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}

	_, err = io.Copy(file, source)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("copy %s: %w", destination, err)
	}

	return nil
}

// copyGlob copies every file matching the pattern into the destination
// directory. Directories matched by the pattern are skipped.
func copyGlob(ctx context.Context, pattern, destinationDir string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("glob %s: %w", pattern, err)
	}

	for _, match := range matches {
		info, statErr := os.Stat(match)
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", match, statErr)
		}

		if info.IsDir() {
			continue
		}

		if err = copyFile(ctx, match, destinationDir); err != nil {
			return err
		}
	}

	return nil
}

// copyTree recursively copies a directory, preserving file permissions.
// Used for the macOS .app bundle.
func copyTree(ctx context.Context, sourceDir, destinationDir string) error {
	return filepath.WalkDir(sourceDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", sourceDir, err)
		}

		relative, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}

		target := filepath.Join(destinationDir, relative)

		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		return copyFile(ctx, path, filepath.Dir(target))
	})
}
