package patch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/platform"
)

// errMissingManifest is returned when a nil manifest is provided.
var errMissingManifest = errors.New("manifest is not set")

// ApplyCEFPatches rewrites the cefsimple sample shipped with CEF so it
// becomes the branded browser shell: the startup URL is pinned to the
// homepage and the target is renamed after the application. Patterns
// that no longer match are skipped, keeping the operation idempotent on
// an already patched checkout.
func ApplyCEFPatches(ctx context.Context, m *config.Manifest, target platform.Target) error {
	if m == nil {
		return errMissingManifest
	}

	logger.Info(ctx, "Patching Chromium Embedded Framework sample sources")

	if target.OS == "windows" {
		if err := applyWindowsOverlay(ctx, m); err != nil {
			return err
		}
	}

	appSource := filepath.Join(m.CEFDir, "tests", "cefsimple", "simple_app.cc")

	replacements := []struct{ old, new string }{
		{
			old: `url = command_line->GetSwitchValue("url");`,
			new: `url = "` + m.HomepageURL + `";`,
		},
		{old: "http://www.google.com", new: m.HomepageURL},
		{old: `"cefsimple"`, new: `"` + m.AppName + `"`},
	}

	for _, r := range replacements {
		if _, err := ReplaceInFile(appSource, r.old, r.new); err != nil {
			return err
		}
	}

	cmakeLists := filepath.Join(m.CEFDir, "tests", "cefsimple", "CMakeLists.txt")
	if _, err := ReplaceInFile(cmakeLists, `"cefsimple`, `"`+m.AppName); err != nil {
		return err
	}

	return nil
}

// applyWindowsOverlay replaces the checkout's top-level CMakeLists.txt
// with the checked-in Windows wrapper so libcef_dll_wrapper builds with
// the /MD runtime. A missing overlay file is tolerated: stock CEF
// releases build without it on most VS versions.
func applyWindowsOverlay(ctx context.Context, m *config.Manifest) error {
	overlay := filepath.Join(m.PatchesDir, "CEF", "win", "libcef_dll_wrapper_cmake")

	contents, err := os.ReadFile(filepath.Clean(overlay))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Windows CMake overlay not found, using stock CMakeLists", "path", overlay)
			return nil
		}

		return fmt.Errorf("read overlay: %w", err)
	}

	destination := filepath.Join(m.CEFDir, "CMakeLists.txt")
	if err = os.WriteFile(destination, contents, 0o644); err != nil { //nolint:gosec // Build input, not a secret.
		return fmt.Errorf("apply overlay: %w", err)
	}

	logger.InfoKV(ctx, "Applied Windows CMake overlay", "destination", destination)

	return nil
}

// ReplaceInFile substitutes every occurrence of old with new inside the
// file, preserving its permissions. It reports whether anything changed.
// A file where old does not occur is left untouched without error.
func ReplaceInFile(path, old, replacement string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	text := string(contents)
	if !strings.Contains(text, old) {
		return false, nil
	}

	patched := strings.ReplaceAll(text, old, replacement)

	// Write through a sibling temp file, then rename into place, so a
	// failure mid-write cannot truncate the original.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}

	_, err = io.WriteString(tmp, patched)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
		return false, fmt.Errorf("write %s: %w", tmp.Name(), err)
	}

	if err = os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		_ = os.Remove(tmp.Name())
		return false, fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return false, fmt.Errorf("replace %s: %w", path, err)
	}

	return true, nil
}
