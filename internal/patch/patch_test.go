package patch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/platform"
)

// TestReplaceInFile covers substitution, idempotency and mode preservation.
func TestReplaceInFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "simple_app.cc")

	source := `url = command_line->GetSwitchValue("url");` + "\n" +
		`window->LoadURL("http://www.google.com");` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(source), 0o755)) //nolint:gosec // Executable bit is the point.

	changed, err := ReplaceInFile(path, "http://www.google.com", "https://www.exaequos.com")
	require.NoError(t, err)
	require.True(t, changed)

	patched, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(patched), "https://www.exaequos.com")
	require.NotContains(t, string(patched), "google.com")

	// Permissions survive the rewrite.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// Second application is a no-op.
	changed, err = ReplaceInFile(path, "http://www.google.com", "https://www.exaequos.com")
	require.NoError(t, err)
	require.False(t, changed)
}

// TestReplaceInFileMissing ensures a missing file is an error.
func TestReplaceInFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReplaceInFile(filepath.Join(t.TempDir(), "nope.cc"), "a", "b")
	require.Error(t, err)
}

// TestApplyCEFPatches rebrands a fake cefsimple checkout.
func TestApplyCEFPatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cefDir := filepath.Join(dir, "cef_binary")
	sampleDir := filepath.Join(cefDir, "tests", "cefsimple")
	require.NoError(t, os.MkdirAll(sampleDir, 0o755))

	appSource := `  std::string url;
  url = command_line->GetSwitchValue("url");
  if (url.empty()) {
    url = "http://www.google.com";
  }
  CefString(&settings.product_version) = "cefsimple";
`
	require.NoError(t, os.WriteFile(
		filepath.Join(sampleDir, "simple_app.cc"), []byte(appSource), 0o644))

	cmake := `add_executable("cefsimple" ${SRCS})` + "\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(sampleDir, "CMakeLists.txt"), []byte(cmake), 0o644))

	m := &config.Manifest{
		AppName:    "ExaequOS",
		CEFVersion: "120.0.0",
		CEFDir:     cefDir,
		PatchesDir: filepath.Join(dir, "patches"),
	}
	require.NoError(t, config.Validate(m))

	target := platform.Target{OS: "linux", Arch: "amd64"}
	require.NoError(t, ApplyCEFPatches(context.Background(), m, target))

	patchedApp, err := os.ReadFile(filepath.Join(sampleDir, "simple_app.cc"))
	require.NoError(t, err)
	require.Contains(t, string(patchedApp), `url = "https://www.exaequos.com";`)
	require.Contains(t, string(patchedApp), `"ExaequOS"`)
	require.NotContains(t, string(patchedApp), "google.com")
	require.NotContains(t, string(patchedApp), "cefsimple")

	patchedCMake, err := os.ReadFile(filepath.Join(sampleDir, "CMakeLists.txt"))
	require.NoError(t, err)
	require.Contains(t, string(patchedCMake), `add_executable("ExaequOS"`)

	// Re-patching an already branded checkout succeeds.
	require.NoError(t, ApplyCEFPatches(context.Background(), m, target))
}

// TestApplyWindowsOverlay replaces the top-level CMakeLists from the patches dir.
func TestApplyWindowsOverlay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cefDir := filepath.Join(dir, "cef_binary")
	sampleDir := filepath.Join(cefDir, "tests", "cefsimple")
	require.NoError(t, os.MkdirAll(sampleDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sampleDir, "simple_app.cc"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sampleDir, "CMakeLists.txt"), []byte("x"), 0o644))

	overlayDir := filepath.Join(dir, "patches", "CEF", "win")
	require.NoError(t, os.MkdirAll(overlayDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(overlayDir, "libcef_dll_wrapper_cmake"),
		[]byte("# windows wrapper"), 0o644))

	m := &config.Manifest{
		AppName:    "ExaequOS",
		CEFVersion: "120.0.0",
		CEFDir:     cefDir,
		PatchesDir: filepath.Join(dir, "patches"),
	}
	require.NoError(t, config.Validate(m))

	target := platform.Target{OS: "windows", Arch: "amd64"}
	require.NoError(t, ApplyCEFPatches(context.Background(), m, target))

	overlaid, err := os.ReadFile(filepath.Join(cefDir, "CMakeLists.txt"))
	require.NoError(t, err)
	require.Equal(t, "# windows wrapper", string(overlaid))
}
