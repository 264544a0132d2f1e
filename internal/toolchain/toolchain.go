package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/platform"
)

const (
	// msvcGuidance is appended to compiler probe failures on Windows.
	msvcGuidance = "install https://visualstudio.microsoft.com and run this tool " +
		"from an x64 Native Tools Command Prompt for VS 2022"

	// cmakeGuidance is appended when CMake is missing or too old.
	cmakeGuidance = "install the latest CMake release from https://cmake.org/download"
)

var (
	errCMakeNotFound      = errors.New("cmake not found on PATH")
	errCMakeTooOld        = errors.New("cmake version below required minimum")
	errCMakeVersionOutput = errors.New("unexpected cmake --version output")
	errCompilerNotFound   = errors.New("MSVC compiler is not found")
	errCompilerBroken     = errors.New("MSVC compiler could not build a test program")
)

// Generator describes the native build system driven through CMake.
type Generator struct {
	// Name is the CMake generator name (-G argument).
	Name string
	// Tool is the executable invoked to run the generated build.
	Tool string
}

// CheckCMake verifies that CMake is installed and at least minVersion,
// returning the detected version. Failure is fatal for the build: CEF
// cannot be configured without it.
func CheckCMake(ctx context.Context, minVersion string) (string, error) {
	logger.Info(ctx, "Checking cmake version")

	if _, err := exec.LookPath("cmake"); err != nil {
		return "", fmt.Errorf("%w; %s", errCMakeNotFound, cmakeGuidance)
	}

	out, err := NewRunner("").Output(ctx, "cmake", "--version")
	if err != nil {
		return "", err
	}

	current, err := parseCMakeVersion(out)
	if err != nil {
		return "", err
	}

	if semver.Compare("v"+current, "v"+minVersion) < 0 {
		return current, fmt.Errorf("%w: have %s, need >= %s; %s",
			errCMakeTooOld, current, minVersion, cmakeGuidance)
	}

	logger.InfoKV(ctx, "cmake is usable", "version", current)

	return current, nil
}

// parseCMakeVersion extracts the version number from `cmake --version` output,
// whose first line reads "cmake version X.Y.Z".
func parseCMakeVersion(output string) (string, error) {
	line, _, _ := strings.Cut(output, "\n")

	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "cmake" {
		return "", fmt.Errorf("%w: %q", errCMakeVersionOutput, line)
	}

	// Strip vendor suffixes such as "3.28.1-msvc1".
	version, _, _ := strings.Cut(fields[2], "-")

	return version, nil
}

// ProbeCompiler verifies the platform C++ toolchain is usable.
// On Windows cl.exe only works from a Visual Studio developer prompt, so
// presence on PATH is not enough: a trivial program is compiled and run.
// Other platforms rely on CMake's own compiler discovery and are a no-op.
func ProbeCompiler(ctx context.Context, target platform.Target) error {
	if target.OS != "windows" {
		return nil
	}

	logger.Info(ctx, "Probing the MSVC compiler")

	dir, err := os.MkdirTemp("", "exabuild-msvc-probe-")
	if err != nil {
		return fmt.Errorf("create probe directory: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(dir)
	}()

	source := filepath.Join(dir, "probe.cc")
	program := "#include <windows.h>\nint main(int argc, char **argv) { return 0; }\n"

	if err = os.WriteFile(source, []byte(program), 0o600); err != nil {
		return fmt.Errorf("write probe source: %w", err)
	}

	runner := NewRunner(dir)

	if err = runner.Run(ctx, "cl.exe", "/Fe:probe.exe", "probe.cc"); err != nil {
		return fmt.Errorf("%w; %s", errCompilerNotFound, msvcGuidance)
	}

	if err = runner.Run(ctx, filepath.Join(dir, "probe.exe")); err != nil {
		return fmt.Errorf("%w; %s", errCompilerBroken, msvcGuidance)
	}

	logger.Info(ctx, "MSVC compiler is usable")

	return nil
}

// PickGenerator selects the CMake generator for non-Windows builds:
// Ninja when available, GNU Makefiles otherwise. Windows builds use the
// default Visual Studio generator and never call this.
func PickGenerator() Generator {
	if _, err := exec.LookPath("ninja"); err == nil {
		return Generator{Name: "Ninja", Tool: "ninja"}
	}

	return Generator{Name: "Unix Makefiles", Tool: "make"}
}
