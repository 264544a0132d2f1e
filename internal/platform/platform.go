package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Target identifies the platform a build runs on.
// Builds are host-only: no cross-compilation is supported.
type Target struct {
	// OS is the GOOS value (linux, darwin, windows).
	OS string
	// Arch is the GOARCH value (amd64, arm64).
	Arch string
}

// errUnsupportedPlatform is returned for host platforms CEF has no prebuilt distribution for.
var errUnsupportedPlatform = errors.New("unsupported platform")

// distributionSlugs maps a target to the CEF distribution slug used in
// tarball names on the CEF builds CDN.
//
//nolint:gochecknoglobals // Static lookup table.
var distributionSlugs = map[Target]string{
	{OS: "linux", Arch: "amd64"}:   "linux64",
	{OS: "linux", Arch: "arm64"}:   "linuxarm64",
	{OS: "darwin", Arch: "amd64"}:  "macosx64",
	{OS: "darwin", Arch: "arm64"}:  "macosarm64",
	{OS: "windows", Arch: "amd64"}: "windows64",
	{OS: "windows", Arch: "arm64"}: "windowsarm64",
}

// Host returns the target for the machine running the orchestrator.
func Host() Target {
	return Target{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Validate reports whether a CEF distribution exists for the target.
func (t Target) Validate() error {
	if _, ok := distributionSlugs[t]; !ok {
		return fmt.Errorf("%w: %s/%s", errUnsupportedPlatform, t.OS, t.Arch)
	}

	return nil
}

// DistributionSlug returns the CEF distribution slug for the target
// (e.g. "linux64", "windowsarm64").
func (t Target) DistributionSlug() (string, error) {
	slug, ok := distributionSlugs[t]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", errUnsupportedPlatform, t.OS, t.Arch)
	}

	return slug, nil
}

// ExecutableName returns the platform-appropriate name of the shell
// executable produced by the native build.
func (t Target) ExecutableName(appName string) string {
	switch t.OS {
	case "windows":
		return appName + ".exe"
	case "darwin":
		return appName + ".app"
	default:
		return appName
	}
}

// CEFLibraryName returns the platform-appropriate name of the CEF shared library.
func (t Target) CEFLibraryName() string {
	switch t.OS {
	case "windows":
		return "libcef.dll"
	case "darwin":
		return "libcef.dylib"
	default:
		return "libcef.so"
	}
}

// ExpectedArtifacts lists the file names that must exist in the output
// directory after packaging for the build to count as complete.
// Resource bundles (*.pak, locales) are copied too but only the files a
// missing one of which makes the shell unable to start are verified.
func (t Target) ExpectedArtifacts(appName string) []string {
	artifacts := []string{
		t.ExecutableName(appName),
		t.CEFLibraryName(),
	}

	if t.OS != "darwin" {
		// On macOS these live inside the framework bundle.
		artifacts = append(artifacts, "icudtl.dat", "v8_context_snapshot.bin")
	}

	return artifacts
}
