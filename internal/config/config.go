package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Manifest holds the checked-in build configuration shared by all subcommands.
type Manifest struct {
	// AppName is the name of the produced browser-shell executable.
	AppName string `yaml:"app_name"`
	// HomepageURL is the page the shell opens on startup; it is patched
	// into the CEF sample sources before compilation.
	HomepageURL string `yaml:"homepage_url"`
	// CEFVersion is the full pinned CEF version string, as published on the
	// Spotify CDN index (e.g. "120.1.8+ge6b45b0+chromium-120.0.6099.109").
	CEFVersion string `yaml:"cef_version"`
	// BuildType is the CMake build type, Release or Debug.
	BuildType string `yaml:"build_type"`
	// CMakeMinVersion is the minimum CMake version CEF requires.
	CMakeMinVersion string `yaml:"cmake_min_version"`
	// OutputDir is the directory receiving the final artifact set.
	OutputDir string `yaml:"output_dir"`
	// CEFDir is the directory holding the extracted CEF distribution.
	CEFDir string `yaml:"cef_dir"`
	// PatchesDir holds platform patch overlays applied to the CEF checkout.
	PatchesDir string `yaml:"patches_dir"`
	// DownloadBaseURL is where CEF tarballs are fetched from.
	DownloadBaseURL string `yaml:"download_base_url"`
	// Jobs is the parallelism passed to the native build tool; 0 means NumCPU.
	Jobs int `yaml:"jobs"`
	// UpdateManifestURL optionally points at a release manifest used by
	// the selfupdate subcommand. Empty disables selfupdate.
	UpdateManifestURL string `yaml:"update_manifest_url,omitempty"`
	// Packages lists build-time system packages per GOOS, installed with
	// the platform package manager during the prepare stage.
	Packages map[string][]string `yaml:"packages,omitempty"`
}

const (
	// DefaultManifestFilename is the default filename for the build manifest.
	DefaultManifestFilename = "exabuild.yaml"

	// DefaultAppName names the produced executable and output folder.
	DefaultAppName = "ExaequOS"

	// DefaultHomepageURL is the page the shell opens by default.
	DefaultHomepageURL = "https://www.exaequos.com"

	// DefaultCMakeMinVersion is the minimum CMake version CEF builds with.
	DefaultCMakeMinVersion = "3.19"

	// DefaultDownloadBaseURL hosts the prebuilt CEF distributions.
	DefaultDownloadBaseURL = "https://cef-builds.spotifycdn.com"

	// DefaultCEFDir is where the CEF distribution is unpacked.
	DefaultCEFDir = "cef_binary"

	// DefaultPatchesDir holds checked-in patch overlays.
	DefaultPatchesDir = "patches"

	// DefaultFilePermissions is the default file permission for manifest files.
	DefaultFilePermissions = 0o600
)

var (
	// errManifestIsNotSet is returned when a nil manifest is provided.
	errManifestIsNotSet = errors.New("manifest is not set")
	// errAppNameRequired is returned when the application name is missing.
	errAppNameRequired = errors.New("application name must be provided")
	// errCEFVersionRequired is returned when no CEF version is pinned.
	errCEFVersionRequired = errors.New("cef version must be provided")
	// errBadBuildType is returned for build types other than Release/Debug.
	errBadBuildType = errors.New("build type must be Release or Debug")
)

// Load reads the manifest from the provided path and validates essential fields.
func Load(path string) (*Manifest, error) {
	if path == "" {
		path = DefaultManifestFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	if err := Validate(&m); err != nil {
		return nil, err
	}

	return &m, nil
}

// Save writes the manifest to the provided path.
func Save(path string, m *Manifest) error {
	if m == nil {
		return errManifestIsNotSet
	}

	if path == "" {
		path = DefaultManifestFilename
	}

	if err := Validate(m); err != nil {
		return err
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Validate checks the provided manifest for required fields and fills defaults in place.
func Validate(m *Manifest) error {
	if m == nil {
		return errManifestIsNotSet
	}

	if m.AppName == "" {
		return errAppNameRequired
	}

	if m.CEFVersion == "" {
		return errCEFVersionRequired
	}

	switch m.BuildType {
	case "":
		m.BuildType = "Release"
	case "Release", "Debug":
	default:
		return fmt.Errorf("%w: %s", errBadBuildType, m.BuildType)
	}

	if m.HomepageURL == "" {
		m.HomepageURL = DefaultHomepageURL
	}

	if _, err := url.ParseRequestURI(m.HomepageURL); err != nil {
		return fmt.Errorf("invalid homepage URL: %w", err)
	}

	if m.CMakeMinVersion == "" {
		m.CMakeMinVersion = DefaultCMakeMinVersion
	}

	if m.OutputDir == "" {
		m.OutputDir = m.AppName
	}

	if m.CEFDir == "" {
		m.CEFDir = DefaultCEFDir
	}

	if m.PatchesDir == "" {
		m.PatchesDir = DefaultPatchesDir
	}

	if m.DownloadBaseURL == "" {
		m.DownloadBaseURL = DefaultDownloadBaseURL
	}

	if _, err := url.ParseRequestURI(m.DownloadBaseURL); err != nil {
		return fmt.Errorf("invalid download base URL: %w", err)
	}

	if m.Jobs <= 0 {
		m.Jobs = runtime.NumCPU()
	}

	if m.UpdateManifestURL != "" {
		if _, err := url.ParseRequestURI(m.UpdateManifestURL); err != nil {
			return fmt.Errorf("invalid update manifest URL: %w", err)
		}
	}

	return nil
}
