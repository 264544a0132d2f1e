package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and default filling for the manifest.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing app name.
	m := new(Manifest)

	err := Validate(m)
	require.Error(t, err)

	// Missing CEF version.
	m = &Manifest{AppName: "ExaequOS"}

	err = Validate(m)
	require.Error(t, err)

	// Bad build type.
	m = &Manifest{
		AppName:    "ExaequOS",
		CEFVersion: "120.1.8+ge6b45b0+chromium-120.0.6099.109",
		BuildType:  "Profile",
	}

	err = Validate(m)
	require.Error(t, err)

	// Okay: defaults filled in place.
	m = &Manifest{
		AppName:    "ExaequOS",
		CEFVersion: "120.1.8+ge6b45b0+chromium-120.0.6099.109",
	}

	err = Validate(m)
	require.NoError(t, err)
	require.Equal(t, "Release", m.BuildType)
	require.Equal(t, DefaultHomepageURL, m.HomepageURL)
	require.Equal(t, DefaultCMakeMinVersion, m.CMakeMinVersion)
	require.Equal(t, "ExaequOS", m.OutputDir)
	require.Equal(t, DefaultCEFDir, m.CEFDir)
	require.Equal(t, DefaultDownloadBaseURL, m.DownloadBaseURL)
	require.Positive(t, m.Jobs)
}

// TestValidateRejectsBadURLs covers malformed homepage and update URLs.
func TestValidateRejectsBadURLs(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		AppName:     "ExaequOS",
		CEFVersion:  "120.0.0",
		HomepageURL: "not a url",
	}
	require.Error(t, Validate(m))

	m = &Manifest{
		AppName:           "ExaequOS",
		CEFVersion:        "120.0.0",
		UpdateManifestURL: "::::",
	}
	require.Error(t, Validate(m))
}

// TestSaveLoadRoundtrip ensures the manifest is persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "exabuild.yaml")

	m := &Manifest{
		AppName:    "ExaequOS",
		CEFVersion: "120.1.8+ge6b45b0+chromium-120.0.6099.109",
		BuildType:  "Debug",
		Jobs:       4,
		Packages: map[string][]string{
			"linux": {"cmake", "ninja-build"},
		},
	}

	require.NoError(t, Save(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, m.AppName, loaded.AppName)
	require.Equal(t, m.CEFVersion, loaded.CEFVersion)
	require.Equal(t, "Debug", loaded.BuildType)
	require.Equal(t, 4, loaded.Jobs)
	require.Equal(t, []string{"cmake", "ninja-build"}, loaded.Packages["linux"])

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadMissingFile ensures a helpful error when the manifest is absent.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
