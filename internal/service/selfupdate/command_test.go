package selfupdate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaequos/exabuild/internal/config"
)

// writeManifest persists a minimal build manifest for the tests.
func writeManifest(t *testing.T, updateURL string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "exabuild.yaml")
	m := &config.Manifest{
		AppName:           "ExaequOS",
		CEFVersion:        "120.0.0",
		UpdateManifestURL: updateURL,
	}
	require.NoError(t, config.Save(path, m))

	return path
}

// TestRunNotConfigured fails clearly when no update manifest is set.
func TestRunNotConfigured(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "")

	err := Run(context.Background(), &Options{ConfigPath: path})
	require.ErrorIs(t, err, errNotConfigured)
}

// TestRunAlreadyCurrent is a no-op when the published version is not newer.
func TestRunAlreadyCurrent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("version: 0.0.1\nbinaries: {}\n"))
	}))
	defer server.Close()

	path := writeManifest(t, server.URL)

	require.NoError(t, Run(context.Background(), &Options{ConfigPath: path}))
}

// TestRunMissingPlatformEntry fails when the release does not cover this platform.
func TestRunMissingPlatformEntry(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("version: 99.0.0\nbinaries: {}\n"))
	}))
	defer server.Close()

	path := writeManifest(t, server.URL)

	err := Run(context.Background(), &Options{ConfigPath: path})
	require.ErrorIs(t, err, errNoPlatformEntry)
}

// TestFetchReleaseBadStatus surfaces HTTP failures with the status text.
func TestFetchReleaseBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := fetchRelease(context.Background(), server.Client(), server.URL)
	require.ErrorIs(t, err, errBadHTTPStatus)
}
