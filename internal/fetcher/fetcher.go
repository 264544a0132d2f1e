package fetcher

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // CEF publishes SHA-1 sidecars; integrity only.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/platform"
)

const (
	// downloadTimeout bounds a single tarball download; CEF archives are
	// several hundred megabytes.
	downloadTimeout = 30 * time.Minute

	// tarballExtension is the archive format CEF distributions ship in.
	tarballExtension = ".tar.bz2"
)

var (
	errBadHTTPStatus   = errors.New("unexpected http status")
	errChecksumFailed  = errors.New("downloaded CEF tarball does not match expected SHA-1")
	errEmptyChecksum   = errors.New("checksum sidecar is empty")
	errMissingManifest = errors.New("manifest is not set")
)

// Fetcher downloads and unpacks the pinned CEF distribution.
type Fetcher struct {
	// client performs the HTTP requests.
	client *http.Client
	// baseURL hosts the CEF tarballs and their checksum sidecars.
	baseURL string
}

// New returns a fetcher downloading from the given base URL.
func New(baseURL string) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: downloadTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// TarballName builds the CEF distribution archive name for a version and
// distribution slug. '+' characters in the version are percent-encoded the
// same way the CDN index does.
func TarballName(version, slug string) string {
	return "cef_binary_" + url.QueryEscape(version) + "_" + slug + tarballExtension
}

// FetchCEF ensures the pinned CEF distribution is present in m.CEFDir.
// A checkout already containing the pinned version is left untouched.
// On checksum mismatch the downloaded files are removed before failing,
// so a re-run starts clean.
func (f *Fetcher) FetchCEF(ctx context.Context, m *config.Manifest, target platform.Target) error {
	if m == nil {
		return errMissingManifest
	}

	if HasVersion(m.CEFDir, m.CEFVersion) {
		logger.InfoKV(ctx, "CEF already downloaded", "version", m.CEFVersion)
		return nil
	}

	slug, err := target.DistributionSlug()
	if err != nil {
		return err
	}

	if err = os.MkdirAll(m.CEFDir, 0o755); err != nil {
		return fmt.Errorf("create CEF directory: %w", err)
	}

	var (
		tarballName = TarballName(m.CEFVersion, slug)
		tarballPath = filepath.Join(m.CEFDir, tarballName)
		sidecarPath = tarballPath + ".sha1"
		tarballURL  = f.baseURL + "/" + tarballName
	)

	logger.InfoKV(ctx, "Downloading Chromium Embedded Framework",
		"version", m.CEFVersion, "url", tarballURL)

	if err = f.download(ctx, tarballURL, tarballPath); err != nil {
		return err
	}

	if err = f.download(ctx, tarballURL+".sha1", sidecarPath); err != nil {
		return err
	}

	if err = VerifySHA1(tarballPath, sidecarPath); err != nil {
		// Leave no partial state behind: the next run must re-download.
		_ = os.Remove(tarballPath)
		_ = os.Remove(sidecarPath)

		return err
	}

	logger.InfoKV(ctx, "Unpacking CEF distribution", "archive", tarballName)

	if err = Extract(tarballPath, m.CEFDir); err != nil {
		return err
	}

	// The archive served its purpose.
	_ = os.Remove(tarballPath)
	_ = os.Remove(sidecarPath)

	return nil
}

// HasVersion reports whether the CEF checkout's README.txt mentions the
// pinned version, meaning the distribution is already unpacked.
func HasVersion(cefDir, version string) bool {
	file, err := os.Open(filepath.Clean(filepath.Join(cefDir, "README.txt")))
	if err != nil {
		return false
	}

	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), version) {
			return true
		}
	}

	return false
}

// download fetches a single URL into the destination path, showing a
// progress bar on interactive terminals. CI runs keep their logs clean.
func (f *Fetcher) download(ctx context.Context, rawURL, destination string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	response, err := f.client.Do(request)
	if err != nil {
		return fmt.Errorf("download %s: %w", rawURL, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s fetching %s", errBadHTTPStatus, response.Status, rawURL)
	}

	file, err := os.Create(filepath.Clean(destination))
	if err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}

	bar := newProgressBar(response.ContentLength, filepath.Base(destination))

	_, err = io.Copy(io.MultiWriter(file, bar), response.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(destination)
		return fmt.Errorf("write %s: %w", destination, err)
	}

	return nil
}

// newProgressBar returns a byte progress bar, invisible when running under CI.
func newProgressBar(length int64, description string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, description)
}

// VerifySHA1 compares the SHA-1 of the archive against the hex digest
// stored in its sidecar file.
func VerifySHA1(archivePath, sidecarPath string) error {
	sidecar, err := os.ReadFile(filepath.Clean(sidecarPath))
	if err != nil {
		return fmt.Errorf("read checksum sidecar: %w", err)
	}

	expected := strings.TrimSpace(string(sidecar))
	if expected == "" {
		return errEmptyChecksum
	}

	// The sidecar may carry "digest  filename"; only the digest matters.
	if fields := strings.Fields(expected); len(fields) > 0 {
		expected = fields[0]
	}

	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha1.New() //nolint:gosec // Matching the published sidecar format.
	if _, err = io.Copy(hasher, file); err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: have %s, want %s", errChecksumFailed, actual, expected)
	}

	return nil
}
