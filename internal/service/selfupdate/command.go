package selfupdate

import (
	"bytes"
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/platform"
	"github.com/exaequos/exabuild/internal/version"

	// Ensure SHA-1 is available for release checksum verification.
	_ "crypto/sha1"
)

// Options contains inputs for the selfupdate entry point.
type Options struct {
	// ConfigPath is an optional path to the build manifest (defaults to exabuild.yaml).
	ConfigPath string
	// Force applies the published release even when it is not newer.
	Force bool
}

const (
	// checksumFunction hashes release binaries, matching the packager output.
	checksumFunction crypto.Hash = crypto.SHA1

	// fetchTimeout bounds the manifest and binary downloads.
	fetchTimeout = 5 * time.Minute

	// releaseFileMode is applied to the replaced executable.
	releaseFileMode os.FileMode = 0o755
)

var (
	errNotConfigured   = errors.New("update_manifest_url is not set in the manifest")
	errBadHTTPStatus   = errors.New("unexpected http status")
	errNoPlatformEntry = errors.New("release manifest has no entry for this platform")
	errNoChecksum      = errors.New("checksum missing for release binary")
	errBadChecksum     = errors.New("release binary does not match manifest checksum")
)

// Release describes a published orchestrator build.
type Release struct {
	// VersionNumber is the semantic version of the release.
	VersionNumber string `yaml:"version"`
	// Binaries maps "<os>/<arch>" to the download for that platform.
	Binaries map[string]ReleaseBinary `yaml:"binaries"`
}

// ReleaseBinary locates and authenticates one platform's executable.
type ReleaseBinary struct {
	// URL is where the executable is downloaded from.
	URL string `yaml:"url"`
	// Checksum is the base64-encoded SHA-1 of the executable.
	Checksum string `yaml:"checksum"`
}

// Run replaces the running orchestrator executable with the published
// release when the release is newer (or Force is set).
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "selfupdate")

	m, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if m.UpdateManifestURL == "" {
		return errNotConfigured
	}

	client := &http.Client{Timeout: fetchTimeout}

	release, err := fetchRelease(ctx, client, m.UpdateManifestURL)
	if err != nil {
		return err
	}

	if !opts.Force && semver.Compare("v"+release.VersionNumber, "v"+version.Short()) <= 0 {
		logger.InfoKV(ctx, "Already up to date",
			"local", version.Short(), "published", release.VersionNumber)

		return nil
	}

	target := platform.Host()

	binary, ok := release.Binaries[target.OS+"/"+target.Arch]
	if !ok {
		return fmt.Errorf("%w: %s/%s", errNoPlatformEntry, target.OS, target.Arch)
	}

	if binary.Checksum == "" {
		return errNoChecksum
	}

	checksum, err := base64.StdEncoding.DecodeString(binary.Checksum)
	if err != nil {
		return fmt.Errorf("%w: %w", errBadChecksum, err)
	}

	logger.InfoKV(ctx, "Downloading release",
		"version", release.VersionNumber, "url", binary.URL)

	data, err := fetchBytes(ctx, client, binary.URL)
	if err != nil {
		return err
	}

	options := goupdate.Options{
		TargetMode: releaseFileMode,
		Checksum:   checksum,
		Hash:       checksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	logger.InfoKV(ctx, "Updated successfully", "version", release.VersionNumber)

	return nil
}

// fetchRelease downloads and decodes the release manifest.
func fetchRelease(ctx context.Context, client *http.Client, rawURL string) (*Release, error) {
	data, err := fetchBytes(ctx, client, rawURL)
	if err != nil {
		return nil, err
	}

	var release Release
	if err = yaml.Unmarshal(data, &release); err != nil {
		return nil, fmt.Errorf("unmarshal release manifest: %w", err)
	}

	return &release, nil
}

// fetchBytes downloads a URL into memory.
func fetchBytes(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s fetching %s", errBadHTTPStatus, response.Status, rawURL)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	return data, nil
}
