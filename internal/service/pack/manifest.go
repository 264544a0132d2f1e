package pack

import (
	"context"
	"crypto"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/exaequos/exabuild/internal/config"
	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/version"

	// Ensure SHA-1 is available for artifact checksum calculation.
	_ "crypto/sha1"
)

const (
	// ArtifactManifestFilename describes the produced artifact set; CI
	// jobs use it to verify uploads.
	ArtifactManifestFilename = "exabuild-artifacts.yaml"

	// DefaultChecksumFunction is used to calculate artifact hashes.
	// SHA-1 matches the sidecars CEF itself publishes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA1

	// artifactFileMode is used when producing artifacts for distribution.
	artifactFileMode os.FileMode = 0o644
)

// ArtifactManifest records what a successful build produced.
type ArtifactManifest struct {
	// VersionNumber is the orchestrator version that produced the set.
	VersionNumber string `yaml:"version"`
	// BuildType is the CMake build type used (Release or Debug).
	BuildType string `yaml:"build_type"`
	// CEFVersion is the pinned CEF version the shell embeds.
	CEFVersion string `yaml:"cef_version"`
	// Files maps artifact names to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// writeArtifactManifest hashes every top-level file in the output
// directory and records the set next to the artifacts.
func writeArtifactManifest(ctx context.Context, m *config.Manifest) error {
	manifest := &ArtifactManifest{
		VersionNumber: version.Short(),
		BuildType:     m.BuildType,
		CEFVersion:    m.CEFVersion,
		Files:         make(map[string]string),
	}

	entries, err := os.ReadDir(m.OutputDir)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		checksum, err := GetFileChecksum(filepath.Join(m.OutputDir, entry.Name()))
		if err != nil {
			return err
		}

		manifest.Files[entry.Name()] = base64.StdEncoding.EncodeToString(checksum)
	}

	contents, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal artifact manifest: %w", err)
	}

	destination := filepath.Join(m.OutputDir, ArtifactManifestFilename)
	if err = os.WriteFile(destination, contents, artifactFileMode); err != nil {
		return fmt.Errorf("write artifact manifest: %w", err)
	}

	logger.InfoKV(ctx, "Saved artifact manifest",
		"path", destination, "files", len(manifest.Files))

	return nil
}
