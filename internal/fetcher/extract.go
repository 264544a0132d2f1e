package fetcher

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

var (
	errUnknownArchive = errors.New("unsupported archive format")
	errUnsafePath     = errors.New("archive entry escapes destination")
)

// Extract unpacks an archive into the destination directory, stripping
// the archive's single root directory so the content lands directly in
// dest. CEF ships .tar.bz2; .tar.gz, .tar.xz and .zip are accepted for
// alternate mirrors.
func Extract(archivePath, dest string) error {
	switch {
	case strings.HasSuffix(archivePath, ".tar.bz2"):
		return extractTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	case strings.HasSuffix(archivePath, ".tar.gz"):
		return extractTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(archivePath, ".tar.xz"):
		return extractTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(archivePath, ".zip"):
		return extractZip(archivePath, dest)
	default:
		return fmt.Errorf("%w: %s", errUnknownArchive, filepath.Base(archivePath))
	}
}

// extractTar streams a (de)compressed tarball into dest.
func extractTar(archivePath, dest string, decompress func(io.Reader) (io.Reader, error)) error {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	reader, err := decompress(file)
	if err != nil {
		return fmt.Errorf("open compressed stream: %w", err)
	}

	archive := tar.NewReader(reader)

	for {
		header, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		target, err := stripRoot(header.Name, dest)
		if err != nil {
			return err
		}

		if target == "" {
			// The root directory itself.
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
		case tar.TypeSymlink:
			if err = writeSymlink(header.Linkname, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err = writeFile(archive, target, header.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Hard links, devices etc. do not occur in CEF archives.
			continue
		}
	}
}

// extractZip unpacks a zip archive into dest.
func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		target, err := stripRoot(entry.Name, dest)
		if err != nil {
			return err
		}

		if target == "" {
			continue
		}

		if entry.FileInfo().IsDir() {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			continue
		}

		content, err := entry.Open()
		if err != nil {
			return fmt.Errorf("read archive entry: %w", err)
		}

		err = writeFile(content, target, entry.FileInfo().Mode())

		_ = content.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

// stripRoot drops the first path element of an archive entry and anchors
// the rest under dest. Entries resolving outside dest are rejected.
// An empty result means the entry was the root directory itself.
func stripRoot(name, dest string) (string, error) {
	name = filepath.ToSlash(name)

	_, rest, found := strings.Cut(strings.TrimPrefix(name, "./"), "/")
	if !found || rest == "" {
		return "", nil
	}

	target := filepath.Join(dest, filepath.FromSlash(rest))

	cleanDest := filepath.Clean(dest) + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(target)+string(os.PathSeparator), cleanDest) {
		return "", fmt.Errorf("%w: %s", errUnsafePath, name)
	}

	return target, nil
}

// writeFile copies an archive entry to disk preserving its mode.
func writeFile(content io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	_, err = io.Copy(file, content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	return nil
}

// writeSymlink recreates a symlink entry, replacing a previous one.
func writeSymlink(linkName, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace symlink: %w", err)
	}

	if err := os.Symlink(linkName, target); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}

	return nil
}
