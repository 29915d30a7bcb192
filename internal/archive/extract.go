// Package archive unpacks downloaded bundle archives. It is the default
// Extractor behind the install orchestrator: tar.gz extraction with
// path-traversal checks and permission restoration, plus the flattening
// of the single wrapping top-level directory bundle archives usually
// carry.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultBufferSize is the copy buffer when the caller passes zero.
const DefaultBufferSize = 64 * 1024

// flattenTmp is the transient name the wrapping directory is renamed to
// while its children move up, so a child sharing the wrapper's name never
// collides.
const flattenTmp = ".flatten-tmp"

// Extractor unpacks tar.gz archives.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks a .tar.gz archive into destDir, restoring file modes
// recorded in the archive.
func (e *Extractor) Extract(destDir, archivePath string, bufferSize int) error {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	buf := make([]byte, bufferSize)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target := filepath.Join(destDir, header.Name)

		// Prevent path traversal out of the install directory.
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.CopyBuffer(outFile, tarReader, buf); err != nil {
				outFile.Close()
				return fmt.Errorf("write file %s: %w", target, err)
			}
			outFile.Close()

		case tar.TypeSymlink:
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

		default:
			// Skip char devices, block devices, fifos.
			continue
		}
	}

	return nil
}

// FlattenTopLevel lifts the contents of a single wrapping directory up
// into destDir. The rule is deterministic: if destDir contains exactly
// one entry and that entry is a directory, its children move up one level
// and the wrapper is removed; in every other case nothing happens.
func (e *Extractor) FlattenTopLevel(destDir string) error {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return fmt.Errorf("read dest dir: %w", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	wrapper := filepath.Join(destDir, entries[0].Name())
	tmp := filepath.Join(destDir, flattenTmp)
	if err := os.Rename(wrapper, tmp); err != nil {
		return fmt.Errorf("rename wrapper dir: %w", err)
	}

	children, err := os.ReadDir(tmp)
	if err != nil {
		return fmt.Errorf("read wrapper dir: %w", err)
	}
	for _, child := range children {
		from := filepath.Join(tmp, child.Name())
		to := filepath.Join(destDir, child.Name())
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("move %s: %w", child.Name(), err)
		}
	}

	if err := os.Remove(tmp); err != nil {
		return fmt.Errorf("remove wrapper dir: %w", err)
	}
	return nil
}
