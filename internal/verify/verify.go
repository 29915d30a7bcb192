// Package verify checks downloaded bundle archives before extraction.
//
// Bundle releases publish a sibling ".checksum" asset next to every
// archive; verification recomputes the SHA-256 of the downloaded file and
// compares it against that asset. When the operator supplies a PGP
// keyring and the release also carries a detached signature, the
// signature is checked as well, giving authenticity on top of integrity.
package verify

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ChecksumSuffix is appended to the artifact URL to locate its integrity
// sibling.
const ChecksumSuffix = ".checksum"

// signatureSuffixes are tried in order when a keyring is configured.
var signatureSuffixes = []string{".asc", ".sig"}

// maxAuxSize caps checksum and signature downloads; both are tiny files.
const maxAuxSize = 1 << 20

// SiblingVerifier verifies an archive against the sibling assets of its
// artifact URL. The URL is only known after resolution, so it is read
// through a function.
type SiblingVerifier struct {
	client      *http.Client
	artifactURL func() string
	keyringPath string
}

// New creates a verifier. artifactURL returns the resolved bundle URL
// (empty means resolution has not happened, which is an error at Verify
// time). keyringPath may be empty to skip signature checking.
func New(hc *http.Client, artifactURL func() string, keyringPath string) *SiblingVerifier {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &SiblingVerifier{client: hc, artifactURL: artifactURL, keyringPath: keyringPath}
}

// Verify checks the archive's SHA-256 against the sibling checksum asset
// and, when a keyring is configured and a detached signature exists, the
// signature too.
func (v *SiblingVerifier) Verify(ctx context.Context, archivePath string) error {
	base := v.artifactURL()
	if base == "" {
		return fmt.Errorf("artifact URL not resolved")
	}

	checksumData, err := v.fetch(ctx, base+ChecksumSuffix)
	if err != nil {
		return fmt.Errorf("fetch checksum file: %w", err)
	}

	expected, err := findChecksum(checksumData, filepath.Base(archivePath))
	if err != nil {
		return err
	}
	actual, err := fileSHA256(archivePath)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %s:\nactual:   %s\nexpected: %s",
			filepath.Base(archivePath), actual, expected)
	}

	if v.keyringPath != "" {
		if err := v.verifySignature(ctx, base, archivePath); err != nil {
			return err
		}
	}
	return nil
}

func (v *SiblingVerifier) verifySignature(ctx context.Context, base, archivePath string) error {
	var sig []byte
	for _, suffix := range signatureSuffixes {
		data, err := v.fetch(ctx, base+suffix)
		if err == nil {
			sig = data
			break
		}
	}
	if sig == nil {
		// Keyring configured but this release publishes no signature.
		return fmt.Errorf("no detached signature published for %s", base)
	}

	keyring, err := loadKeyring(v.keyringPath)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archive, bytes.NewReader(sig), nil)
	if err != nil {
		if _, seekErr := archive.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("rewind archive: %w", seekErr)
		}
		_, err = openpgp.CheckDetachedSignature(keyring, archive, bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

func (v *SiblingVerifier) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAuxSize))
}

func loadKeyring(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err == nil {
		return keyring, nil
	}
	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
		return nil, seekErr
	}
	return openpgp.ReadKeyRing(f)
}

// findChecksum extracts the expected hash for filename. It accepts both
// the bare-hash format and the "hash  filename" multi-line format of
// sha256sum.
func findChecksum(data []byte, filename string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var firstHash string
	lines := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines++
		fields := strings.Fields(line)
		if lines == 1 && len(fields) == 1 {
			firstHash = fields[0]
		}
		if len(fields) >= 2 && strings.HasSuffix(fields[len(fields)-1], filename) {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read checksum file: %w", err)
	}
	if lines == 1 && firstHash != "" {
		return firstHash, nil
	}
	return "", fmt.Errorf("no checksum entry for %s", filename)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash archive: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
