// Package fetch downloads release artifacts to local disk. It is the
// default Downloader behind the install orchestrator: retries with
// exponential backoff, temp-file writes with an atomic rename, and a
// cache keyed by artifact filename so an interrupted install never
// re-downloads bytes it already has.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout bounds a single download attempt.
	DefaultTimeout = 10 * time.Minute
	// DefaultRetries is the number of re-attempts after the first failure.
	DefaultRetries = 3
	// DefaultBufferSize is the copy buffer when the caller passes zero.
	DefaultBufferSize = 64 * 1024

	userAgent = "gocef"
)

// Downloader fetches artifact URLs into a cache directory.
type Downloader struct {
	client   *http.Client
	cacheDir string
	retries  int
}

// NewDownloader creates a downloader writing into cacheDir. A nil HTTP
// client selects a default with a long timeout sized for bundle
// downloads.
func NewDownloader(hc *http.Client, cacheDir string) *Downloader {
	if hc == nil {
		hc = &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	return &Downloader{client: hc, cacheDir: cacheDir, retries: DefaultRetries}
}

// Download fetches rawURL and returns the local archive path. progress
// receives fractions in [0,1]; when the server does not announce a
// length, only the terminal 1 is emitted.
func (d *Downloader) Download(ctx context.Context, rawURL string, bufferSize int, progress func(float64)) (string, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	name, err := artifactName(rawURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(d.cacheDir, name)

	// A complete earlier download is reused as-is.
	if fileExists(dest) {
		progress(1)
		return dest, nil
	}

	var lastErr error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := d.downloadOnce(ctx, rawURL, dest, bufferSize, progress); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		progress(1)
		return dest, nil
	}

	return "", fmt.Errorf("download failed after %d retries: %w", d.retries, lastErr)
}

func (d *Downloader) downloadOnce(ctx context.Context, rawURL, dest string, bufferSize int, progress func(float64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmpPath := dest + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 {
		src = &fractionReader{r: resp.Body, total: resp.ContentLength, progress: progress}
	}

	if _, err := io.CopyBuffer(tmpFile, src, make([]byte, bufferSize)); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// fractionReader reports download progress as a fraction of the announced
// content length.
type fractionReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress func(float64)
}

func (f *fractionReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	f.read += int64(n)
	if n > 0 {
		fraction := float64(f.read) / float64(f.total)
		if fraction > 1 {
			fraction = 1
		}
		f.progress(fraction)
	}
	return n, err
}

func artifactName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse artifact URL: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("artifact URL %q carries no filename", rawURL)
	}
	return name, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
