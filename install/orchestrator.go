package install

import (
	"context"
	"fmt"

	"github.com/zaroxh/gocef/platform"
)

// Downloader fetches one artifact URL to local disk and returns the path
// of the downloaded archive. Progress is a fraction in [0,1].
type Downloader interface {
	Download(ctx context.Context, url string, bufferSize int, progress func(fraction float64)) (string, error)
}

// Extractor unpacks a downloaded archive into the install directory and
// flattens the single wrapping top-level directory bundles commonly ship
// with.
type Extractor interface {
	Extract(destDir, archivePath string, bufferSize int) error
	FlattenTopLevel(destDir string) error
}

// Verifier checks a downloaded archive before extraction. Optional.
type Verifier interface {
	Verify(ctx context.Context, archivePath string) error
}

// CommandRunner executes one external command. Injected so platform
// fixups are testable off their native OS.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Config describes one installation run. It is frozen once Run starts;
// mutating it afterwards is undefined.
type Config struct {
	// Dir is the install directory; the marker file lives at its root.
	Dir string

	// Resolve produces the artifact URL for this platform. Wired to the
	// release resolver or a custom transform by the caller.
	Resolve func(ctx context.Context) (string, error)

	Downloader Downloader
	Extractor  Extractor

	// Verifier, when set, runs between download and extraction.
	Verifier Verifier

	// DownloadBufferSize and ExtractBufferSize size the copy buffers of
	// the respective collaborators. Zero selects their defaults.
	DownloadBufferSize int
	ExtractBufferSize  int

	Progress Progress
	Logger   Logger

	// Platform gates OS-specific fixups. Required.
	Platform *platform.Info

	// RunCommand overrides external command execution. Nil uses os/exec.
	RunCommand CommandRunner
}

func (c *Config) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("install: directory is required")
	}
	if c.Resolve == nil {
		return fmt.Errorf("install: resolve function is required")
	}
	if c.Downloader == nil {
		return fmt.Errorf("install: downloader is required")
	}
	if c.Extractor == nil {
		return fmt.Errorf("install: extractor is required")
	}
	if c.Platform == nil {
		return fmt.Errorf("install: platform info is required")
	}
	return nil
}

// Run ensures the native bundle is installed into cfg.Dir. It is
// idempotent: once the completion marker exists, the whole sequence is
// skipped. On any failure the marker stays absent, so a retried call
// restarts from scratch instead of trusting partial state.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	progress := cfg.Progress.normalized()
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}

	progress.Locating()
	if Installed(cfg.Dir) {
		logger.Debug("bundle already installed", "dir", cfg.Dir)
		return nil
	}

	lock, err := acquireLock(cfg.Dir)
	if err != nil {
		return err
	}
	defer lock.Release()

	// A concurrent process may have completed the installation while we
	// waited for the lock file.
	if Installed(cfg.Dir) {
		logger.Debug("bundle installed by another process", "dir", cfg.Dir)
		return nil
	}

	// Anything below the marker check is a full reinstall: partial trees
	// from earlier failed runs are wiped first.
	if err := Reset(cfg.Dir); err != nil {
		return fmt.Errorf("reset install directory: %w", err)
	}
	if err := EnsureDir(cfg.Dir); err != nil {
		return err
	}

	url, err := cfg.Resolve(ctx)
	if err != nil {
		return err
	}
	logger.Info("installing native bundle", "url", url, "dir", cfg.Dir)

	progress.Downloading(0)
	archivePath, err := cfg.Downloader.Download(ctx, url, cfg.DownloadBufferSize, progress.Downloading)
	if err != nil {
		return fmt.Errorf("download bundle: %w", err)
	}

	if cfg.Verifier != nil {
		if err := cfg.Verifier.Verify(ctx, archivePath); err != nil {
			return fmt.Errorf("verify bundle: %w", err)
		}
	}

	progress.Extracting()
	if err := cfg.Extractor.Extract(cfg.Dir, archivePath, cfg.ExtractBufferSize); err != nil {
		return fmt.Errorf("extract bundle: %w", err)
	}
	if err := cfg.Extractor.FlattenTopLevel(cfg.Dir); err != nil {
		return fmt.Errorf("flatten bundle directory: %w", err)
	}

	progress.Install()
	if cfg.Platform.IsMacOS() {
		// Freshly downloaded unsigned bundles carry the quarantine
		// attribute and would be blocked from execution.
		if err := clearQuarantine(ctx, cfg.Dir, cfg.RunCommand); err != nil {
			return fmt.Errorf("clear quarantine attribute: %w", err)
		}
	}

	if err := Mark(cfg.Dir); err != nil {
		return err
	}

	logger.Info("native bundle installed", "dir", cfg.Dir)
	return nil
}
