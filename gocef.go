package gocef

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/zaroxh/gocef/install"
	"github.com/zaroxh/gocef/internal/archive"
	"github.com/zaroxh/gocef/internal/fetch"
	"github.com/zaroxh/gocef/internal/verify"
	"github.com/zaroxh/gocef/platform"
	"github.com/zaroxh/gocef/release"
)

// Progress carries the six progress hooks, each independently
// overridable and defaulting to a no-op.
type Progress = install.Progress

// Logger is the pluggable structured logger.
type Logger = install.Logger

// Runtime is the native CEF layer this package installs and starts. The
// actual binding (cgo, purego, or an out-of-process bridge) is supplied
// by the host; this package owns when and how often it runs, never what
// it does.
type Runtime interface {
	// Startup initializes the native layer. Called at most once per
	// process, with the completion marker already on disk.
	Startup(args []string, settings Settings) error

	// OnReady registers a callback invoked once the native layer reports
	// its context initialized.
	OnReady(fn func())

	// Shutdown tears the native layer down. Called through App.Dispose.
	Shutdown()
}

// App is the shared handle to the initialized native runtime. At most
// one live App exists per Builder; every GetOrBuild caller observes the
// same one.
type App struct {
	runtime Runtime
	dir     string
	once    sync.Once
}

// InstallDir returns the directory the Builder was configured with. For
// an attached runtime the directory may hold nothing this package put
// there.
func (a *App) InstallDir() string { return a.dir }

// Dispose shuts the native runtime down. Safe to call more than once.
func (a *App) Dispose() {
	a.once.Do(a.runtime.Shutdown)
}

// Config describes a Builder. It is read once by New and never mutated
// afterwards; changing fields after New is undefined.
type Config struct {
	// InstallDir is where the native bundle lives. Required.
	InstallDir string

	// CacheDir holds downloaded archives so a crashed install resumes
	// without re-downloading. Defaults to a gocef directory under the
	// OS temp dir.
	CacheDir string

	// Source identifies the release to install from. Ignored when
	// CustomEndpoint is set.
	Source release.Source

	// CustomEndpoint, with Transform, replaces release asset resolution
	// entirely: the endpoint is fetched and the transform produces the
	// artifact URL.
	CustomEndpoint string
	Transform      release.Transform

	// Client is the HTTP client for manifest fetching and downloading.
	// Nil selects per-component defaults.
	Client *http.Client

	// Args is the native argument list, replacing the defaults entirely
	// when non-empty. Flags implied by Settings are appended.
	Args     []string
	Settings Settings

	// Runtime performs native startup. Required for GetOrBuild and
	// AttachExisting.
	Runtime Runtime

	// Loader loads shared libraries for AttachExisting. Optional.
	Loader LibraryLoader

	// Downloader and Extractor override the built-in collaborators.
	Downloader install.Downloader
	Extractor  install.Extractor

	// VerifyChecksum enables SHA-256 verification against the artifact's
	// sibling checksum asset before extraction. KeyringPath additionally
	// enables detached-signature verification.
	VerifyChecksum bool
	KeyringPath    string

	DownloadBufferSize int
	ExtractBufferSize  int

	Progress Progress
	Logger   Logger
}

func (c *Config) validate() error {
	if c.InstallDir == "" {
		return fmt.Errorf("gocef: InstallDir is required")
	}
	if c.Runtime == nil {
		return fmt.Errorf("gocef: Runtime is required")
	}
	if c.CustomEndpoint != "" {
		if c.Transform == nil {
			return fmt.Errorf("gocef: CustomEndpoint requires a Transform")
		}
	} else if c.Source.Owner == "" || c.Source.Repo == "" {
		return fmt.Errorf("gocef: release Source (owner and repo) is required")
	}
	if c.KeyringPath != "" && !c.VerifyChecksum {
		return fmt.Errorf("gocef: KeyringPath requires VerifyChecksum")
	}
	return nil
}

// inflight tracks one build attempt. Waiters block on done and then read
// app/err; the close of done publishes both.
type inflight struct {
	done chan struct{}
	app  *App
	err  error
}

// Builder installs the bundle and initializes the native runtime at most
// once, collapsing concurrent callers onto the same result.
type Builder struct {
	cfg    Config
	logger Logger

	app      atomic.Pointer[App]
	mu       sync.Mutex
	inflight *inflight

	// resolvedURL feeds the checksum verifier, which needs the artifact
	// URL only known after resolution.
	resolvedURL atomic.Value
}

// New validates the configuration and creates a Builder.
func New(cfg Config) (*Builder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "gocef-download")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = install.NopLogger()
	}
	return &Builder{cfg: cfg, logger: logger}, nil
}

// GetOrBuild returns the shared native runtime handle, installing the
// bundle and starting the native layer on first use.
//
// The installation runs outside the critical section: it can take tens
// of seconds of network and disk time, and holding the lock through it
// would serialize nothing useful. Only native startup and handle
// publication are serialized. Every concurrent caller of the same
// attempt observes the identical App or the identical error; after a
// failure the next call starts a fresh attempt.
//
// Cancelling ctx fails the current attempt for every waiter. The marker
// file is only written on success, so a later call retries cleanly.
func (b *Builder) GetOrBuild(ctx context.Context) (*App, error) {
	if app := b.app.Load(); app != nil {
		return app, nil
	}

	b.mu.Lock()
	// Re-check under the lock: the initiating goroutine may have
	// finished between the fast path and here.
	if app := b.app.Load(); app != nil {
		b.mu.Unlock()
		return app, nil
	}
	if b.inflight != nil {
		in := b.inflight
		b.mu.Unlock()
		<-in.done
		return in.app, in.err
	}
	in := &inflight{done: make(chan struct{})}
	b.inflight = in
	b.mu.Unlock()

	err := install.Run(ctx, b.installConfig())

	b.mu.Lock()
	if err == nil {
		in.app, err = b.startNative()
		if err == nil {
			b.app.Store(in.app)
		}
	}
	in.err = err
	b.inflight = nil
	close(in.done)
	b.mu.Unlock()

	return in.app, in.err
}

// startNative runs under b.mu. The handle becomes visible to other
// goroutines only after Startup returned successfully.
func (b *Builder) startNative() (*App, error) {
	progress := b.cfg.Progress.Normalized()
	progress.Initializing()

	args := effectiveArgs(b.cfg.Args, b.cfg.Settings)
	if err := b.cfg.Runtime.Startup(args, b.cfg.Settings); err != nil {
		return nil, fmt.Errorf("start native runtime: %w", err)
	}

	app := &App{runtime: b.cfg.Runtime, dir: b.cfg.InstallDir}
	registerExitHook(app.Dispose)

	var once sync.Once
	b.cfg.Runtime.OnReady(func() {
		once.Do(progress.Initialized)
	})

	b.logger.Info("native runtime started", "dir", b.cfg.InstallDir)
	return app, nil
}

func (b *Builder) installConfig() install.Config {
	downloader := b.cfg.Downloader
	if downloader == nil {
		downloader = fetch.NewDownloader(b.cfg.Client, b.cfg.CacheDir)
	}
	extractor := b.cfg.Extractor
	if extractor == nil {
		extractor = archive.NewExtractor()
	}

	var verifier install.Verifier
	if b.cfg.VerifyChecksum {
		verifier = verify.New(b.cfg.Client, func() string {
			url, _ := b.resolvedURL.Load().(string)
			return url
		}, b.cfg.KeyringPath)
	}

	return install.Config{
		Dir:                b.cfg.InstallDir,
		Resolve:            b.resolveArtifact,
		Downloader:         downloader,
		Extractor:          extractor,
		Verifier:           verifier,
		DownloadBufferSize: b.cfg.DownloadBufferSize,
		ExtractBufferSize:  b.cfg.ExtractBufferSize,
		Progress:           b.cfg.Progress,
		Logger:             b.logger,
		Platform:           mustPlatform(),
	}
}

// resolveArtifact picks the artifact URL, through the custom transform
// when configured and the manifest resolver otherwise.
func (b *Builder) resolveArtifact(ctx context.Context) (string, error) {
	info, err := CurrentPlatform(ctx)
	if err != nil {
		return "", err
	}

	client := release.NewClient(b.cfg.Client)

	var url string
	if b.cfg.CustomEndpoint != "" {
		url, err = client.ResolveCustom(ctx, b.cfg.CustomEndpoint, b.cfg.Transform)
	} else {
		var manifest *release.Manifest
		manifest, err = client.Fetch(ctx, b.cfg.Source)
		if err == nil {
			url, err = release.Resolve(manifest, info)
		}
	}
	if err != nil {
		return "", err
	}

	b.resolvedURL.Store(url)
	return url, nil
}

// Platform detection runs once per process; every Builder shares the
// result.
var (
	platformOnce sync.Once
	platformInfo *platform.Info
	platformErr  error
)

// CurrentPlatform returns the host platform, probing the environment on
// first call and caching the result for the process lifetime.
func CurrentPlatform(ctx context.Context) (*platform.Info, error) {
	platformOnce.Do(func() {
		platformInfo, platformErr = platform.NewDetector().Detect(ctx)
	})
	return platformInfo, platformErr
}

// mustPlatform is for call sites that run after resolveArtifact already
// forced detection; an undetectable platform fails there first.
func mustPlatform() *platform.Info {
	info, err := CurrentPlatform(context.Background())
	if err != nil {
		return &platform.Info{}
	}
	return info
}

// Exit hooks. Go has no process atexit, so hosts call Shutdown before
// exiting; every App created by GetOrBuild or AttachExisting is
// registered for disposal here.
var (
	hooksMu   sync.Mutex
	exitHooks []func()
)

func registerExitHook(fn func()) {
	hooksMu.Lock()
	exitHooks = append(exitHooks, fn)
	hooksMu.Unlock()
}

// Shutdown disposes every native runtime created in this process, in
// reverse creation order. Call it once, at process exit.
func Shutdown() {
	hooksMu.Lock()
	hooks := exitHooks
	exitHooks = nil
	hooksMu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}
