package gocef

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/zaroxh/gocef/platform"
)

// LibraryLoader loads a native shared library by path. Implementations
// typically wrap dlopen or LoadLibrary; tests substitute a recorder.
type LibraryLoader interface {
	Load(path string) error
}

// library is one shared object of the native bundle. GPU-process
// libraries are skipped when the caller disables GPU acceleration.
type library struct {
	name string
	gpu  bool
}

// attachLibraries lists the shared objects to load from an existing
// bundle, in load order, keyed by OS.
var attachLibraries = map[platform.OS][]library{
	platform.Linux: {
		{name: "libcef.so"},
		{name: "libEGL.so", gpu: true},
		{name: "libGLESv2.so", gpu: true},
		{name: "libvk_swiftshader.so", gpu: true},
	},
	platform.MacOS: {
		{name: "Chromium Embedded Framework.framework/Chromium Embedded Framework"},
		{name: "libEGL.dylib", gpu: true},
		{name: "libGLESv2.dylib", gpu: true},
		{name: "libvk_swiftshader.dylib", gpu: true},
	},
	platform.Windows: {
		{name: "libcef.dll"},
		{name: "libEGL.dll", gpu: true},
		{name: "libGLESv2.dll", gpu: true},
		{name: "vk_swiftshader.dll", gpu: true},
	},
}

const disableGPUFlag = "--disable-gpu"

// AttachExisting starts the native runtime without installing anything:
// it is the path for hosts that ship the bundle themselves or already
// hold the native libraries in the process. It never reads or writes
// the installation marker and never modifies the install directory.
//
// Attach is best effort: on any failure (library load error, startup
// error, a build already in flight) it returns nil so the caller falls
// back to GetOrBuild. A runtime already started by this Builder is
// returned as is.
func (b *Builder) AttachExisting() *App {
	b.mu.Lock()
	defer b.mu.Unlock()

	if app := b.app.Load(); app != nil {
		return app
	}
	if b.inflight != nil {
		b.logger.Debug("attach skipped, build in progress")
		return nil
	}

	info, err := CurrentPlatform(context.Background())
	if err != nil {
		b.logger.Debug("attach skipped, platform detection failed", "error", err)
		return nil
	}

	args := effectiveArgs(b.cfg.Args, b.cfg.Settings)
	if b.cfg.Loader != nil {
		if err := b.loadLibraries(info.OS, args); err != nil {
			b.logger.Warn("attach failed loading libraries", "error", err)
			return nil
		}
	}

	progress := b.cfg.Progress.Normalized()
	progress.Initializing()
	if err := b.cfg.Runtime.Startup(args, b.cfg.Settings); err != nil {
		b.logger.Warn("attach failed starting runtime", "error", err)
		return nil
	}

	app := &App{runtime: b.cfg.Runtime, dir: b.cfg.InstallDir}
	registerExitHook(app.Dispose)

	var once sync.Once
	b.cfg.Runtime.OnReady(func() {
		once.Do(progress.Initialized)
	})

	b.app.Store(app)
	return app
}

func (b *Builder) loadLibraries(osys platform.OS, args []string) error {
	gpuDisabled := containsArg(args, disableGPUFlag)
	for _, lib := range attachLibraries[osys] {
		if lib.gpu && gpuDisabled {
			continue
		}
		if err := b.cfg.Loader.Load(filepath.Join(b.cfg.InstallDir, lib.name)); err != nil {
			return err
		}
	}
	return nil
}
