package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/zaroxh/gocef/platform"
)

// fakeCollaborators records every orchestrator step in order and can be
// told to fail at any of them.
type fakeCollaborators struct {
	steps       []string
	archivePath string

	downloadErr error
	extractErr  error
	flattenErr  error
	verifyErr   error
}

func (f *fakeCollaborators) Download(ctx context.Context, url string, bufferSize int, progress func(float64)) (string, error) {
	f.steps = append(f.steps, "download:"+url)
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	progress(0.5)
	progress(1)
	return f.archivePath, nil
}

func (f *fakeCollaborators) Extract(destDir, archivePath string, bufferSize int) error {
	f.steps = append(f.steps, "extract")
	return f.extractErr
}

func (f *fakeCollaborators) FlattenTopLevel(destDir string) error {
	f.steps = append(f.steps, "flatten")
	return f.flattenErr
}

func (f *fakeCollaborators) Verify(ctx context.Context, archivePath string) error {
	f.steps = append(f.steps, "verify")
	return f.verifyErr
}

func testConfig(t *testing.T, fake *fakeCollaborators, info *platform.Info) Config {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "bundle")
	return Config{
		Dir:        dir,
		Resolve:    func(ctx context.Context) (string, error) { return "https://dl.example.com/cef.tar.gz", nil },
		Downloader: fake,
		Extractor:  fake,
		Platform:   info,
	}
}

func TestRun_FullSequence(t *testing.T) {
	fake := &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
	cfg := testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})

	var events []string
	var fractions []float64
	cfg.Progress = Progress{
		Locating:    func() { events = append(events, "locating") },
		Downloading: func(f float64) { fractions = append(fractions, f) },
		Extracting:  func() { events = append(events, "extracting") },
		Install:     func() { events = append(events, "install") },
	}

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantSteps := []string{"download:https://dl.example.com/cef.tar.gz", "extract", "flatten"}
	if fmt.Sprint(fake.steps) != fmt.Sprint(wantSteps) {
		t.Errorf("steps = %v, want %v", fake.steps, wantSteps)
	}
	wantEvents := []string{"locating", "extracting", "install"}
	if fmt.Sprint(events) != fmt.Sprint(wantEvents) {
		t.Errorf("events = %v, want %v", events, wantEvents)
	}
	if len(fractions) == 0 || fractions[0] != 0 {
		t.Errorf("downloading must start at fraction 0, got %v", fractions)
	}
	if !Installed(cfg.Dir) {
		t.Error("marker must exist after a successful run")
	}
}

func TestRun_Idempotent(t *testing.T) {
	fake := &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
	cfg := testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	stepsAfterFirst := len(fake.steps)

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(fake.steps) != stepsAfterFirst {
		t.Errorf("second run performed %d extra steps", len(fake.steps)-stepsAfterFirst)
	}
}

func TestRun_FailureLeavesNoMarker(t *testing.T) {
	tests := []struct {
		name string
		set  func(*fakeCollaborators)
	}{
		{"download_fails", func(f *fakeCollaborators) { f.downloadErr = errors.New("boom") }},
		{"extract_fails", func(f *fakeCollaborators) { f.extractErr = errors.New("boom") }},
		{"flatten_fails", func(f *fakeCollaborators) { f.flattenErr = errors.New("boom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
			tt.set(fake)
			cfg := testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})

			if err := Run(context.Background(), cfg); err == nil {
				t.Fatal("expected failure")
			}
			if Installed(cfg.Dir) {
				t.Error("marker must not exist after a failed run")
			}

			// A retried call restarts the whole sequence.
			fake.downloadErr, fake.extractErr, fake.flattenErr = nil, nil, nil
			fake.steps = nil
			if err := Run(context.Background(), cfg); err != nil {
				t.Fatalf("retry Run() error = %v", err)
			}
			if len(fake.steps) != 3 {
				t.Errorf("retry performed steps %v, want full sequence", fake.steps)
			}
			if !Installed(cfg.Dir) {
				t.Error("marker must exist after the successful retry")
			}
		})
	}
}

func TestRun_WipesStalePartialState(t *testing.T) {
	fake := &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
	cfg := testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})

	// Simulate debris from an interrupted earlier run: files, no marker.
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cfg.Dir, "half-extracted.pak")
	if err := os.WriteFile(stale, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale partial state must be wiped before reinstalling")
	}
}

func TestRun_QuarantineClearOnMacOnly(t *testing.T) {
	var commands [][]string
	runner := func(ctx context.Context, name string, args ...string) error {
		commands = append(commands, append([]string{name}, args...))
		return nil
	}

	// Linux: no quarantine step.
	fake := &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
	cfg := testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})
	cfg.RunCommand = runner
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(commands) != 0 {
		t.Errorf("no commands expected on linux, got %v", commands)
	}

	// macOS: xattr -r -d com.apple.quarantine <dir>.
	fake = &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
	cfg = testConfig(t, fake, &platform.Info{OS: platform.MacOS, Arch: platform.Arm64})
	cfg.RunCommand = runner
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(commands) != 1 {
		t.Fatalf("commands = %v, want exactly one xattr call", commands)
	}
	want := []string{"xattr", "-r", "-d", "com.apple.quarantine", cfg.Dir}
	if fmt.Sprint(commands[0]) != fmt.Sprint(want) {
		t.Errorf("command = %v, want %v", commands[0], want)
	}
}

func TestRun_QuarantineFailureIsFatal(t *testing.T) {
	fake := &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
	cfg := testConfig(t, fake, &platform.Info{OS: platform.MacOS, Arch: platform.Arm64})
	cfg.RunCommand = func(ctx context.Context, name string, args ...string) error {
		return errors.New("xattr: not permitted")
	}

	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected failure")
	}
	if Installed(cfg.Dir) {
		t.Error("marker must not exist when the quarantine step fails")
	}
}

func TestRun_VerifierRunsBetweenDownloadAndExtract(t *testing.T) {
	fake := &fakeCollaborators{archivePath: "/tmp/cef.tar.gz"}
	cfg := testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})
	cfg.Verifier = fake

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"download:https://dl.example.com/cef.tar.gz", "verify", "extract", "flatten"}
	if fmt.Sprint(fake.steps) != fmt.Sprint(want) {
		t.Errorf("steps = %v, want %v", fake.steps, want)
	}

	fake = &fakeCollaborators{archivePath: "/tmp/cef.tar.gz", verifyErr: errors.New("checksum mismatch")}
	cfg = testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})
	cfg.Verifier = fake
	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected verification failure to abort the run")
	}
	if Installed(cfg.Dir) {
		t.Error("marker must not exist after failed verification")
	}
}

func TestRun_ResolveErrorPropagates(t *testing.T) {
	fake := &fakeCollaborators{}
	cfg := testConfig(t, fake, &platform.Info{OS: platform.Linux, Arch: platform.X64})
	sentinel := errors.New("unsupported platform")
	cfg.Resolve = func(ctx context.Context) (string, error) { return "", sentinel }

	err := Run(context.Background(), cfg)
	if !errors.Is(err, sentinel) {
		t.Fatalf("Run() error = %v, want the resolve error", err)
	}
	if len(fake.steps) != 0 {
		t.Errorf("no collaborator should run when resolution fails, got %v", fake.steps)
	}
}

func TestRun_ValidatesConfig(t *testing.T) {
	if err := Run(context.Background(), Config{}); err == nil {
		t.Fatal("expected validation error for empty config")
	}
}
