// Package platform identifies the operating system family and CPU
// architecture the host process runs on, expressed as small enums that
// carry the name tokens used to match CEF release artifacts.
//
// Detection happens once per process (the root package caches it). On
// Linux, distribution details are collected via gopsutil for diagnostics
// only; artifact matching never depends on them, and detection degrades
// gracefully when the distro cannot be identified.
package platform

import (
	"context"
	"strings"
)

// OS is the operating system family of a platform.
type OS int

const (
	OSUnknown OS = iota
	Windows
	MacOS
	Linux
)

// osTokens lists the case-insensitive substrings an artifact name or URL
// may carry for each OS family. Matching is substring containment, so a
// bare "win" token is out: it is contained in "darwin".
var osTokens = map[OS][]string{
	Windows: {"windows"},
	MacOS:   {"macosx", "macos", "darwin", "osx", "mac"},
	Linux:   {"linux"},
}

// String returns the canonical lowercase name of the OS family.
func (o OS) String() string {
	switch o {
	case Windows:
		return "windows"
	case MacOS:
		return "macosx"
	case Linux:
		return "linux"
	default:
		return "unknown"
	}
}

// Tokens returns the match tokens for the OS family.
func (o OS) Tokens() []string {
	return osTokens[o]
}

// Matches reports whether s contains any of the OS family's tokens,
// case-insensitively.
func (o OS) Matches(s string) bool {
	return containsAnyFold(s, osTokens[o])
}

// Arch is the CPU architecture of a platform.
type Arch int

const (
	ArchUnknown Arch = iota
	X86
	X64
	Arm64
)

var archTokens = map[Arch][]string{
	X86:   {"x86", "i386", "686"},
	X64:   {"x64", "amd64", "x86_64", "x86-64"},
	Arm64: {"arm64", "aarch64"},
}

// String returns the canonical lowercase name of the architecture.
func (a Arch) String() string {
	switch a {
	case X86:
		return "x86"
	case X64:
		return "x64"
	case Arm64:
		return "arm64"
	default:
		return "unknown"
	}
}

// Tokens returns the match tokens for the architecture.
func (a Arch) Tokens() []string {
	return archTokens[a]
}

// Matches reports whether s contains any of the architecture's tokens,
// case-insensitively.
func (a Arch) Matches(s string) bool {
	return containsAnyFold(s, archTokens[a])
}

// Info contains platform detection information. OS and Arch drive
// artifact resolution; the Distro fields are Linux-only diagnostics.
type Info struct {
	OS      OS
	Arch    Arch
	ArchRaw string // original GOARCH (e.g. "amd64")

	Distro        string // distro ID (Linux only, e.g. "ubuntu")
	DistroFamily  string // family reported by the host (e.g. "debian")
	DistroVersion string // distro version (Linux only, e.g. "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool { return i.OS == Linux }

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool { return i.OS == MacOS }

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool { return i.OS == Windows }

// String renders the platform as "os/arch" for error messages and logs.
func (i *Info) String() string {
	return i.OS.String() + "/" + i.Arch.String()
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

func containsAnyFold(s string, tokens []string) bool {
	lower := strings.ToLower(s)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
