package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect maps runtime.GOOS/GOARCH onto the OS and Arch enums and, on
// Linux, collects distribution details via gopsutil.
//
// Distro detection failures are not fatal: artifact resolution only needs
// OS and architecture, so the detector falls back to those alone and
// leaves the distro fields empty.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{ArchRaw: runtime.GOARCH}

	switch runtime.GOOS {
	case "windows":
		info.OS = Windows
	case "darwin":
		info.OS = MacOS
	case "linux":
		info.OS = Linux
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	switch runtime.GOARCH {
	case "386":
		info.Arch = X86
	case "amd64":
		info.Arch = X64
	case "arm64":
		info.Arch = Arm64
	default:
		return nil, fmt.Errorf("unsupported architecture: %s", runtime.GOARCH)
	}

	if info.OS == Linux {
		distro, family, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			// Graceful fallback: OS/arch alone is enough to resolve assets.
			return info, nil
		}
		info.Distro = normalize(distro)
		info.DistroFamily = normalize(family)
		info.DistroVersion = normalize(version)
	}

	return info, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
