package release

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zaroxh/gocef/platform"
)

const (
	// packageMarker must appear in every candidate link pulled out of the
	// free-text body; it separates bundle links from changelog noise.
	packageMarker = "cef"

	// sdkMarker identifies SDK builds, which rank below plain builds.
	sdkMarker = "sdk"

	// archiveSuffix is the preferred packaging for bundle artifacts.
	archiveSuffix = ".tar.gz"
)

// checksumSuffixes mark sibling integrity files that must never be picked
// as the bundle artifact itself.
var checksumSuffixes = []string{".checksum", ".sha256"}

// linkPattern matches http(s) and www links embedded in release notes.
var linkPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[\w\-.~:/?#@!$&*+,;=%]+`)

// UnsupportedPlatformError is returned when no release artifact matches
// the queried OS and architecture.
type UnsupportedPlatformError struct {
	OS   platform.OS
	Arch platform.Arch
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no release artifact available for platform %s/%s", e.OS, e.Arch)
}

// Resolve picks the one artifact URL in the manifest matching the given
// platform. Candidates come from link-scanning the free-text body; when
// none of those match the OS, the structured asset list is consulted
// instead. The survivors are ranked (plain before SDK, tar.gz before other
// packaging) and the best URL is returned.
func Resolve(manifest *Manifest, info *platform.Info) (string, error) {
	candidates := scanBody(manifest.Body)

	matched := filterTokens(candidates, info.OS.Matches)
	archFiltered := false
	if len(matched) == 0 {
		matched = scanAssets(manifest.Assets, info)
		archFiltered = true
	}

	if !archFiltered {
		matched = filterTokens(matched, info.Arch.Matches)
	}

	if len(matched) == 0 {
		return "", &UnsupportedPlatformError{OS: info.OS, Arch: info.Arch}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return rankLess(matched[i], matched[j])
	})
	return matched[0], nil
}

// scanBody extracts bundle link candidates from free-text release notes.
// Blanks and checksum files are dropped; only links naming the bundle
// package survive.
func scanBody(body string) []string {
	var out []string
	for _, link := range linkPattern.FindAllString(body, -1) {
		link = strings.TrimSpace(link)
		if link == "" || isChecksumFile(link) {
			continue
		}
		if !strings.Contains(strings.ToLower(link), packageMarker) {
			continue
		}
		out = append(out, link)
	}
	return out
}

// scanAssets is the structured fallback: assets whose name or URL carries
// both an OS token and an architecture token for the current platform.
func scanAssets(assets []Asset, info *platform.Info) []string {
	var out []string
	for _, a := range assets {
		if a.BrowserDownloadURL == "" {
			continue
		}
		if isChecksumFile(a.Name) || isChecksumFile(a.BrowserDownloadURL) {
			continue
		}
		text := a.Name + " " + a.BrowserDownloadURL
		if info.OS.Matches(text) && info.Arch.Matches(text) {
			out = append(out, a.BrowserDownloadURL)
		}
	}
	return out
}

func filterTokens(candidates []string, match func(string) bool) []string {
	var out []string
	for _, c := range candidates {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

// rankLess orders candidates by two ascending keys: non-SDK builds first,
// then tar.gz packaging first.
func rankLess(a, b string) bool {
	ka, kb := rankKey(a), rankKey(b)
	if ka[0] != kb[0] {
		return ka[0] < kb[0]
	}
	return ka[1] < kb[1]
}

func rankKey(url string) [2]int {
	lower := strings.ToLower(url)
	key := [2]int{0, 1}
	if strings.Contains(lower, sdkMarker) {
		key[0] = 1
	}
	if strings.HasSuffix(lower, archiveSuffix) {
		key[1] = 0
	}
	return key
}

func isChecksumFile(s string) bool {
	lower := strings.ToLower(s)
	for _, suffix := range checksumSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
