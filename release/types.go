// Package release locates the downloadable CEF native bundle for a host
// platform. It fetches release manifests from a GitHub-style releases API
// (or any custom endpoint) and resolves the single artifact URL matching
// the current OS and architecture.
//
// # Resolution Strategy
//
// Release notes are free text with inconsistent structure, so resolution
// is two-tier: the manifest body is scanned for links first, and the
// structured asset list serves as fallback. Survivors are ranked so that
// plain builds beat SDK builds and tar.gz packaging beats anything else,
// which keeps the result deterministic across manifest format drift.
package release

import "time"

// Manifest describes one published release: free-text notes plus the list
// of downloadable assets. Unknown JSON fields are ignored for forward
// compatibility.
type Manifest struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}
