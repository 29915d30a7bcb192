package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	defaultEndpoint = "https://api.github.com"
	defaultTimeout  = 30 * time.Second
	userAgent       = "gocef"
)

// Source identifies a release manifest to fetch: a repository plus a tag,
// or "latest" (also the empty string) for the newest published release.
type Source struct {
	Owner string
	Repo  string
	Tag   string

	// Endpoint overrides the GitHub API base URL, mainly for tests and
	// self-hosted forges speaking the same protocol.
	Endpoint string
}

// Transform turns the raw response of a custom endpoint into the artifact
// URL, bypassing manifest asset resolution entirely. The HTTP client is
// passed through so a transform can make follow-up requests.
type Transform func(ctx context.Context, client *http.Client, body []byte) (string, error)

// Client fetches release manifests. It owns no global state: the HTTP
// client is injected by the caller (nil selects a default with a 30s
// timeout).
type Client struct {
	http *http.Client
}

// NewClient creates a release client around the given HTTP client.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{http: hc}
}

// HTTPClient exposes the underlying HTTP client for transforms.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Fetch retrieves the manifest identified by src. For "latest" it asks the
// releases/latest endpoint first; when that yields nothing (for example a
// repository publishing only prereleases) it falls back to listing all
// releases and picking the newest tag.
func (c *Client) Fetch(ctx context.Context, src Source) (*Manifest, error) {
	if src.Owner == "" || src.Repo == "" {
		return nil, fmt.Errorf("release source requires owner and repo")
	}

	base := src.Endpoint
	if base == "" {
		base = defaultEndpoint
	}

	tag := src.Tag
	if tag == "" || strings.EqualFold(tag, "latest") {
		m, err := c.fetchManifest(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/latest", base, src.Owner, src.Repo))
		if err == nil {
			return m, nil
		}
		// Fall back to the full listing before giving up.
		list, listErr := c.fetchList(ctx, fmt.Sprintf("%s/repos/%s/%s/releases", base, src.Owner, src.Repo))
		if listErr != nil || len(list) == 0 {
			return nil, err
		}
		return newestByTag(list), nil
	}

	return c.fetchManifest(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", base, src.Owner, src.Repo, url.PathEscape(tag)))
}

// ResolveCustom fetches a custom endpoint and hands the body to the
// caller-supplied transform, which produces the final artifact URL.
func (c *Client) ResolveCustom(ctx context.Context, endpoint string, fn Transform) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("custom endpoint requires a transform")
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	artifactURL, err := fn(ctx, c.http, body)
	if err != nil {
		return "", fmt.Errorf("transform response: %w", err)
	}
	if artifactURL == "" {
		return "", fmt.Errorf("transform returned empty artifact URL")
	}
	return artifactURL, nil
}

func (c *Client) fetchManifest(ctx context.Context, u string) (*Manifest, error) {
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse release manifest: %w", err)
	}
	return &m, nil
}

func (c *Client) fetchList(ctx context.Context, u string) ([]Manifest, error) {
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var list []Manifest
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parse release list: %w", err)
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch release source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("release not found: %s", u)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release source returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// newestByTag picks the manifest with the highest semver tag. Entries with
// unparseable tags are skipped; if nothing parses, the first entry wins
// (GitHub lists newest first).
func newestByTag(list []Manifest) *Manifest {
	var best *Manifest
	var bestVer *semver.Version
	for i := range list {
		v, err := semver.NewVersion(strings.TrimPrefix(list[i].TagName, "v"))
		if err != nil {
			continue
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			best = &list[i]
			bestVer = v
		}
	}
	if best == nil {
		return &list[0]
	}
	return best
}
