package release

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_FetchByTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/cef-bundles/releases/tags/v110.0.25" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"tag_name": "v110.0.25",
			"body": "https://dl.example.com/cef_natives_linux_x64.tar.gz",
			"assets": [{"name": "cef_natives_linux_x64.tar.gz", "browser_download_url": "https://dl.example.com/cef_natives_linux_x64.tar.gz"}],
			"some_future_field": true
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.Client())
	m, err := client.Fetch(context.Background(), Source{
		Owner: "acme", Repo: "cef-bundles", Tag: "v110.0.25", Endpoint: srv.URL,
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.TagName != "v110.0.25" {
		t.Errorf("TagName = %q, want v110.0.25", m.TagName)
	}
	if len(m.Assets) != 1 || m.Assets[0].Name != "cef_natives_linux_x64.tar.gz" {
		t.Errorf("unexpected assets: %+v", m.Assets)
	}
}

func TestClient_FetchLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/releases/latest") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"tag_name": "v111.0.1", "body": "latest"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.Client())

	for _, tag := range []string{"", "latest", "LATEST"} {
		m, err := client.Fetch(context.Background(), Source{
			Owner: "acme", Repo: "cef-bundles", Tag: tag, Endpoint: srv.URL,
		})
		if err != nil {
			t.Fatalf("Fetch(tag=%q) error = %v", tag, err)
		}
		if m.TagName != "v111.0.1" {
			t.Errorf("Fetch(tag=%q).TagName = %q, want v111.0.1", tag, m.TagName)
		}
	}
}

func TestClient_FetchLatestFallsBackToListing(t *testing.T) {
	// releases/latest excludes prereleases on GitHub; the client must fall
	// back to the listing and pick the highest tag.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/releases/latest"):
			http.NotFound(w, r)
		case strings.HasSuffix(r.URL.Path, "/releases"):
			fmt.Fprint(w, `[
				{"tag_name": "v110.0.2", "prerelease": true},
				{"tag_name": "v110.0.10", "prerelease": true},
				{"tag_name": "v110.0.9", "prerelease": true}
			]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.Client())
	m, err := client.Fetch(context.Background(), Source{
		Owner: "acme", Repo: "cef-bundles", Endpoint: srv.URL,
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.TagName != "v110.0.10" {
		t.Errorf("TagName = %q, want v110.0.10 (highest semver, not list order)", m.TagName)
	}
}

func TestClient_FetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	client := NewClient(srv.Client())
	_, err := client.Fetch(context.Background(), Source{
		Owner: "acme", Repo: "missing", Tag: "v1.0.0", Endpoint: srv.URL,
	})
	if err == nil {
		t.Fatal("expected error for missing release")
	}
}

func TestClient_FetchRequiresOwnerRepo(t *testing.T) {
	client := NewClient(nil)
	if _, err := client.Fetch(context.Background(), Source{}); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestClient_ResolveCustom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bundle": "https://dl.example.com/custom.tar.gz"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.Client())
	got, err := client.ResolveCustom(context.Background(), srv.URL,
		func(ctx context.Context, hc *http.Client, body []byte) (string, error) {
			if !strings.Contains(string(body), "bundle") {
				return "", fmt.Errorf("unexpected body")
			}
			return "https://dl.example.com/custom.tar.gz", nil
		})
	if err != nil {
		t.Fatalf("ResolveCustom() error = %v", err)
	}
	if got != "https://dl.example.com/custom.tar.gz" {
		t.Errorf("ResolveCustom() = %q", got)
	}
}

func TestClient_ResolveCustomRejectsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	client := NewClient(srv.Client())
	_, err := client.ResolveCustom(context.Background(), srv.URL,
		func(ctx context.Context, hc *http.Client, body []byte) (string, error) {
			return "", nil
		})
	if err == nil {
		t.Fatal("expected error for empty transform result")
	}

	_, err = client.ResolveCustom(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error for nil transform")
	}
}
