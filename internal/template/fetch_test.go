package template

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testServerClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("specify-labs/specify-templates", "")
	c.apiBase = server.URL
	return c
}

func TestLatestRelease(t *testing.T) {
	var gotAuth, gotAccept string
	c := testServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/specify-labs/specify-templates/releases/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, `{"tag_name":"v1.4.0","assets":[{"name":"specify-template-claude-sh-v1.4.0.zip","browser_download_url":"https://example.invalid/a.zip","size":1024}]}`)
	}))
	c.Token = "test-token"

	release, err := c.LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}
	if release.TagName != "v1.4.0" {
		t.Errorf("TagName = %q", release.TagName)
	}
	if len(release.Assets) != 1 || release.Assets[0].Name != "specify-template-claude-sh-v1.4.0.zip" {
		t.Errorf("assets = %+v", release.Assets)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestLatestReleaseErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"not found", http.StatusNotFound, `{}`, "no releases found"},
		{"rate limited", http.StatusForbidden, `{}`, "rate limit"},
		{"server error", http.StatusInternalServerError, `{}`, "status 500"},
		{"bad json", http.StatusOK, `{not json`, "parsing release JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))

			_, err := c.LatestRelease(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrNetwork) {
				t.Errorf("err = %v, want ErrNetwork", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want message containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSelectAsset(t *testing.T) {
	release := &Release{
		TagName: "v1.4.0",
		Assets: []Asset{
			{Name: "specify-template-claude-sh-v1.4.0.zip"},
			{Name: "specify-template-claude-ps-v1.4.0.zip"},
			{Name: "specify-template-cursor-sh-v1.4.0.zip"},
			{Name: "specify-template-claude-sh-v1.4.0.tar.gz"},
		},
	}

	tests := []struct {
		agent, flavor string
		want          string
		wantErr       bool
	}{
		{"claude", "sh", "specify-template-claude-sh-v1.4.0.zip", false},
		{"claude", "ps", "specify-template-claude-ps-v1.4.0.zip", false},
		{"cursor", "sh", "specify-template-cursor-sh-v1.4.0.zip", false},
		{"gemini", "sh", "", true},
	}

	for _, tt := range tests {
		asset, err := SelectAsset(release, tt.agent, tt.flavor)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SelectAsset(%s, %s): expected error", tt.agent, tt.flavor)
			}
			continue
		}
		if err != nil {
			t.Errorf("SelectAsset(%s, %s): %v", tt.agent, tt.flavor, err)
			continue
		}
		if asset.Name != tt.want {
			t.Errorf("SelectAsset(%s, %s) = %q, want %q", tt.agent, tt.flavor, asset.Name, tt.want)
		}
	}
}

func TestAcquireDownloadsAsset(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/repos/specify-labs/specify-templates/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name":"v1.4.0","assets":[{"name":"specify-template-claude-sh-v1.4.0.zip","browser_download_url":"%s/dl.zip","size":8}]}`, server.URL)
	})
	mux.HandleFunc("/dl.zip", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "zip-bytes")
	})

	c := NewClient("specify-labs/specify-templates", "")
	c.apiBase = server.URL

	path, err := c.Acquire(context.Background(), "claude", "sh")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "zip-bytes" {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestDownloadFailureLeavesNoPartialFile(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/repos/specify-labs/specify-templates/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name":"v1.4.0","assets":[{"name":"specify-template-claude-sh-v1.4.0.zip","browser_download_url":"%s/dl.zip","size":8}]}`, server.URL)
	})
	mux.HandleFunc("/dl.zip", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	c := NewClient("specify-labs/specify-templates", "")
	c.apiBase = server.URL

	if _, err := c.Acquire(context.Background(), "claude", "sh"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}

	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "specify-template-*.zip"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("partial download files left behind: %v", matches)
	}
}

func TestAcquireCancelled(t *testing.T) {
	c := testServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Acquire(ctx, "claude", "sh"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
