// Package template acquires packaged project templates from GitHub
// releases and extracts them into project directories, merging
// non-destructively when the destination already has content.
package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const githubAPIBase = "https://api.github.com"

// ErrNetwork wraps template fetch failures. Acquisition is never
// auto-retried; the error carries guidance instead.
var ErrNetwork = errors.New("template download failed")

// Release is the subset of a GitHub release needed for acquisition.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable release artifact.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// Client fetches template archives from a GitHub repository.
type Client struct {
	// Repo is the "owner/repo" hosting template releases.
	Repo string
	// Token optionally authenticates API requests (higher rate limits).
	Token string

	// apiBase is overridable in tests.
	apiBase    string
	httpClient *http.Client
}

// NewClient returns a Client for the given repository.
func NewClient(repo, token string) *Client {
	return &Client{
		Repo:       repo,
		Token:      token,
		apiBase:    githubAPIBase,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// LatestRelease fetches the repository's latest release metadata.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiBase, c.Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "specify-cli")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching release metadata: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: no releases found for %s", ErrNetwork, c.Repo)
	case http.StatusForbidden:
		return nil, fmt.Errorf("%w: GitHub API rate limit exceeded; set GITHUB_TOKEN or use --github-token", ErrNetwork)
	default:
		return nil, fmt.Errorf("%w: GitHub API returned status %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("%w: parsing release JSON: %v", ErrNetwork, err)
	}
	return &release, nil
}

// SelectAsset picks the archive for an agent and flavor; asset names
// follow "specify-template-<agent>-<flavor>*.zip".
func SelectAsset(release *Release, agent, flavor string) (*Asset, error) {
	prefix := fmt.Sprintf("specify-template-%s-%s", agent, flavor)
	for i := range release.Assets {
		name := release.Assets[i].Name
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".zip") {
			return &release.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("no template asset matching %s*.zip in release %s", prefix, release.TagName)
}

// Acquire resolves the latest release, selects the asset for agent and
// flavor, and downloads it to a temporary file whose path is returned.
// Cancellation via ctx discards the partial download; extraction never
// sees a partially fetched archive.
func (c *Client) Acquire(ctx context.Context, agent, flavor string) (string, error) {
	release, err := c.LatestRelease(ctx)
	if err != nil {
		return "", err
	}

	asset, err := SelectAsset(release, agent, flavor)
	if err != nil {
		return "", err
	}

	return c.download(ctx, asset)
}

// download streams the asset to a temp file. On any failure, including
// context cancellation mid-stream, the partial file is removed.
func (c *Client) download(ctx context.Context, asset *Asset) (path string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", "specify-cli")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: downloading %s: %v", ErrNetwork, asset.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: download of %s returned status %d", ErrNetwork, asset.Name, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "specify-template-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	if _, err = io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrNetwork, asset.Name, err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("finalizing download: %w", err)
	}

	return f.Name(), nil
}
