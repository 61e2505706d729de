// Package github provides the GitHub API surface the analysis needs:
// repository metadata, the default-branch head commit, recursive file
// trees, and raw file content.
package github

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/frontscan/frontscan/pkg/cache"
	"github.com/frontscan/frontscan/pkg/integrations"
)

// Client talks to the GitHub REST API with caching and automatic
// retries. Responses for immutable inputs (tree at a commit, file at a
// commit) are cached; mutable metadata honors the cache TTL.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client. Pass an empty token for
// unauthenticated requests (much lower rate limits) and a nil cache to
// disable caching.
func NewClient(token string, c cache.Cache, ttl time.Duration) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github.v3+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(c, ttl, headers),
		baseURL: "https://api.github.com",
	}
}

// SetBaseURL overrides the API endpoint, for GitHub Enterprise hosts
// and tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// RepoMetadata holds the repository fields the analysis consumes.
type RepoMetadata struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DefaultBranch string    `json:"default_branch"`
}

// Metadata fetches repository metadata.
func (c *Client) Metadata(ctx context.Context, owner, name string) (*RepoMetadata, error) {
	key := fmt.Sprintf("github:repo:%s/%s", owner, name)

	var md RepoMetadata
	err := c.Cached(ctx, key, &md, func() error {
		u := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, url.PathEscape(name))
		return c.Get(ctx, u, &md)
	})
	if err != nil {
		return nil, err
	}
	if md.CreatedAt.IsZero() || md.UpdatedAt.IsZero() {
		return nil, fmt.Errorf("%w: %s/%s metadata missing timestamps", integrations.ErrNotFound, owner, name)
	}
	return &md, nil
}

// HeadCommit returns the SHA of the latest commit on ref.
func (c *Client) HeadCommit(ctx context.Context, owner, name, ref string) (string, error) {
	if ref == "" {
		ref = "HEAD"
	}

	var commit struct {
		SHA string `json:"sha"`
	}
	u := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, url.PathEscape(name), url.PathEscape(ref))
	if err := c.Get(ctx, u, &commit); err != nil {
		return "", err
	}
	if commit.SHA == "" {
		return "", fmt.Errorf("%w: %s/%s has no commits on %s", integrations.ErrNotFound, owner, name, ref)
	}
	return commit.SHA, nil
}

// Tree returns the recursive file listing at commitSHA. Only blob paths
// are returned; the analysis performs existence checks, not directory
// walks. GitHub truncates very large trees, in which case the listing is
// best-effort.
func (c *Client) Tree(ctx context.Context, owner, name, commitSHA string) ([]string, error) {
	key := fmt.Sprintf("github:tree:%s/%s@%s", owner, name, commitSHA)

	var paths []string
	err := c.Cached(ctx, key, &paths, func() error {
		var resp struct {
			Tree []struct {
				Path string `json:"path"`
				Type string `json:"type"`
			} `json:"tree"`
			Truncated bool `json:"truncated"`
		}
		u := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.baseURL, owner, url.PathEscape(name), commitSHA)
		if err := c.Get(ctx, u, &resp); err != nil {
			return err
		}
		paths = paths[:0]
		for _, item := range resp.Tree {
			if item.Type == "blob" {
				paths = append(paths, item.Path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// RawFile returns raw file content by tree path. The raw media type
// avoids base64 round-trips on large lockfiles.
func (c *Client) RawFile(ctx context.Context, owner, name, path string) ([]byte, error) {
	key := fmt.Sprintf("github:file:%s/%s:%s", owner, name, path)

	var data []byte
	err := c.Cached(ctx, key, &data, func() error {
		u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, url.PathEscape(name), escapeTreePath(path))
		raw, err := c.GetBytes(ctx, u, map[string]string{"Accept": "application/vnd.github.v3.raw"})
		if err != nil {
			return err
		}
		data = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// escapeTreePath escapes each path segment while keeping separators.
func escapeTreePath(p string) string {
	u := url.URL{Path: p}
	return u.EscapedPath()
}
