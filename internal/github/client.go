// Package github is a minimal client for the public GitHub REST API covering
// the read-only lookups the candidate analysis tools need.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.github.com"
	rawURL    = "https://raw.githubusercontent.com"
	userAgent = "karar-git/VibeHiring"
)

// StatusError reports a non-200 answer from the API. The sampler and status
// checker use it to tell "not found" apart from real failures.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	RawURL     string
}

// New creates a GitHub client. The token is optional; unauthenticated calls
// work, just with tighter rate limits.
func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		RawURL: rawURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Repo is the slice of a repository listing entry the analysis cares about.
type Repo struct {
	Name       string `json:"name"`
	HTMLURL    string `json:"html_url"`
	Language   string `json:"language"`
	Stargazers int    `json:"stargazers_count"`
	Forks      int    `json:"forks_count"`
	OpenIssues int    `json:"open_issues_count"`
}

type User struct {
	Login       string `json:"login"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	HTMLURL     string `json:"html_url"`
}

// TreeEntry is one entry of a recursive branch file tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type treeResponse struct {
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type commitEntry struct {
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// ListUserRepos returns a user's public repositories.
func (c *Client) ListUserRepos(ctx context.Context, username string) ([]Repo, error) {
	var repos []Repo
	endpoint := fmt.Sprintf("%s/users/%s/repos", c.APIURL, url.PathEscape(username))
	if err := c.getJSON(ctx, endpoint, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetUser returns a user's public profile.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var user User
	endpoint := fmt.Sprintf("%s/users/%s", c.APIURL, url.PathEscape(username))
	if err := c.getJSON(ctx, endpoint, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetTree returns the recursive file tree of a branch.
func (c *Client) GetTree(ctx context.Context, owner, repo, branch string) ([]TreeEntry, error) {
	var tree treeResponse
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.APIURL,
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))
	if err := c.getJSON(ctx, endpoint, &tree); err != nil {
		return nil, err
	}
	return tree.Tree, nil
}

// GetRawFile fetches a file's raw content from a branch.
func (c *Client) GetRawFile(ctx context.Context, owner, repo, branch, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/%s/%s", c.RawURL,
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch), path)
	return c.getRaw(ctx, endpoint)
}

// LatestCommitTime returns the committer date of the most recent commit on the
// default branch.
func (c *Client) LatestCommitTime(ctx context.Context, owner, repo string) (time.Time, error) {
	var commits []commitEntry
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=1", c.APIURL,
		url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, endpoint, &commits); err != nil {
		return time.Time{}, err
	}
	if len(commits) == 0 {
		return time.Time{}, fmt.Errorf("no commits for %s/%s", owner, repo)
	}
	return commits[0].Commit.Committer.Date, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	data, err := c.get(ctx, endpoint, "application/vnd.github+json")
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}

	return nil
}

func (c *Client) getRaw(ctx context.Context, endpoint string) (string, error) {
	data, err := c.get(ctx, endpoint, "")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	c.logger.Debug("github request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return data, nil
}
