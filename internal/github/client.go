// Package github fetches product packs through the GitHub contents API,
// for environments where a git clone is not available.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the GitHub REST API base URL.
	BaseURL = "https://api.github.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps requests well under GitHub's secondary limits.
	RateLimit = 5.0
)

// Client is a rate-limited client for the GitHub contents API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a new GitHub API client.
// It reads GITHUB_TOKEN from the environment for authenticated requests.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.token = token
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// urlPatterns for parsing GitHub URLs.
var (
	// Matches: https://github.com/owner/repo, https://github.com/owner/repo.git, github.com/owner/repo
	fullURLPattern = regexp.MustCompile(`^(?:https?://)?github\.com/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?$`)
	// Matches: owner/repo
	shorthandPattern = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+)$`)
)

// ParseGitHubURL parses a GitHub URL or org/repo shorthand and returns (owner, repo).
// Supported formats:
//   - https://github.com/owner/repo
//   - https://github.com/owner/repo.git
//   - github.com/owner/repo
//   - owner/repo
func ParseGitHubURL(input string) (owner, repo string, err error) {
	input = strings.TrimSpace(input)

	// Try full URL pattern first
	if matches := fullURLPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}

	// Try shorthand pattern
	if matches := shorthandPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}

	return "", "", fmt.Errorf("%w: %q is not a GitHub URL or owner/repo", ErrInvalidResponse, input)
}

// RepoSlug normalizes a GitHub URL or shorthand to "owner/repo".
func RepoSlug(input string) (string, error) {
	owner, repo, err := ParseGitHubURL(input)
	if err != nil {
		return "", err
	}
	return owner + "/" + repo, nil
}

// Entry is one item in a contents API directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// contentFile is the contents API response for a single file.
type contentFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, path string) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case http.StatusUnauthorized, http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
}

// getJSON performs a GET against the contents API and decodes the response.
func (c *Client) getJSON(ctx context.Context, repo, path string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "toil-cli")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, path); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// ListDir lists the entries of a directory in the repository.
// repo is "owner/name"; path "" lists the repository root.
func (c *Client) ListDir(ctx context.Context, repo, path string) ([]Entry, error) {
	var entries []Entry
	if err := c.getJSON(ctx, repo, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetFile fetches one file's contents from the repository.
func (c *Client) GetFile(ctx context.Context, repo, path string) ([]byte, error) {
	var file contentFile
	if err := c.getJSON(ctx, repo, path, &file); err != nil {
		return nil, err
	}

	if file.Encoding != "base64" {
		return nil, fmt.Errorf("%w: unexpected encoding %q for %s", ErrInvalidResponse, file.Encoding, path)
	}
	// GitHub wraps the base64 payload across lines.
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, path, err)
	}
	return data, nil
}

// DownloadPacks materializes the repository's product packs under dest:
// every top-level folder with a README.md becomes dest/<folder> holding
// that README and, when present, its metadata.json. Returns the names
// of the packs written.
func (c *Client) DownloadPacks(ctx context.Context, repo, dest string) ([]string, error) {
	entries, err := c.ListDir(ctx, repo, "")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.Type != "dir" {
			continue
		}

		readme, err := c.GetFile(ctx, repo, entry.Path+"/README.md")
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		packDir := filepath.Join(dest, entry.Name)
		if err := os.MkdirAll(packDir, 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(packDir, "README.md"), readme, 0644); err != nil {
			return nil, err
		}

		meta, err := c.GetFile(ctx, repo, entry.Path+"/metadata.json")
		if err == nil {
			if err := os.WriteFile(filepath.Join(packDir, "metadata.json"), meta, 0644); err != nil {
				return nil, err
			}
		} else if !IsNotFound(err) {
			return nil, err
		}

		names = append(names, entry.Name)
	}
	return names, nil
}
