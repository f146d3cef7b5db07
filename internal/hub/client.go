// Package hub is a small blocking client for the Hugging Face model hub.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultEndpoint is the public Hugging Face hub.
const DefaultEndpoint = "https://huggingface.co"

// Client lists and fetches repository files.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithToken sets the token used when a call does not carry its own.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// NewClient returns a client for endpoint (DefaultEndpoint when empty).
func NewClient(endpoint string, opts ...Option) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		// no overall timeout: model files can take a long time, ctx bounds the call
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          16,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is returned for a non-2xx hub response.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("access denied for %s: %s (a token may be required)", e.URL, e.Status)
	case http.StatusNotFound:
		return fmt.Sprintf("not found: %s", e.URL)
	default:
		return fmt.Sprintf("unexpected response from %s: %s", e.URL, e.Status)
	}
}

func (c *Client) newRequest(ctx context.Context, rawURL, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "modelhub")
	return req, nil
}

func escapeRepo(repo string) (string, error) {
	repo = strings.Trim(strings.TrimSpace(repo), "/")
	if repo == "" {
		return "", fmt.Errorf("empty repository id")
	}
	parts := strings.Split(repo, "/")
	for i, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", fmt.Errorf("invalid repository id: %s", repo)
		}
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/"), nil
}

// ListFiles returns the file names of repo in hub order.
func (c *Client) ListFiles(ctx context.Context, repo, token string) ([]string, error) {
	escaped, err := escapeRepo(repo)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/api/models/%s", c.endpoint, escaped)
	req, err := c.newRequest(ctx, u, token)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: u, Code: resp.StatusCode, Status: resp.Status}
	}
	var info struct {
		Siblings []struct {
			RFilename string `json:"rfilename"`
		} `json:"siblings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode repository info: %w", err)
	}
	files := make([]string, 0, len(info.Siblings))
	for _, s := range info.Siblings {
		if s.RFilename != "" {
			files = append(files, s.RFilename)
		}
	}
	return files, nil
}

// DownloadFile fetches file from repo into destDir, keeping the file's
// relative path, and returns the local path. The file appears only once
// fully written.
func (c *Client) DownloadFile(ctx context.Context, repo, file, destDir, token string) (string, error) {
	escaped, err := escapeRepo(repo)
	if err != nil {
		return "", err
	}
	rel := filepath.FromSlash(file)
	if file == "" || filepath.IsAbs(rel) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid file name: %q", file)
	}
	dest := filepath.Join(destDir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	segs := strings.Split(file, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	u := fmt.Sprintf("%s/%s/resolve/main/%s", c.endpoint, escaped, strings.Join(segs, "/"))
	req, err := c.newRequest(ctx, u, token)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", file, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{URL: u, Code: resp.StatusCode, Status: resp.Status}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("download %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename: %w", err)
	}
	return dest, nil
}
