package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	figmaAPIBase = "https://api.figma.com/v1"
)

// Client represents a Figma API client with configured HTTP settings for reliable communication
// with the Figma API. It includes retry logic and optimized transport settings for handling large files.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	backoff     time.Duration
}

// NewClient creates a new Figma API client with the provided personal access token.
// The client is configured with connection pooling, disabled HTTP/2 (for large file stability),
// and a 10-minute timeout since renders of large frames can be slow.
func NewClient(accessToken string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		// Disable HTTP/2 to avoid stream errors with large files
		ForceAttemptHTTP2: false,
	}

	return &Client{
		accessToken: accessToken,
		baseURL:     figmaAPIBase,
		httpClient: &http.Client{
			Timeout:   10 * time.Minute,
			Transport: transport,
		},
		maxRetries: 3,
		backoff:    2 * time.Second,
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithBackoff sets the base delay between retries; attempt n waits n*d.
func (c *Client) WithBackoff(d time.Duration) *Client {
	c.backoff = d
	return c
}

// ExtractFileKey extracts the unique file identifier from a Figma URL.
// Supports both /file/ and /design/ URL patterns (e.g., figma.com/file/ABC123/Design-Name).
func ExtractFileKey(figmaURL string) (string, error) {
	// Anchored to ensure the entire URL matches the expected pattern and prevent bypass attacks.
	re := regexp.MustCompile(`^https?://(?:www\.)?figma\.com/(?:file|design)/([A-Za-z0-9]+)(?:/|$)`)
	matches := re.FindStringSubmatch(figmaURL)

	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Figma URL format: must be a valid figma.com URL with /file/ or /design/ path")
	}

	return matches[1], nil
}

var (
	nodeIDQueryRe    = regexp.MustCompile(`[?&]node-id=([^&#]*)`)
	nodeIDFragmentRe = regexp.MustCompile(`#([0-9A-Za-z:;,\- ]+)$`)
	nodeIDPathRe     = regexp.MustCompile(`/nodes/([^?#]+)`)
)

// ExtractNodeIDs returns the node ids referenced by a Figma URL, in order and without duplicates.
// The node-id query parameter, a #id fragment and a /nodes/id path segment are recognized;
// URL-style ids ("1-2") are converted to API ids ("1:2").
func ExtractNodeIDs(figmaURL string) ([]string, error) {
	var raw string
	switch {
	case nodeIDQueryRe.MatchString(figmaURL):
		raw = nodeIDQueryRe.FindStringSubmatch(figmaURL)[1]
	case nodeIDPathRe.MatchString(figmaURL):
		raw = nodeIDPathRe.FindStringSubmatch(figmaURL)[1]
	case nodeIDFragmentRe.MatchString(figmaURL):
		raw = nodeIDFragmentRe.FindStringSubmatch(figmaURL)[1]
	default:
		return []string{}, nil
	}

	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}

	ids := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		ids = append(ids, strings.ReplaceAll(id, "-", ":"))
	}

	return deduplicateNodeIDs(ids), nil
}

// deduplicateNodeIDs removes repeated ids, keeping the first occurrence.
func deduplicateNodeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// GetFile retrieves complete file data including the document tree.
func (c *Client) GetFile(ctx context.Context, fileKey string) (*FileResponse, error) {
	endpoint := fmt.Sprintf("%s/files/%s", c.baseURL, fileKey)

	var fileResp FileResponse
	if err := c.getJSON(ctx, endpoint, &fileResp); err != nil {
		return nil, err
	}
	return &fileResp, nil
}

// GetFileNodes retrieves the subtrees rooted at the given node ids.
func (c *Client) GetFileNodes(ctx context.Context, fileKey string, nodeIDs []string) (*NodesResponse, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(nodeIDs, ","))
	endpoint := fmt.Sprintf("%s/files/%s/nodes?%s", c.baseURL, fileKey, q.Encode())

	var nodesResp NodesResponse
	if err := c.getJSON(ctx, endpoint, &nodesResp); err != nil {
		return nil, err
	}
	return &nodesResp, nil
}

// GetImages asks the render API for download URLs of the given nodes.
// Format is one of "pdf", "png", "svg", "jpg"; scale is ignored by the API for vector formats.
func (c *Client) GetImages(ctx context.Context, fileKey string, nodeIDs []string, format string, scale float64) (*ImagesResponse, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(nodeIDs, ","))
	q.Set("format", format)
	if scale > 0 {
		q.Set("scale", strconv.FormatFloat(scale, 'f', -1, 64))
	}
	endpoint := fmt.Sprintf("%s/images/%s?%s", c.baseURL, fileKey, q.Encode())

	var imgResp ImagesResponse
	if err := c.getJSON(ctx, endpoint, &imgResp); err != nil {
		return nil, err
	}
	if imgResp.Err != "" {
		return nil, fmt.Errorf("render API error: %s", imgResp.Err)
	}
	return &imgResp, nil
}

// Download fetches a rendered asset. Render URLs are pre-signed, so no token is sent.
func (c *Client) Download(ctx context.Context, assetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d downloading asset", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset body: %w", err)
	}
	return data, nil
}

// getJSON performs an authenticated GET with retries on transport errors,
// 429 (rate limit) and 5xx responses, and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, retry, err := c.get(ctx, endpoint, attempt)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return nil
		}

		lastErr = err
		if !retry || attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}

	return lastErr
}

func (c *Client) get(ctx context.Context, endpoint string, attempt int) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Figma-Token", c.accessToken)
	req.Header.Set("User-Agent", "figma-pdf-export/"+Version)
	// Disable HTTP/2 to avoid stream errors with large files
	req.Header.Set("Connection", "close")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("attempt %d failed to execute request: %w", attempt, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("attempt %d failed to read response body: %w", attempt, err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, false, nil
}
