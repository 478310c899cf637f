// Package mlflowrest implements registry.Registry against an
// MLflow-compatible REST backend.
package mlflowrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ferndale/pigeonhole/internal/registry"
)

const latestVersionsPath = "/api/2.0/mlflow/registered-models/get-latest-versions"

// Client lists model versions and downloads artifacts over HTTP with Bearer
// auth and retry logic. An empty token disables the Authorization header,
// which is what a local unauthenticated MLflow server expects.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string // internal: Retry-After header value for 429s
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a Client for the MLflow REST API rooted at baseURL.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// modelVersion is the wire shape of one entry in a get-latest-versions
// response. MLflow serializes the version number as a string and the
// creation timestamp as milliseconds since the epoch.
type modelVersion struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	CurrentStage      string `json:"current_stage"`
	CreationTimestamp int64  `json:"creation_timestamp"`
	Source            string `json:"source"`
}

type latestVersionsResponse struct {
	ModelVersions []modelVersion `json:"model_versions"`
}

func toVersion(mv modelVersion) (registry.Version, error) {
	num, err := strconv.Atoi(mv.Version)
	if err != nil {
		return registry.Version{}, fmt.Errorf("mlflowrest: version %q of %s: %w", mv.Version, mv.Name, err)
	}
	stage, err := registry.ParseStage(mv.CurrentStage)
	if err != nil {
		return registry.Version{}, fmt.Errorf("mlflowrest: %s v%d: %w", mv.Name, num, err)
	}
	return registry.Version{
		Name:      mv.Name,
		Version:   num,
		Stage:     stage,
		CreatedAt: time.UnixMilli(mv.CreationTimestamp),
		Source:    mv.Source,
	}, nil
}

// GetVersions returns the latest version of name in stage, per the MLflow
// get-latest-versions contract. A model with no versions in stage yields an
// empty slice.
func (c *Client) GetVersions(ctx context.Context, name string, stage registry.Stage) ([]registry.Version, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Add("stages", string(stage))

	var resp latestVersionsResponse
	if err := c.getJSON(ctx, latestVersionsPath, q, &resp); err != nil {
		return nil, err
	}

	versions := make([]registry.Version, 0, len(resp.ModelVersions))
	for _, mv := range resp.ModelVersions {
		v, err := toVersion(mv)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// Open fetches the artifact at source. HTTP(S) URIs are downloaded with the
// client's auth and retry policy; anything else is opened as a local file,
// with a file:// prefix stripped.
func (c *Client) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err := c.get(ctx, source)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return os.Open(strings.TrimPrefix(source, "file://"))
}

// getJSON sends a GET request against the API base URL and unmarshals the
// JSON response into dest.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	body, err := c.get(ctx, fullURL)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

const maxRetries = 3

// get fetches fullURL and returns the response body. Returns *APIError for
// non-2xx responses. Retries on 429 (with Retry-After) and 5xx (with
// exponential backoff: 1s, 2s, 4s). Max 3 retries.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffDelay(attempt, lastErr)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: bodyStr}

		if resp.StatusCode == 429 {
			apiErr.retryAfter = resp.Header.Get("Retry-After")
			lastErr = apiErr
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = apiErr
			continue
		}

		return nil, apiErr
	}

	return nil, lastErr
}

// backoffDelay returns the wait duration before a retry attempt.
func backoffDelay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == 429 && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	// Exponential backoff: 1s, 2s, 4s
	return time.Duration(1<<(attempt-1)) * time.Second
}
