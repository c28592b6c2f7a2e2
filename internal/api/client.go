package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/colthorp/rickmorty-cli-go/internal/core"
	"github.com/colthorp/rickmorty-cli-go/internal/logging"
	"github.com/colthorp/rickmorty-cli-go/internal/metrics"
)

// Client is the HTTP wrapper around the Rick and Morty REST API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	imageClient *http.Client
	log         *zap.Logger
}

// NewClient creates a new API client. An empty baseURL selects the public API.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = core.APIBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		imageClient: &http.Client{
			Timeout: core.ImageFetchTimeout,
		},
		log: logging.Named(logger, "api"),
	}
}

// BaseURL returns the API base every path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the request URL for a resource path.
func (c *Client) URL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimPrefix(path, "/"))
}

// Get performs a single GET for path and returns the JSON body.
// There is no retry: one call is one round trip.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, c.httpClient, path, "application/json", "record")
}

// GetImage performs a single GET for an image path with the fixed image timeout.
func (c *Client) GetImage(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, c.imageClient, path, "image/*", "image")
}

func (c *Client) do(ctx context.Context, hc *http.Client, path, accept, kind string) ([]byte, error) {
	urlStr := c.URL(path)
	c.log.Debug("GET", zap.String("url", urlStr))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		metrics.RecordNetworkRequest(kind, "error", 0)
		return nil, &TransportError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordNetworkRequest(kind, "error", 0)
		return nil, &TransportError{Path: path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordNetworkRequest(kind, "error", len(body))
		return nil, &APIError{Path: path, StatusCode: resp.StatusCode, Message: apiMessage(body)}
	}

	metrics.RecordNetworkRequest(kind, "ok", len(body))
	c.log.Debug("response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// apiMessage extracts the {"error": "..."} message the API returns with
// failures, falling back to the raw body.
func apiMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
