// Package similarity talks to the external AI similarity index. The index is
// eventually consistent with the note store: write-side notifications are
// best effort, while the search endpoints surface index failures because the
// index response is the payload there.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultThreshold is the minimum score a match must reach when the
	// caller does not supply one.
	DefaultThreshold = 0.3
	// DefaultLimit caps result counts when the caller does not supply one.
	DefaultLimit = 10

	defaultRequestTimeout = 15 * time.Second
)

var (
	// ErrUnreachable indicates the index could not be contacted at all.
	ErrUnreachable = errors.New("similarity: index unreachable")
	// ErrBadStatus indicates the index answered with a non-success status.
	ErrBadStatus = errors.New("similarity: index returned error status")

	errMissingBaseURL = errors.New("similarity: base url is required")
)

// Match is one scored result from the index.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// ClientConfig configures the index client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client is an HTTP client for the similarity index API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient validates the configuration and constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{baseURL: base, apiKey: cfg.APIKey, http: httpClient}, nil
}

type upsertRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Upsert sends a note's content to the index for (re)embedding.
func (c *Client) Upsert(ctx context.Context, id, content string) error {
	return c.post(ctx, "/api/upsert/", upsertRequest{ID: id, Content: content}, nil)
}

// Delete removes a document from the index.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/documents/"+id, nil)
	if err != nil {
		return fmt.Errorf("similarity: building delete request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	return nil
}

type similarRequest struct {
	ID        string  `json:"id"`
	Threshold float64 `json:"thresh"`
	Limit     int     `json:"limit"`
}

type semanticRequest struct {
	QueryText string  `json:"query_text"`
	Threshold float64 `json:"thresh"`
	Limit     int     `json:"limit"`
}

type searchResponse struct {
	SimilarResults []Match `json:"similar_results"`
	Count          int     `json:"count"`
}

// SearchSimilar returns documents similar to the one already indexed under
// the given id.
func (c *Client) SearchSimilar(ctx context.Context, id string, threshold float64, limit int) ([]Match, error) {
	threshold, limit = applyDefaults(threshold, limit)
	var response searchResponse
	if err := c.post(ctx, "/api/search/similar/", similarRequest{ID: id, Threshold: threshold, Limit: limit}, &response); err != nil {
		return nil, err
	}
	return response.SimilarResults, nil
}

// SearchSemantic resolves a free-text query against the index.
func (c *Client) SearchSemantic(ctx context.Context, query string, threshold float64, limit int) ([]Match, error) {
	threshold, limit = applyDefaults(threshold, limit)
	var response searchResponse
	if err := c.post(ctx, "/api/search/semantic/", semanticRequest{QueryText: query, Threshold: threshold, Limit: limit}, &response); err != nil {
		return nil, err
	}
	return response.SimilarResults, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("similarity: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("similarity: building request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrBadStatus, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func applyDefaults(threshold float64, limit int) (float64, int) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return threshold, limit
}
