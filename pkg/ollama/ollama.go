// Package ollama is a client for the generation and model listing endpoints
// of an Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/papercomputeco/lingo/pkg/generation"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTagsTimeout bounds model listing. Generation is unbounded.
	DefaultTagsTimeout = 5 * time.Second

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 * 1024
)

// Client talks to one or more Ollama servers; the base URL is supplied per
// call.
type Client struct {
	httpClient  *http.Client
	tagsTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client. It should not set a Timeout,
// since that would also cut off long generations.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTagsTimeout overrides DefaultTagsTimeout.
func WithTagsTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.tagsTimeout = d
	}
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		tagsTimeout: DefaultTagsTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenStream POSTs a streaming generation request and returns the response
// whatever its status. Only transport failures are returned as errors, as
// *UnreachableError. Entries in header are added to the upstream request
// before Content-Type is set. The caller owns the response body.
func (c *Client) OpenStream(ctx context.Context, baseURL, model, prompt string, header http.Header) (*http.Response, error) {
	baseURL = normalizeBaseURL(baseURL)

	jsonBody, err := json.Marshal(GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{URL: baseURL, Err: err}
	}
	return resp, nil
}

// Stream implements generation.Streamer against the server in
// req.ServerURL. A non-success status becomes a *StatusError carrying the
// server's response text.
func (c *Client) Stream(ctx context.Context, req generation.Request) (io.ReadCloser, error) {
	resp, err := c.OpenStream(ctx, req.ServerURL, req.Model, req.Prompt, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    "Ollama error: " + strings.TrimSpace(string(text)),
		}
	}

	return resp.Body, nil
}

var errInvalidTags = errors.New("invalid JSON in tags response")

// TagsRaw fetches GET /api/tags and returns the body undecoded. The call is
// bounded by the client's tags timeout.
func (c *Client) TagsRaw(ctx context.Context, baseURL string) (json.RawMessage, error) {
	baseURL = normalizeBaseURL(baseURL)

	ctx, cancel := context.WithTimeout(ctx, c.tagsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{URL: baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Ollama returned status %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{URL: baseURL, Err: err}
	}
	if !json.Valid(data) {
		return nil, &UnreachableError{URL: baseURL, Err: errInvalidTags}
	}
	return data, nil
}

// Tags lists the models available on the server at baseURL.
func (c *Client) Tags(ctx context.Context, baseURL string) (*TagsResponse, error) {
	raw, err := c.TagsRaw(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	tags := &TagsResponse{}
	if err := json.Unmarshal(raw, tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return tags, nil
}

// ErrorFromResponse builds a *StatusError from a non-success response. The
// message is the JSON "error" field when present, otherwise a generic
// message naming the status code. The body is consumed but not closed.
func ErrorFromResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Request failed with status %d", resp.StatusCode),
	}
}

// ResolveModel returns selected when it is among available, otherwise the
// first available model. It returns "" when nothing is available.
func ResolveModel(selected string, available []string) string {
	if selected != "" && slices.Contains(available, selected) {
		return selected
	}
	if len(available) == 0 {
		return ""
	}
	return available[0]
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

var _ generation.Streamer = (*Client)(nil)
