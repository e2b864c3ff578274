// Package relayclient opens generation streams and lists models through a
// running lingo relay instead of talking to Ollama directly.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/lingo/pkg/generation"
	"github.com/papercomputeco/lingo/pkg/ollama"
)

const (
	GeneratePath = "/api/ollama/generate"
	TagsPath     = "/api/ollama/tags"
)

// Client talks to the relay at a fixed target URL.
type Client struct {
	target      string
	httpClient  *http.Client
	tagsTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the relay at target, e.g. "http://localhost:8090".
func New(target string, opts ...Option) *Client {
	c := &Client{
		target:      strings.TrimRight(target, "/"),
		httpClient:  &http.Client{},
		tagsTimeout: ollama.DefaultTagsTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the relay URL.
func (c *Client) Target() string {
	return c.target
}

// Stream implements generation.Streamer. Non-success responses become an
// *ollama.StatusError carrying the relay's error message.
func (c *Client) Stream(ctx context.Context, req generation.Request) (io.ReadCloser, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target+GeneratePath, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay request to %s failed: %w", c.target, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, ollama.ErrorFromResponse(resp)
	}

	return resp.Body, nil
}

// Tags lists the models of serverURL as seen by the relay. An empty
// serverURL lets the relay use its configured upstream.
func (c *Client) Tags(ctx context.Context, serverURL string) (*ollama.TagsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.tagsTimeout)
	defer cancel()

	u := c.target + TagsPath
	if serverURL != "" {
		u += "?" + url.Values{"serverUrl": {serverURL}}.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay request to %s failed: %w", c.target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ollama.ErrorFromResponse(resp)
	}

	tags := &ollama.TagsResponse{}
	if err := json.NewDecoder(resp.Body).Decode(tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return tags, nil
}

var _ generation.Streamer = (*Client)(nil)
