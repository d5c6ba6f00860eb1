// Package llm is the HTTP client for the text-generation collaborator's
// chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/timelinehq/timeline/internal/domain"
)

const (
	defaultBaseURL = "https://space.ai-builders.com/backend/v1"
	defaultTimeout = 30 * time.Second
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// Client is an HTTP client for a bearer-token chat completions API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new chat completions client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateChatCompletion sends a chat completion request and validates the
// response envelope. A missing credential, network failure, non-2xx status
// or malformed envelope each surface as distinct pipeline error kinds; none
// of them are retried here.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if c.token == "" {
		return nil, domain.NewPipelineError(domain.ErrorKindMissingCredential, domain.PhaseInvocation,
			"upstream API token is not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			"failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			"failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			"request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			"failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, truncateBody(respBody)))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			"failed to unmarshal response envelope", err)
	}

	if len(result.Choices) == 0 {
		return nil, domain.NewPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			"response envelope has no choices")
	}

	return &result, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
