// Package transcribe is the HTTP client for the speech-to-text
// collaborator. The extraction core consumes only the resulting text; audio
// never enters the pipeline itself.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/timelinehq/timeline/internal/domain"
)

const (
	defaultBaseURL = "https://space.ai-builders.com"
	defaultTimeout = 60 * time.Second
)

// contentTypeByExt maps audio file extensions to MIME types, used when the
// caller does not supply one.
var contentTypeByExt = map[string]string{
	"m4a":  "audio/m4a",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"webm": "audio/webm",
}

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

// Client is an HTTP client for the audio transcription API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new transcription client.
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

// Transcribe uploads the audio and returns the transcript text. The upstream
// is mounted at two path prefixes depending on deployment; the client tries
// the prefixed path first and falls back to the bare one.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error) {
	if c.token == "" {
		return "", domain.NewPipelineError(domain.ErrorKindMissingCredential, domain.PhaseTranscription,
			"upstream API token is not configured")
	}

	if contentType == "" {
		contentType = inferContentType(filename)
	}

	endpoints := []string{
		c.baseURL + "/backend/v1/audio/transcriptions",
		c.baseURL + "/v1/audio/transcriptions",
	}

	var lastErr error
	for _, endpoint := range endpoints {
		text, err := c.post(ctx, endpoint, audio, filename, contentType)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) post(ctx context.Context, endpoint string, audio []byte, filename, contentType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio_file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", domain.WrapPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"failed to build multipart body", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", domain.WrapPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"failed to build multipart body", err)
	}
	if err := writer.Close(); err != nil {
		return "", domain.WrapPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"failed to build multipart body", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", domain.WrapPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.WrapPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, truncateBody(respBody)))
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", domain.WrapPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"failed to unmarshal response", err)
	}
	text, ok := result["text"].(string)
	if !ok {
		return "", domain.NewPipelineError(domain.ErrorKindTranscription, domain.PhaseTranscription,
			"response has no text field")
	}

	return text, nil
}

func inferContentType(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		if ct, ok := contentTypeByExt[strings.ToLower(filename[idx+1:])]; ok {
			return ct
		}
	}
	return "audio/webm"
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
