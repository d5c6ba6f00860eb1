// Package extract implements the event extraction pipeline: time context →
// prompt rendering → model invocation → sanitize/parse → validate/map.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/timelinehq/timeline/internal/domain"
	"github.com/timelinehq/timeline/internal/llm"
	"github.com/timelinehq/timeline/internal/prompt"
	"github.com/timelinehq/timeline/internal/timectx"
	"github.com/timelinehq/timeline/internal/tokens"
)

const (
	defaultModel        = "gemini-3-flash-preview"
	defaultTemperature  = 0.3
	defaultMaxTokens    = 2000
	defaultPromptBudget = 16000

	finishReasonLength = "length"
)

// CompletionClient is the slice of the llm client the extractor needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)
}

// Option configures the extractor.
type Option func(*Extractor)

// WithModel sets the model name sent upstream.
func WithModel(model string) Option {
	return func(e *Extractor) {
		e.model = model
	}
}

// WithMaxTokens sets the output token ceiling.
func WithMaxTokens(maxTokens int) Option {
	return func(e *Extractor) {
		e.maxTokens = maxTokens
	}
}

// WithPromptBudget sets the input token budget checked before invoking the
// model. Zero disables the check.
func WithPromptBudget(budget int) Option {
	return func(e *Extractor) {
		e.promptBudget = budget
	}
}

// Extractor runs the extraction pipeline. It is safe for concurrent use;
// each request is a strictly sequential chain sharing only the read-only
// template store.
type Extractor struct {
	store        *prompt.Store
	client       CompletionClient
	estimator    *tokens.Estimator
	logger       *slog.Logger
	model        string
	temperature  float64
	maxTokens    int
	promptBudget int
}

// New creates an extractor around a template store and completion client.
func New(store *prompt.Store, client CompletionClient, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		store:        store,
		client:       client,
		estimator:    tokens.NewEstimator(),
		logger:       logger,
		model:        defaultModel,
		temperature:  defaultTemperature,
		maxTokens:    defaultMaxTokens,
		promptBudget: defaultPromptBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is the caller-facing input contract of the pipeline.
type Request struct {
	// Transcript is the plain text produced by speech-to-text.
	Transcript string

	// CurrentTime is the caller's reference instant, ISO 8601.
	CurrentTime string

	// Timezone is optional when an offset is embedded in CurrentTime.
	Timezone string

	// Tags is the optional ordered whitelist of event categories.
	Tags []string
}

// Extract runs the full pipeline and returns the ordered event sequence.
// Record order follows the model's output; no re-sorting by time occurs.
func (e *Extractor) Extract(ctx context.Context, req Request) ([]domain.Event, error) {
	tc, err := timectx.Resolve(req.CurrentTime, req.Timezone)
	if err != nil {
		return nil, err
	}

	tags := domain.TagContext{AllowedTags: uniqueTags(req.Tags)}
	bundle := e.store.Render(tc, req.Transcript, tags)

	estimate := e.estimator.EstimatePrompt(bundle.SystemText, bundle.UserText)
	if e.promptBudget > 0 && estimate > e.promptBudget {
		return nil, domain.NewPipelineError(domain.ErrorKindPromptTooLarge, domain.PhaseRendering,
			fmt.Sprintf("prompt estimated at %d tokens exceeds budget of %d", estimate, e.promptBudget))
	}

	records, err := e.invokeAndParse(ctx, bundle)
	if err != nil {
		return nil, err
	}

	events := mapRecords(records, tags, e.logger)
	e.logger.Info("extraction complete",
		slog.Int("prompt_tokens_estimate", estimate),
		slog.Int("raw_records", len(records)),
		slog.Int("events", len(events)))
	return events, nil
}

// invokeAndParse sends the prompt and decodes the reply. A JSON decode
// failure is retried exactly once; every other failure class (transport,
// truncation, missing envelope fields) propagates on first occurrence.
func (e *Extractor) invokeAndParse(ctx context.Context, bundle prompt.Bundle) ([]domain.RawEventRecord, error) {
	records, firstErr := e.attempt(ctx, bundle)
	if firstErr == nil || !domain.IsRetryable(firstErr) {
		return records, firstErr
	}

	e.logger.Warn("model output failed to decode, retrying once",
		slog.String("error", firstErr.Error()))

	records, retryErr := e.attempt(ctx, bundle)
	if retryErr == nil {
		return records, nil
	}
	if domain.IsRetryable(retryErr) {
		// Surface the original decode error.
		return nil, firstErr
	}
	return nil, retryErr
}

func (e *Extractor) attempt(ctx context.Context, bundle prompt.Bundle) ([]domain.RawEventRecord, error) {
	ctx, span := otel.Tracer("extract").Start(ctx, "chat_completion")
	span.SetAttributes(attribute.String("model", e.model))
	defer span.End()

	resp, err := e.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: e.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: bundle.SystemText},
			{Role: "user", Content: bundle.UserText},
		},
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	choice := resp.Choices[0]
	if choice.FinishReason == finishReasonLength {
		return nil, domain.NewPipelineError(domain.ErrorKindResponseTruncated, domain.PhaseInvocation,
			"completion was cut off by the output token ceiling")
	}
	if choice.Message.Content == "" {
		return nil, domain.NewPipelineError(domain.ErrorKindTransport, domain.PhaseInvocation,
			"completion content is empty")
	}

	return parseRecords(choice.Message.Content)
}

// uniqueTags preserves the caller's ordering while dropping duplicates and
// empty entries.
func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
