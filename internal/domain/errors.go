// Package domain provides the canonical types and error taxonomy for the
// extraction pipeline.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a pipeline failure. The extraction invoker keys its
// retry decision on the kind, never on message text.
type ErrorKind string

const (
	// ErrorKindMissingCredential indicates the upstream API token is absent.
	ErrorKindMissingCredential ErrorKind = "missing_credential"

	// ErrorKindInvalidTimestamp indicates the caller-supplied reference time
	// could not be parsed as ISO 8601.
	ErrorKindInvalidTimestamp ErrorKind = "invalid_timestamp"

	// ErrorKindInvalidTimezone indicates the timezone token is neither a
	// named zone nor a fixed HH:MM offset.
	ErrorKindInvalidTimezone ErrorKind = "invalid_timezone"

	// ErrorKindTemplateFormat indicates the prompt template document is
	// missing a required section. The process cannot serve any request.
	ErrorKindTemplateFormat ErrorKind = "template_format"

	// ErrorKindPromptTooLarge indicates the rendered prompt exceeds the
	// model's context budget.
	ErrorKindPromptTooLarge ErrorKind = "prompt_too_large"

	// ErrorKindTransport covers network failures, non-2xx statuses,
	// timeouts, and malformed response envelopes from the upstream.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindResponseTruncated indicates the completion was cut off by the
	// output token ceiling. An identical request would truncate identically,
	// so this is never retried.
	ErrorKindResponseTruncated ErrorKind = "response_truncated"

	// ErrorKindJSONDecode indicates the model produced output that did not
	// decode as a JSON array. This is the sole retryable kind.
	ErrorKindJSONDecode ErrorKind = "json_decode"

	// ErrorKindTranscription indicates the speech-to-text collaborator
	// failed.
	ErrorKindTranscription ErrorKind = "transcription"
)

// Phase identifies which pipeline stage produced an error, so the caller can
// decide whether retrying the whole request is sensible.
type Phase string

const (
	PhaseTimeResolution Phase = "time_resolution"
	PhaseRendering      Phase = "prompt_rendering"
	PhaseInvocation     Phase = "model_invocation"
	PhaseParsing        Phase = "response_parsing"
	PhaseTranscription  Phase = "transcription"
)

// PipelineError is the canonical error value surfaced by the extraction
// pipeline. Callers inspect Kind with errors.As/KindOf rather than matching
// message strings.
type PipelineError struct {
	Kind    ErrorKind
	Phase   Phase
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Phase, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Phase, e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode maps the error kind to a suggested HTTP status.
func (e *PipelineError) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindInvalidTimestamp, ErrorKindInvalidTimezone, ErrorKindPromptTooLarge:
		return http.StatusBadRequest
	case ErrorKindMissingCredential, ErrorKindTemplateFormat:
		return http.StatusInternalServerError
	case ErrorKindTransport:
		return http.StatusBadGateway
	case ErrorKindResponseTruncated, ErrorKindJSONDecode, ErrorKindTranscription:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewPipelineError creates a pipeline error without a wrapped cause.
func NewPipelineError(kind ErrorKind, phase Phase, message string) *PipelineError {
	return &PipelineError{Kind: kind, Phase: phase, Message: message}
}

// WrapPipelineError creates a pipeline error wrapping an underlying cause.
func WrapPipelineError(kind ErrorKind, phase Phase, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Phase: phase, Message: message, Err: err}
}

// KindOf returns the ErrorKind carried by err, or "" if err is not a
// PipelineError.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether the invoker may retry the model call for this
// error. Only JSON decode failures qualify; transport and truncation
// failures propagate immediately.
func IsRetryable(err error) bool {
	return KindOf(err) == ErrorKindJSONDecode
}
