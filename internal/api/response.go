package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/timelinehq/timeline/internal/domain"
)

// AnalyzeResponse is the success envelope for audio analysis.
type AnalyzeResponse struct {
	Success       bool           `json:"success"`
	Transcription string         `json:"transcription"`
	Events        []domain.Event `json:"events"`
}

// ExtractResponse is the success envelope for transcript-only extraction.
type ExtractResponse struct {
	Success bool           `json:"success"`
	Events  []domain.Event `json:"events"`
}

// ErrorDetail carries a machine-readable code alongside the human-readable
// message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// writeError maps a pipeline error onto the error envelope. The code tells
// the caller which phase failed and whether retrying the whole request is
// sensible.
func writeError(w http.ResponseWriter, err error) {
	var pe *domain.PipelineError
	if !errors.As(err, &pe) {
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL_ERROR", "服务器内部错误", err.Error())
		return
	}

	code, message := errorCode(pe.Kind)
	writeErrorCode(w, pe.HTTPStatusCode(), code, message, pe.Error())
}

func errorCode(kind domain.ErrorKind) (code, message string) {
	switch kind {
	case domain.ErrorKindInvalidTimestamp:
		return "INVALID_TIMESTAMP", "无法解析当前时间"
	case domain.ErrorKindInvalidTimezone:
		return "INVALID_TIMEZONE", "无法解析时区"
	case domain.ErrorKindPromptTooLarge:
		return "PROMPT_TOO_LARGE", "转录文本过长"
	case domain.ErrorKindTranscription:
		return "TRANSCRIPTION_FAILED", "语音识别失败，请重试"
	case domain.ErrorKindTransport, domain.ErrorKindResponseTruncated, domain.ErrorKindJSONDecode:
		return "EVENT_EXTRACTION_FAILED", "事件提取失败"
	default:
		// MissingCredential, TemplateFormat: deployment problems.
		return "INTERNAL_ERROR", "服务器内部错误"
	}
}
