// Package api implements the HTTP endpoints around the extraction pipeline.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/timelinehq/timeline/internal/domain"
	"github.com/timelinehq/timeline/internal/extract"
	"github.com/timelinehq/timeline/internal/ics"
	"github.com/timelinehq/timeline/internal/server"
)

const maxAudioBytes = 32 << 20

// Transcriber is the speech-to-text collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error)
}

// EventExtractor runs the extraction pipeline.
type EventExtractor interface {
	Extract(ctx context.Context, req extract.Request) ([]domain.Event, error)
}

type Handler struct {
	transcriber Transcriber
	extractor   EventExtractor
	logger      *slog.Logger
}

func NewHandler(transcriber Transcriber, extractor EventExtractor, logger *slog.Logger) *Handler {
	return &Handler{
		transcriber: transcriber,
		extractor:   extractor,
		logger:      logger,
	}
}

// Routes mounts all endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/v1/analyze", h.HandleAnalyze)
	r.Post("/api/v1/extract", h.HandleExtract)
	r.Post("/api/v1/export/ics", h.HandleExportICS)
	r.Get("/health", h.HandleHealth)
	r.Get("/api", h.HandleInfo)
}

// HandleAnalyze accepts a multipart form with an audio file plus timezone
// and current_time fields, transcribes the audio and extracts events.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_AUDIO", "请求格式错误", err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_AUDIO", "音频文件缺失", err.Error())
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_AUDIO", "无法读取音频文件", err.Error())
		return
	}
	if len(audio) == 0 {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_AUDIO", "音频文件为空", "请上传有效的音频文件")
		return
	}

	transcript, err := h.transcriber.Transcribe(r.Context(), audio, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, err)
		return
	}
	if strings.TrimSpace(transcript) == "" {
		writeErrorCode(w, http.StatusUnprocessableEntity, "EMPTY_TRANSCRIPT", "无法识别音频内容", "音频文件可能无法识别或内容为空")
		return
	}
	server.AddLogField(r.Context(), "transcript_len", strconv.Itoa(len(transcript)))

	events, err := h.extractor.Extract(r.Context(), extract.Request{
		Transcript:  transcript,
		CurrentTime: r.FormValue("current_time"),
		Timezone:    r.FormValue("timezone"),
		Tags:        formTags(r),
	})
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, err)
		return
	}
	server.AddLogField(r.Context(), "events", strconv.Itoa(len(events)))

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Success:       true,
		Transcription: transcript,
		Events:        events,
	})
}

// ExtractRequest is the JSON body for transcript-only extraction.
type ExtractRequest struct {
	Transcript  string   `json:"transcript"`
	CurrentTime string   `json:"current_time"`
	Timezone    string   `json:"timezone"`
	Tags        []string `json:"tags"`
}

// HandleExtract runs the pipeline on an already-transcribed text.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "请求格式错误", err.Error())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeErrorCode(w, http.StatusBadRequest, "EMPTY_TRANSCRIPT", "转录文本为空", "transcript 字段不能为空")
		return
	}

	events, err := h.extractor.Extract(r.Context(), extract.Request{
		Transcript:  req.Transcript,
		CurrentTime: req.CurrentTime,
		Timezone:    req.Timezone,
		Tags:        req.Tags,
	})
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, err)
		return
	}
	server.AddLogField(r.Context(), "events", strconv.Itoa(len(events)))

	writeJSON(w, http.StatusOK, ExtractResponse{Success: true, Events: events})
}

// ExportICSRequest is the JSON body for calendar export.
type ExportICSRequest struct {
	Events []domain.Event `json:"events"`
}

// HandleExportICS renders an event list as an iCalendar document.
func (h *Handler) HandleExportICS(w http.ResponseWriter, r *http.Request) {
	var req ExportICSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "请求格式错误", err.Error())
		return
	}

	doc := ics.Encode(req.Events, h.logger)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timeline.ics"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "Timeline API",
		"version":     "1.0.0",
		"description": "语音驱动的日程记录工具 API",
		"endpoints": map[string]string{
			"analyze": "/api/v1/analyze",
			"extract": "/api/v1/extract",
			"export":  "/api/v1/export/ics",
			"health":  "/health",
		},
	})
}

// formTags collects the optional tag whitelist from repeated "tags" form
// values, splitting comma-separated entries.
func formTags(r *http.Request) []string {
	var tags []string
	for _, raw := range r.MultipartForm.Value["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
