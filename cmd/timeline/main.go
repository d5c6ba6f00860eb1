package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/timelinehq/timeline/internal/api"
	"github.com/timelinehq/timeline/internal/config"
	"github.com/timelinehq/timeline/internal/extract"
	"github.com/timelinehq/timeline/internal/llm"
	"github.com/timelinehq/timeline/internal/prompt"
	"github.com/timelinehq/timeline/internal/server"
	"github.com/timelinehq/timeline/internal/telemetry"
	"github.com/timelinehq/timeline/internal/transcribe"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("timeline", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	// The template store is built once here and injected; a missing section
	// is a deployment error, so fail before serving any request.
	store, err := prompt.LoadStore(cfg.Prompts.Path)
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}

	timeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

	completions := llm.NewClient(cfg.Upstream.Token,
		llm.WithBaseURL(cfg.Upstream.BaseURL+"/backend/v1"),
		llm.WithTimeout(timeout),
	)
	transcriber := transcribe.NewClient(cfg.Upstream.Token,
		transcribe.WithBaseURL(cfg.Upstream.BaseURL),
	)

	extractor := extract.New(store, completions, logger,
		extract.WithModel(cfg.Upstream.Model),
		extract.WithMaxTokens(cfg.Extract.MaxTokens),
		extract.WithPromptBudget(cfg.Extract.PromptBudget),
	)

	srv := server.New(cfg.Server.Port, logger, 2*timeout)
	api.NewHandler(transcriber, extractor, logger).Routes(srv.Router)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
