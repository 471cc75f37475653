package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"faqbot-ai/internal/config"
	"faqbot-ai/internal/conversation"
	"faqbot-ai/internal/faq"
	"faqbot-ai/internal/http"
	"faqbot-ai/internal/llm"
	"faqbot-ai/internal/pipeline"
	"faqbot-ai/internal/planner"
	"faqbot-ai/internal/realtime"
	"faqbot-ai/internal/settings"
	"faqbot-ai/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	settingsRepo := storage.NewSettingsRepo(db)
	faqRepo := storage.NewFAQRepo(db)
	recordRepo := storage.NewRecordRepo(db)

	// Create LLM client (external service layer). A missing key is not fatal
	// here: it only fails at the point a model call is attempted.
	llmClient := llm.New(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.ChatModel, cfg.EmbeddingModel)
	if cfg.OpenAIKey == "" {
		slog.Warn("No OpenAI key configured; model calls will fail until one is set")
	}

	// Assemble the ask pipeline
	provider := settings.NewProvider(settingsRepo, recordRepo)
	engine := pipeline.NewEngine(
		conversation.NewRewriter(llmClient),
		faq.NewRetriever(llmClient, faqRepo, cfg.FAQThreshold, cfg.FAQTopK),
		planner.NewPlanner(llmClient),
		realtime.NewExecutor(recordRepo, cfg.ListRowLimit),
		pipeline.NewInterpreter(llmClient),
		pipeline.NewAggregator(llmClient),
		provider,
		cfg.LLMTimeout,
	)
	slog.Info("Ask pipeline initialized",
		"faq_threshold", cfg.FAQThreshold, "faq_top_k", cfg.FAQTopK, "list_row_limit", cfg.ListRowLimit)

	// Create router with dependencies
	deps := &http.Deps{
		Engine:        engine,
		DB:            db,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Model configuration", "chat_model", cfg.ChatModel, "embedding_model", cfg.EmbeddingModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
