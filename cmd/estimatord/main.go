package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/presalekit/estimator/internal/common"
	"github.com/presalekit/estimator/internal/extract"
	"github.com/presalekit/estimator/internal/llm"
	"github.com/presalekit/estimator/internal/pipeline"
	"github.com/presalekit/estimator/internal/quality"
	"github.com/presalekit/estimator/internal/repository"
	"github.com/presalekit/estimator/internal/storage"
)

func main() {
	// A missing .env file is fine; the OS environment wins either way.
	_ = godotenv.Load(".env.local")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("database health failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewMinioStore(cfg.Storage, logger)
	if err != nil {
		logger.Error("creating object store", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("ensuring bucket", "error", err)
		os.Exit(1)
	}

	docs := repository.NewDocumentRepository(pool, logger)
	results := repository.NewResultRepository(pool, logger)
	gateway := llm.NewOllamaClient(cfg.LLM, llm.DefaultRetryPolicy(), logger)
	extractor := extract.NewExtractor(logger)
	gate := quality.NewGate(quality.DefaultPolicy())

	orch := pipeline.NewOrchestrator(logger, pipeline.Config{
		Model:            cfg.LLM.Model,
		MaxAttempts:      cfg.Pipeline.MaxAttempts,
		PromptCharBudget: cfg.Pipeline.PromptCharBudget,
		SchemaDir:        cfg.Pipeline.SchemaDir,
	}, docs, results, store, extractor, gateway, gate)

	runner := pipeline.NewRunner(logger, cfg.Pipeline, docs, orch)

	logger.Info("estimatord.started", "model", cfg.LLM.Model, "workers", cfg.Pipeline.Workers)
	runner.Run(ctx)
	logger.Info("estimatord.stopped")
}
