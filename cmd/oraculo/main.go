package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"oraculo/internal/amqp"
	"oraculo/internal/cache"
	"oraculo/internal/config"
	"oraculo/internal/core"
	apphttp "oraculo/internal/http"
	"oraculo/internal/ledger"
	"oraculo/internal/llm"
	applog "oraculo/internal/log"
	"oraculo/internal/report"
	"oraculo/internal/services"
	"oraculo/internal/session"
)

func main() {
	// Load .env for local development (ignore errors in production).
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "oraculo"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		writer   ledger.Writer
		reader   ledger.Reader
		contexts ledger.ContextStore
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := ledger.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite ledger", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		writer, reader, contexts = repo, repo, repo
		logger.Info("Initialized sqlite ledger", "path", cfg.SQLiteDBPath)
	default:
		repo := ledger.NewMemoryRepository()
		writer, reader, contexts = repo, repo, repo
		logger.Info("Initialized memory ledger")
	}

	var collaborator services.Collaborator
	if cfg.OpenAIAPIKey != "" {
		client, err := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout, logger)
		if err != nil {
			logger.Error("Failed to initialize OpenAI client", "error", err)
			os.Exit(1)
		}
		collaborator = client
		logger.Info("OpenAI collaborator initialized", "model", cfg.OpenAIModel)
	} else {
		logger.Info("OpenAI disabled - no OPENAI_API_KEY provided")
	}

	var publisher services.ExportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	reportCache := cache.NewLRU[*core.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	reports := report.NewService(reader, reportCache, logger)
	oracle := services.NewOracle(session.NewStore(), writer, contexts, reports, collaborator, publisher, logger)

	srv := apphttp.NewServer(":"+cfg.Port, oracle, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting oraculo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
