package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"oraculo/internal/amqp"
	"oraculo/internal/config"
	"oraculo/internal/core"
	"oraculo/internal/export"
	applog "oraculo/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "oraculo-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting oraculo-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink export.Sink
	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := export.NewSheetsSink(ctx, export.SheetsConfig{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets sink", "error", err)
			os.Exit(1)
		}
		sink = sheets
		logger.Info("Google Sheets sink initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sink = export.NewMemorySink()
		logger.Info("Google Sheets disabled - exporting to memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeExpenseExports(gctx, func(msg *amqp.ExpenseExportMessage) error {
			return exportMessage(gctx, sink, msg)
		})
	})

	logger.Info("Worker consuming export messages", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func exportMessage(ctx context.Context, sink export.Sink, msg *amqp.ExpenseExportMessage) error {
	date, err := time.ParseInLocation("2006-01-02", msg.ExpenseDate, time.UTC)
	if err != nil {
		// A bad date is a poison message; dropping beats requeue loops,
		// so export with the zero date rather than failing.
		date = time.Time{}
	}

	return sink.AppendRow(ctx, core.LedgerEntry{
		ID:          msg.ID,
		UserID:      msg.UserID,
		Description: msg.Description,
		Amount:      core.Money{Cents: msg.AmountCents},
		Category:    msg.Category,
		ExpenseDate: date,
		Status:      msg.Status,
		ExpenseType: msg.ExpenseType,
	})
}
