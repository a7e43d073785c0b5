// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/docstore"
	"github.com/starford/assetexport/internal/exporter"
	"github.com/starford/assetexport/internal/resolver"
	"github.com/starford/assetexport/internal/storage"
)

// Run exports the configured target asset with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if !app.target.Type.Valid() || app.target.ID == "" {
		return apperr.Usage("an asset to export is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logOutput := app.logOutput
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}
	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	outputDir := app.outputDir
	if outputDir == "" {
		outputDir = cfg.Export.Dir
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir()
	}

	logger.Info("Configuration loaded",
		slog.String("store_url", cfg.Store.URL),
		slog.String("index", cfg.Store.Index),
		slog.String("timeout", cfg.Store.Timeout.String()),
		slog.String("output_dir", outputDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure output directory exists.
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	store, err := storage.NewFS(outputDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	client := app.client
	if client == nil {
		client, err = docstore.NewHTTP(cfg.Store.URL, cfg.Store.Timeout)
		if err != nil {
			return fmt.Errorf("init document store: %w", err)
		}
	}

	res := resolver.New(client, cfg.Store.Index, exporter.Layout{Dir: store.Root()},
		resolver.WithLogger(logger),
		resolver.WithConcurrency(cfg.Export.Concurrency))

	logger.Info("Resolving asset",
		slog.String("type", app.target.Type.String()),
		slog.String("id", app.target.ID))

	set, resolveErr := res.Resolve(ctx, app.target)
	if errors.Is(resolveErr, apperr.ErrNotFound) {
		logger.Error("Root asset not found", slog.String("error", resolveErr.Error()))
		return resolveErr
	}
	if resolveErr != nil {
		logger.Error("Panel expansion failed", slog.String("error", resolveErr.Error()))
	}

	report := exporter.New(store, logger).Export(set)
	logger.Info("Export finished",
		slog.Int("written", len(report.Written)),
		slog.Int("failed", len(report.Failed)))

	return errors.Join(resolveErr, report.Err())
}
