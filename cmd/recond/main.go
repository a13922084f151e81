package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docrecon/internal/common"
	"docrecon/internal/engine"
	"docrecon/internal/export"
	"docrecon/internal/extract"
	"docrecon/internal/oracle"
	"docrecon/internal/oracle/gemini"
	"docrecon/internal/oracle/openai"
	"docrecon/internal/recon"
	"docrecon/internal/repository"
	"docrecon/internal/server"
	"docrecon/internal/simindex/chroma"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Database.Path,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open document store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close document store", "error", err)
		}
	}()

	extractor := extract.NewService(extract.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	orc, renderer, cleanup, err := buildOracle(ctx, cfg, logger)
	if err != nil {
		logger.Error("build extraction oracle", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	invoiceIndex := chroma.NewClient(chroma.Config{
		BaseURL:    cfg.Index.BaseURL,
		Collection: cfg.Index.InvoiceCollection,
		Timeout:    cfg.Index.Timeout,
	}, logger)
	poIndex := chroma.NewClient(chroma.Config{
		BaseURL:    cfg.Index.BaseURL,
		Collection: cfg.Index.POCollection,
		Timeout:    cfg.Index.Timeout,
	}, logger)

	eng := engine.New(engine.Config{
		DedupMaxDistance: cfg.Dedup.MaxDistance,
		ContextK:         cfg.Dedup.ContextK,
	}, extractor, orc, store, invoiceIndex, poIndex, logger)

	exporter := export.NewService(store, logger)
	srv := server.New(server.Config{Addr: cfg.Server.Addr}, eng, store, exporter, renderer, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}
}

// buildOracle wires the configured provider. The narrative renderer rides on
// the OpenAI completion surface and is nil for other providers.
func buildOracle(ctx context.Context, cfg *common.Config, logger *slog.Logger) (oracle.StructuredExtractor, recon.NarrativeRenderer, func(), error) {
	switch cfg.Oracle.Provider {
	case "gemini":
		gc, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Oracle.GeminiKey,
			Temperature: cfg.Oracle.Temperature,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() {
			if err := gc.Close(); err != nil {
				logger.Warn("close gemini client", "error", err)
			}
		}
		return gc, nil, cleanup, nil
	default:
		oc := openai.NewClient(openai.Config{
			APIKey:      cfg.Oracle.APIKey,
			BaseURL:     cfg.Oracle.BaseURL,
			Model:       cfg.Oracle.Model,
			Temperature: cfg.Oracle.Temperature,
			Timeout:     cfg.Oracle.Timeout,
		}, logger)
		return oc, recon.NewHTMLRenderer(oc, logger), func() {}, nil
	}
}
