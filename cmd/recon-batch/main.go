package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docrecon/constants"
	"docrecon/internal/common"
	"docrecon/internal/engine"
	"docrecon/internal/extract"
	"docrecon/internal/ingest"
	"docrecon/internal/oracle"
	"docrecon/internal/oracle/gemini"
	"docrecon/internal/oracle/openai"
	"docrecon/internal/repository"
	"docrecon/internal/simindex/chroma"
)

// printError prints to stderr, falling back to stdout if stderr fails.
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory of documents to validate (required)")
		classArg = flag.String("class", "invoice", "document class: invoice or purchase_order")
		watch    = flag.Bool("watch", false, "keep watching the directory for new files")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	class, ok := constants.ParseClass(*classArg)
	if !ok {
		printError("Error: --class must be invoice or purchase_order\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Database.Path,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		printError("Error: open document store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	extractor := extract.NewService(extract.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	orc, cleanup, err := buildOracle(ctx, cfg, logger)
	if err != nil {
		printError("Error: build extraction oracle: %v\n", err)
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

	if *watch {
		runWatch(ctx, eng, *dir, class, logger)
		return
	}
	runOnce(ctx, eng, *dir, class, logger)
}

func runOnce(ctx context.Context, eng *engine.Engine, dir string, class constants.DocumentClass, logger *slog.Logger) {
	var processed, valid, duplicates, failures int
	start := time.Now()

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil
		}
		processed++
		rec, err := eng.ValidateFile(ctx, path, class)
		if err != nil {
			failures++
			logger.Error("batch.validate.failed", "path", path, "error", err)
			return nil
		}
		if rec.Verdict.ValidFormat {
			valid++
		}
		if rec.IsDuplicate {
			duplicates++
		}
		logger.Info("batch.validate.done", "path", path,
			"valid_format", rec.Verdict.ValidFormat,
			"duplicate", rec.IsDuplicate,
			"business_number", rec.BusinessNumber())
		return nil
	})
	if err != nil {
		printError("Error: walk %s: %v\n", dir, err)
		os.Exit(1)
	}

	logger.Info("batch.done",
		"processed", processed,
		"valid", valid,
		"duplicates", duplicates,
		"failures", failures,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

func runWatch(ctx context.Context, eng *engine.Engine, dir string, class constants.DocumentClass, logger *slog.Logger) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		printError("Error: start watcher: %v\n", err)
		os.Exit(1)
	}

	logger.Info("batch.watch.start", "dir", dir, "class", string(class))
	for {
		select {
		case <-ctx.Done():
			logger.Info("batch.watch.stop")
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			rec, err := eng.ValidateFile(ctx, path, class)
			if err != nil {
				logger.Error("batch.validate.failed", "path", path, "error", err)
				continue
			}
			logger.Info("batch.validate.done", "path", path,
				"valid_format", rec.Verdict.ValidFormat,
				"duplicate", rec.IsDuplicate,
				"business_number", rec.BusinessNumber())
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Error("batch.watch.error", "error", err)
			}
		}
	}
}

func buildOracle(ctx context.Context, cfg *common.Config, logger *slog.Logger) (oracle.StructuredExtractor, func(), error) {
	switch cfg.Oracle.Provider {
	case "gemini":
		gc, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Oracle.GeminiKey,
			Temperature: cfg.Oracle.Temperature,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return gc, func() { _ = gc.Close() }, nil
	default:
		oc := openai.NewClient(openai.Config{
			APIKey:      cfg.Oracle.APIKey,
			BaseURL:     cfg.Oracle.BaseURL,
			Model:       cfg.Oracle.Model,
			Temperature: cfg.Oracle.Temperature,
			Timeout:     cfg.Oracle.Timeout,
		}, logger)
		return oc, func() {}, nil
	}
}
