package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"docrecon/constants"
	"docrecon/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDF pages, default 300
	MaxPages      int    // 0 = no limit
}

// Service turns a document file into raw text. Format dispatch is exhaustive
// over the supported extension set; anything else fails before I/O.
type Service struct {
	cfg         Config
	runner      Runner
	corrections []CorrectionRule
	logger      *slog.Logger
}

type Option func(*Service)

// WithRunner replaces the exec runner; used by tests to stub external tools.
func WithRunner(r Runner) Option {
	return func(s *Service) { s.runner = r }
}

// WithCorrections replaces the OCR-repair rule table. Pass nil to disable
// the literal rewrites entirely.
func WithCorrections(rules []CorrectionRule) Option {
	return func(s *Service) { s.corrections = rules }
}

func NewService(cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	s := &Service{cfg: cfg, runner: execRunner{}, corrections: DefaultCorrections(), logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Extract dispatches on the declared format and returns the document's raw
// text. On failure the returned text carries the "Error reading <kind>"
// prefix alongside the error so callers holding only the text still see the
// failure. OCR corrections are applied to PDF/image-derived text only.
func (s *Service) Extract(ctx context.Context, path string, declared string) (string, error) {
	start := time.Now()
	format := constants.MapExtToFormat(declared)
	if format == "" {
		s.logger.Error("extract.unsupported_format", "path", path, "declared", declared)
		return "", common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported file format: %q", declared), common.ErrUnsupportedFormat)
	}
	s.logger.Debug("extract.start", "path", path, "format", string(format))

	var text string
	var err error
	switch format {
	case constants.PDF:
		text, err = s.extractPDF(ctx, path)
		if err == nil {
			text = ApplyCorrections(text, s.corrections)
		}
	case constants.CSV:
		text, err = s.extractCSV(path)
	case constants.XML:
		text, err = s.extractXML(path)
	case constants.IMAGE:
		text, err = s.extractImage(ctx, path)
		if err == nil {
			text = ApplyCorrections(text, s.corrections)
		}
	}

	if err != nil {
		s.logger.Error("extract.failed", "path", path, "format", string(format), "error", err)
		return errorText(format, err), common.NewAppError("EXTRACTION_ERROR", err.Error(), common.ErrExtraction)
	}
	s.logger.Debug("extract.ok", "path", path, "format", string(format),
		"bytes", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

// ExtractBytes writes the payload to a temp file and extracts it. Upload
// handlers hold bytes; the external tools want paths.
func (s *Service) ExtractBytes(ctx context.Context, data []byte, declared string) (string, error) {
	format := constants.MapExtToFormat(declared)
	if format == "" {
		return "", common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported file format: %q", declared), common.ErrUnsupportedFormat)
	}
	tmp, err := os.CreateTemp("", "docrecon-*."+constants.NormalizeExt(declared))
	if err != nil {
		return errorText(format, err), common.NewAppError("EXTRACTION_ERROR", err.Error(), common.ErrExtraction)
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("extract.tmp_cleanup_failed", "path", path, "error", err)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errorText(format, err), common.NewAppError("EXTRACTION_ERROR", err.Error(), common.ErrExtraction)
	}
	if err := tmp.Close(); err != nil {
		return errorText(format, err), common.NewAppError("EXTRACTION_ERROR", err.Error(), common.ErrExtraction)
	}
	return s.Extract(ctx, path, declared)
}

// IsErrorText reports whether extracted text signals a failed extraction.
// Callers must treat error-prefixed text as a hard failure and never pass it
// to the oracle.
func IsErrorText(text string) bool {
	return len(text) >= len(errorPrefix) && text[:len(errorPrefix)] == errorPrefix
}

const errorPrefix = "Error reading "

func errorText(format constants.FileFormat, err error) string {
	var kind string
	switch format {
	case constants.PDF:
		kind = "PDF"
	case constants.CSV:
		kind = "CSV"
	case constants.XML:
		kind = "XML"
	default:
		kind = "image"
	}
	return errorPrefix + kind + ": " + err.Error()
}

// FormatForPath resolves a file's format tag from its extension.
func FormatForPath(path string) string {
	return constants.NormalizeExt(filepath.Ext(path))
}
