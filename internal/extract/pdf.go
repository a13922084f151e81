package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// extractPDF pulls the native text layer page by page. Pages with an empty
// text layer are rasterized and OCR'd individually so a mixed scanned/native
// document still comes out in page order.
func (s *Service) extractPDF(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := s.runner.Run(ctx, s.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %s: %w", strings.TrimSpace(string(errb)), err)
	}

	// \f is pdftotext's page separator
	pages := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	if s.cfg.MaxPages > 0 && len(pages) > s.cfg.MaxPages {
		pages = pages[:s.cfg.MaxPages]
	}

	var b strings.Builder
	for i, page := range pages {
		txt := strings.TrimSpace(page)
		if txt == "" {
			ocr, ocrErr := s.ocrPDFPage(ctx, path, i+1)
			if ocrErr != nil {
				return "", ocrErr
			}
			txt = strings.TrimSpace(ocr)
		}
		if txt != "" {
			b.WriteString(txt)
			b.WriteString("\n")
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "No readable text found in PDF.", nil
	}
	return strings.TrimSpace(b.String()), nil
}

// ocrPDFPage rasterizes a single page and runs it through tesseract.
func (s *Service) ocrPDFPage(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docrecon-pp-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			s.logger.Warn("extract.pdf.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png -f <page> -l <page> <in.pdf> <tmp/page>
	_, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", s.cfg.DPI), "-png",
		"-f", fmt.Sprintf("%d", page), "-l", fmt.Sprintf("%d", page),
		path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %s: %w", strings.TrimSpace(string(errb)), err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no image for page %d", page)
	}

	txt, err := s.tesseractOCR(ctx, matches[0])
	if err != nil {
		return "", err
	}
	return txt, nil
}
