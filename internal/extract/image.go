package extract

import (
	"context"
	"fmt"
	"strings"
)

func (s *Service) extractImage(ctx context.Context, path string) (string, error) {
	txt, err := s.tesseractOCR(ctx, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(txt) == "" {
		return "No readable text found in image.", nil
	}
	return strings.TrimSpace(txt), nil
}

func (s *Service) tesseractOCR(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := s.runner.Run(ctx, s.cfg.Tesseract, path, "stdout", "-l", s.cfg.TesseractLang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %s: %w", strings.TrimSpace(string(errb)), err)
	}
	return string(out), nil
}
