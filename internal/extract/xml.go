package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// extractXML parses the document and serializes the canonical tree back to
// text. Malformed XML surfaces the parser's message, never a crash.
func (s *Service) extractXML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var out bytes.Buffer
	enc := xml.NewEncoder(&out)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}
		// the encoder re-emits the canonical tree; directives and processing
		// instructions pass through unchanged
		if err := enc.EncodeToken(tok); err != nil {
			return "", fmt.Errorf("serialize xml: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("serialize xml: %w", err)
	}

	txt := strings.TrimSpace(out.String())
	if txt == "" {
		return "No readable text found in XML.", nil
	}
	return txt, nil
}
