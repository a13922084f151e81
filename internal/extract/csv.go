package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// extractCSV parses the file into a table and serializes it back as aligned
// columns. No schema assumptions at this layer; the oracle reads the text.
func (s *Service) extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("extract.csv.close_failed", "path", path, "error", cerr)
		}
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; real-world exports have them
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return "No readable text found in CSV.", nil
	}

	// column widths for alignment
	widths := make([]int, 0)
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if pad := widths[i] - len(cell); pad > 0 && i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
