package constants

import "strings"

// FileFormat is the declared input format of an uploaded document.
type FileFormat string

const (
	PDF   FileFormat = "PDF"
	CSV   FileFormat = "CSV"
	XML   FileFormat = "XML"
	IMAGE FileFormat = "IMAGE"
)

// AllowedExtensions holds the supported file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"csv":  {},
	"xml":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves a normalized extension to its format family.
// Returns "" for anything outside the supported set.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "csv":
		return CSV
	case "xml":
		return XML
	case "png", "jpg", "jpeg":
		return IMAGE
	}
	return ""
}
