package oracle

import (
	"context"

	"docrecon/constants"
	"docrecon/internal/entity"
)

// Request carries one extraction call: the document text plus retrieved
// examples of previously validated documents of the same class.
type Request struct {
	Class        constants.DocumentClass
	DocumentText string
	Examples     []string
}

// Response is the oracle's decoded envelope: a verdict and the raw field map.
type Response struct {
	Verdict entity.ExtractionVerdict
	Fields  map[string]any
}

// StructuredExtractor is the boundary to the external extraction model. The
// engine depends only on this interface so tests inject fakes. The raw JSON
// payload is returned alongside the decoded response for audit logging.
type StructuredExtractor interface {
	Extract(ctx context.Context, req Request) (Response, []byte, error)
}
