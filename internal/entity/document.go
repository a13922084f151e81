package entity

import "docrecon/constants"

// ExtractionVerdict is the oracle's judgment of one extraction attempt. It is
// never persisted standalone; it always travels on a StructuredRecord.
type ExtractionVerdict struct {
	ValidFormat   bool     `json:"valid_format"`
	MissingFields []string `json:"missing_fields"`
	Anomalies     []string `json:"anomalies"`
}

// LineItem is one row of a document's item table. Owned exclusively by its
// parent header; never shared across documents.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// StructuredRecord is the normalized output of one document validation.
// Every mandatory field key for the class is present in MandatoryFields
// (sentinel "N/A" when absent); OptionalFields holds only keys that were found.
type StructuredRecord struct {
	Class           constants.DocumentClass `json:"document_class"`
	MandatoryFields map[string]any          `json:"mandatory_fields"`
	OptionalFields  map[string]any          `json:"optional_fields"`
	LineItems       []LineItem              `json:"line_items"`
	Verdict         ExtractionVerdict       `json:"verdict"`

	IsCorrupted bool `json:"is_corrupted"`
	IsDuplicate bool `json:"is_duplicate"`
}

// Fields flattens mandatory and optional fields into one map, with line items
// under the line_items key. This is the shape the store and comparator consume.
func (r *StructuredRecord) Fields() map[string]any {
	out := make(map[string]any, len(r.MandatoryFields)+len(r.OptionalFields)+1)
	for k, v := range r.MandatoryFields {
		out[k] = v
	}
	for k, v := range r.OptionalFields {
		out[k] = v
	}
	if r.LineItems != nil {
		items := make([]map[string]any, len(r.LineItems))
		for i, it := range r.LineItems {
			items[i] = map[string]any{
				"description": it.Description,
				"quantity":    it.Quantity,
				"unit_price":  it.UnitPrice,
				"amount":      it.Amount,
			}
		}
		out[constants.FieldLineItems] = items
	}
	return out
}

// BusinessNumber returns the record's invoice or PO number, "" if sentinel.
func (r *StructuredRecord) BusinessNumber() string {
	v, ok := r.MandatoryFields[constants.BusinessNumberField(r.Class)]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	if s == constants.Sentinel {
		return ""
	}
	return s
}

// StoredDocument is the persisted form of a StructuredRecord.
type StoredDocument struct {
	ID              int64                   `json:"id"`
	Class           constants.DocumentClass `json:"document_class"`
	FileContentHash string                  `json:"file_content_hash"`
	BusinessNumber  string                  `json:"business_number"`
	Fields          map[string]any          `json:"fields"`
	LineItems       []LineItem              `json:"line_items"`
}
