// Package normalize turns a raw oracle field map into a complete
// StructuredRecord for its document class.
package normalize

import (
	"strings"

	"docrecon/constants"
	"docrecon/internal/entity"
)

// Normalize applies the class schema: every mandatory field is present
// (sentinel-filled when missing or blank), optional fields are copied only
// when non-empty, and line items are coerced to the four canonical keys with
// numeric quantity, unit price and amount.
func Normalize(class constants.DocumentClass, fields map[string]any, verdict entity.ExtractionVerdict) *entity.StructuredRecord {
	rec := &entity.StructuredRecord{
		Class:           class,
		MandatoryFields: make(map[string]any),
		OptionalFields:  make(map[string]any),
		LineItems:       []entity.LineItem{},
		Verdict:         verdict,
	}

	for _, key := range constants.MandatoryFields(class) {
		if key == constants.FieldLineItems {
			continue
		}
		rec.MandatoryFields[key] = stringOrSentinel(fields[key])
	}

	for _, key := range constants.OptionalFields(class) {
		if s := cleanString(fields[key]); s != "" {
			rec.OptionalFields[key] = s
		}
	}

	rec.LineItems = coerceLineItems(fields[constants.FieldLineItems])
	return rec
}

func cleanString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == constants.Sentinel {
		return ""
	}
	return s
}

func stringOrSentinel(v any) string {
	if s := cleanString(v); s != "" {
		return s
	}
	return constants.Sentinel
}

func coerceLineItems(v any) []entity.LineItem {
	raw, ok := v.([]any)
	if !ok {
		return []entity.LineItem{}
	}
	items := make([]entity.LineItem, 0, len(raw))
	for _, el := range raw {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		desc := strings.TrimSpace(asString(m["description"]))
		if desc == "" {
			continue
		}
		items = append(items, entity.LineItem{
			Description: desc,
			Quantity:    entity.ParseQuantity(m["quantity"]),
			UnitPrice:   entity.ParseMoney(m["unit_price"]),
			Amount:      entity.ParseMoney(m["amount"]),
		})
	}
	return items
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
