package oracle

import (
	"strings"

	"docrecon/constants"
)

const invoiceBasePrompt = `First, determine if this text is actually an invoice. If not, respond with:

{
  "validation": { "valid_format": false, "missing_fields": [], "anomalies": ["Document not recognized as invoice"] },
  "extracted_fields": {}
}

If it IS an invoice, extract and validate the following fields. For mandatory fields, if not found, set them to 'N/A'. For optional fields, if not found, omit them entirely:

Mandatory fields:
1. invoice_number
2. invoice_date
3. total_amount
4. line_items: an array of objects, each with exactly these keys: {"description", "quantity", "unit_price", "amount"}.

Optional fields:
5. due_date
6. invoice_to (only the person's name)
7. supplier_name
8. billing_address
9. shipping_address
10. discount
11. tax_vat
12. email
13. phone_number
14. po_number

Handle synonyms (e.g., 'bill to' should map to billing_address, 'ship to' to shipping_address, 'vendor address' to supplier_name, etc.).

Return a valid JSON object with exactly two keys:
"validation": { "valid_format": bool, "missing_fields": [], "anomalies": [] },
"extracted_fields": { ...all fields above... }

Your output must be valid JSON only, with no extra text.`

const poBasePrompt = `First, determine if this text is actually a purchase order. If not, respond with:

{
  "validation": { "valid_format": false, "missing_fields": [], "anomalies": ["Document not recognized as purchase order"] },
  "extracted_fields": {}
}

If it IS a purchase order, extract and validate the following fields (handle synonyms). If a field is not found, set it to 'N/A':

Fields:
1. po_number
2. po_date
3. supplier_name
4. billing_address
5. shipping_address
6. line_items: an array of objects, each with exactly these keys: {"description", "quantity", "unit_price", "amount"}.
7. subtotal
8. tax
9. total

Handle synonyms such that, for example, 'vendor' is mapped to supplier_name and any synonyms for addresses are unified accordingly.

Return a valid JSON object with exactly two keys:
"validation": { "valid_format": bool, "missing_fields": [], "anomalies": [] },
"extracted_fields": { ...all fields above... }

Your output must be valid JSON only, with no extra text.`

// BuildPrompt assembles the retrieval-augmented prompt: validated examples of
// the same class first, then the new document, then the class instructions.
func BuildPrompt(req Request) string {
	var kind, base string
	if req.Class == constants.PurchaseOrder {
		kind, base = "PO", poBasePrompt
	} else {
		kind, base = "invoice", invoiceBasePrompt
	}

	var b strings.Builder
	b.WriteString("You have the following validated " + kind + " examples:\n")
	for i, ex := range req.Examples {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(ex))
	}
	b.WriteString("\n\nNow, here is a NEW " + kind + " text:\n")
	b.WriteString(req.DocumentText)
	b.WriteString("\n\n")
	b.WriteString(base)
	return b.String()
}

// ContextChunk formats a validated document for storage in the similarity
// index, so future extractions can retrieve it as an example.
func ContextChunk(class constants.DocumentClass, rawText, fieldsJSON string) string {
	kind := "INVOICE"
	if class == constants.PurchaseOrder {
		kind = "PO"
	}
	var b strings.Builder
	b.WriteString("PAST VALIDATED " + kind + " EXAMPLE:\n\n")
	b.WriteString("Raw " + kind + " Text:\n")
	b.WriteString(rawText)
	b.WriteString("\n\nExtracted Fields:\n")
	b.WriteString(fieldsJSON)
	b.WriteString("\n")
	return b.String()
}
