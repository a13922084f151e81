package constants

import "strings"

// InvoiceKeywords is the vocabulary gate for invoice text: a document containing
// none of these is not sent to the extraction oracle.
var InvoiceKeywords = []string{
	"invoice", "bill", "supplier", "due", "tax", "vat", "subtotal", "total",
	"line item", "payment", "amount", "qty", "balance", "remit",
}

// POKeywords is the vocabulary gate for purchase-order text.
var POKeywords = []string{
	"purchase order", "po number", "vendor", "shipping address", "billing address",
	"order summary", "subtotal", "tax", "total",
}

// Keywords returns the vocabulary gate for a class.
func Keywords(class DocumentClass) []string {
	if class == PurchaseOrder {
		return POKeywords
	}
	return InvoiceKeywords
}

// MatchesKeywords reports whether text contains at least one class keyword.
// The check is case-insensitive over the whole text.
func MatchesKeywords(class DocumentClass, text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range Keywords(class) {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
