package recon

import (
	"fmt"
	"sort"
	"strings"

	"docrecon/constants"
	"docrecon/internal/entity"
)

const missingValue = "N/A"

// itemKey joins line items across documents purely by textual description,
// trimmed and upper-cased. Two distinct items sharing a description collapse
// under one key; the later one wins.
func itemKey(item map[string]any) string {
	return strings.ToUpper(strings.TrimSpace(asString(item["description"])))
}

// BuildAccount computes the raw discrepancy account for one invoice/PO pair.
// Both inputs are flattened field maps with line_items under the usual key.
// Totals are compared numerically; addresses case-insensitively; line item
// properties as trimmed-string equality, no numeric tolerance.
func BuildAccount(invoiceFields, poFields map[string]any) *Account {
	acct := &Account{
		InvoiceNumber:   fieldOr(invoiceFields, "invoice_number"),
		Supplier:        fieldOr(invoiceFields, "supplier_name"),
		PONumber:        fieldOr(poFields, "po_number"),
		InvoiceTotal:    entity.ParseMoney(invoiceFields[constants.TotalField(constants.Invoice)]),
		POTotal:         entity.ParseMoney(poFields[constants.TotalField(constants.PurchaseOrder)]),
		InvoiceBilling:  fieldOr(invoiceFields, "billing_address"),
		POBilling:       fieldOr(poFields, "billing_address"),
		InvoiceShipping: fieldOr(invoiceFields, "shipping_address"),
		POShipping:      fieldOr(poFields, "shipping_address"),
		Compared:        true,
	}

	if acct.InvoiceTotal != acct.POTotal {
		acct.Discrepancies = append(acct.Discrepancies,
			fmt.Sprintf("Total Discrepancy: Invoice total $%.2f vs PO total $%.2f", acct.InvoiceTotal, acct.POTotal))
	}
	// An address on one side and "N/A" on the other still counts; the
	// renderer is instructed to judge severity.
	if !strings.EqualFold(acct.InvoiceBilling, acct.POBilling) {
		acct.Discrepancies = append(acct.Discrepancies,
			fmt.Sprintf("Billing Address Discrepancy: Invoice '%s' vs PO '%s'", acct.InvoiceBilling, acct.POBilling))
	}
	if !strings.EqualFold(acct.InvoiceShipping, acct.POShipping) {
		acct.Discrepancies = append(acct.Discrepancies,
			fmt.Sprintf("Shipping Address Discrepancy: Invoice '%s' vs PO '%s'", acct.InvoiceShipping, acct.POShipping))
	}

	invItems := keyItems(invoiceFields["line_items"])
	poItems := keyItems(poFields["line_items"])

	keys := make([]string, 0, len(invItems)+len(poItems))
	seen := make(map[string]bool, len(invItems)+len(poItems))
	for k := range invItems {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range poItems {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	properties := []struct{ key, label string }{
		{"quantity", "Quantity"},
		{"unit_price", "Unit Price"},
		{"amount", "Line Item Amount"},
	}
	for _, key := range keys {
		invItem, hasInv := invItems[key]
		poItem, hasPO := poItems[key]
		cmp := ItemComparison{
			Key:              key,
			MissingInInvoice: !hasInv,
			MissingInPO:      !hasPO,
		}
		for _, prop := range properties {
			pc := PropertyComparison{
				Label:   prop.label,
				Invoice: propValue(invItem, prop.key),
				PO:      propValue(poItem, prop.key),
			}
			pc.Match = strings.TrimSpace(pc.Invoice) == strings.TrimSpace(pc.PO)
			cmp.Properties = append(cmp.Properties, pc)
		}
		acct.Items = append(acct.Items, cmp)
	}

	return acct
}

// keyItems indexes line items by their join key, dropping key-less items.
// Items arrive either as []map[string]any (store reads) or []any (decoded JSON).
func keyItems(v any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	switch items := v.(type) {
	case []map[string]any:
		for _, it := range items {
			if k := itemKey(it); k != "" {
				out[k] = it
			}
		}
	case []any:
		for _, el := range items {
			if it, ok := el.(map[string]any); ok {
				if k := itemKey(it); k != "" {
					out[k] = it
				}
			}
		}
	}
	return out
}

func propValue(item map[string]any, key string) string {
	if item == nil {
		return missingValue
	}
	v, ok := item[key]
	if !ok {
		return missingValue
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// render whole quantities without a decimal tail
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func fieldOr(fields map[string]any, key string) string {
	if s := asString(fields[key]); s != "" {
		return s
	}
	return missingValue
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
