package constants

// DocumentClass selects which field schema and storage tables apply.
type DocumentClass string

const (
	Invoice       DocumentClass = "INVOICE"
	PurchaseOrder DocumentClass = "PURCHASE_ORDER"
)

// Valid reports whether c is one of the known document classes.
func (c DocumentClass) Valid() bool {
	return c == Invoice || c == PurchaseOrder
}

// ParseClass maps a user-supplied label to a DocumentClass.
func ParseClass(s string) (DocumentClass, bool) {
	switch s {
	case "invoice", "INVOICE", "Invoice":
		return Invoice, true
	case "purchase_order", "PURCHASE_ORDER", "PurchaseOrder", "po", "PO":
		return PurchaseOrder, true
	}
	return "", false
}
