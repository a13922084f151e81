package constants

// Field names shared by both document classes.
const (
	FieldLineItems       = "line_items"
	FieldSupplierName    = "supplier_name"
	FieldBillingAddress  = "billing_address"
	FieldShippingAddress = "shipping_address"
)

// Sentinel is the value a mandatory field receives when extraction found nothing.
// Optional fields are omitted instead; they never carry the sentinel.
const Sentinel = "N/A"

// LineItemKeys is the exact key set a line item object must normalize to.
var LineItemKeys = []string{"description", "quantity", "unit_price", "amount"}

// InvoiceMandatoryFields must be present in every normalized invoice record,
// sentinel-filled when absent.
var InvoiceMandatoryFields = []string{
	"invoice_number",
	"invoice_date",
	"total_amount",
	FieldLineItems,
}

// InvoiceOptionalFields are copied only when the oracle supplied them.
var InvoiceOptionalFields = []string{
	"due_date",
	"invoice_to",
	FieldSupplierName,
	FieldBillingAddress,
	FieldShippingAddress,
	"discount",
	"tax_vat",
	"email",
	"phone_number",
	"po_number",
}

// POMandatoryFields covers the full purchase-order schema; the PO class has no
// optional fields, every absent one is sentinel-filled.
var POMandatoryFields = []string{
	"po_number",
	"po_date",
	FieldSupplierName,
	FieldBillingAddress,
	FieldShippingAddress,
	FieldLineItems,
	"subtotal",
	"tax",
	"total",
}

// MandatoryFields returns the mandatory field names for a class.
func MandatoryFields(class DocumentClass) []string {
	if class == PurchaseOrder {
		return POMandatoryFields
	}
	return InvoiceMandatoryFields
}

// OptionalFields returns the optional field names for a class.
func OptionalFields(class DocumentClass) []string {
	if class == PurchaseOrder {
		return nil
	}
	return InvoiceOptionalFields
}

// BusinessNumberField names the unique business identifier column per class.
func BusinessNumberField(class DocumentClass) string {
	if class == PurchaseOrder {
		return "po_number"
	}
	return "invoice_number"
}

// TotalField names the total-amount field per class.
func TotalField(class DocumentClass) string {
	if class == PurchaseOrder {
		return "total"
	}
	return "total_amount"
}
