package recon

import (
	"context"
	"strings"
	"testing"
)

func invoiceFixture() map[string]any {
	return map[string]any{
		"invoice_number":   "INV-100",
		"supplier_name":    "Acme Corp",
		"total_amount":     "$100.00",
		"billing_address":  "1 Main St",
		"shipping_address": "2 Dock Rd",
		"line_items": []map[string]any{
			{"description": "Widget", "quantity": "2", "unit_price": "$10.00", "amount": "$20.00"},
		},
	}
}

func poFixture() map[string]any {
	return map[string]any{
		"po_number":        "PO-7",
		"total":            "$100.00",
		"billing_address":  "1 Main St",
		"shipping_address": "2 Dock Rd",
		"line_items": []map[string]any{
			{"description": "WIDGET", "quantity": "3", "unit_price": "$10.00", "amount": "$30.00"},
		},
	}
}

func TestTotalMismatchReportedOnce(t *testing.T) {
	inv := invoiceFixture()
	po := poFixture()
	po["total"] = "$150.00"

	acct := BuildAccount(inv, po)

	var totalEntries []string
	for _, d := range acct.Discrepancies {
		if strings.HasPrefix(d, "Total Discrepancy:") {
			totalEntries = append(totalEntries, d)
		}
	}
	if len(totalEntries) != 1 {
		t.Fatalf("want exactly one total entry, got %v", acct.Discrepancies)
	}
	if !strings.Contains(totalEntries[0], "$100.00") || !strings.Contains(totalEntries[0], "$150.00") {
		t.Errorf("total entry missing both values: %q", totalEntries[0])
	}
}

func TestEqualTotalsNoEntry(t *testing.T) {
	acct := BuildAccount(invoiceFixture(), poFixture())
	for _, d := range acct.Discrepancies {
		if strings.HasPrefix(d, "Total Discrepancy:") {
			t.Errorf("equal totals produced entry %q", d)
		}
	}
}

func TestLineItemJoinCaseInsensitive(t *testing.T) {
	acct := BuildAccount(invoiceFixture(), poFixture())

	if len(acct.Items) != 1 {
		t.Fatalf("want one joined item, got %d", len(acct.Items))
	}
	it := acct.Items[0]
	if it.Key != "WIDGET" {
		t.Errorf("join key = %q", it.Key)
	}
	if it.MissingInInvoice || it.MissingInPO {
		t.Error("joined item flagged one-sided")
	}
	qty := it.Properties[0]
	if qty.Label != "Quantity" || qty.Match {
		t.Errorf("quantity 2 vs 3 should mismatch: %+v", qty)
	}
	if qty.Invoice != "2" || qty.PO != "3" {
		t.Errorf("quantity values = %q vs %q", qty.Invoice, qty.PO)
	}
	price := it.Properties[1]
	if !price.Match {
		t.Errorf("equal unit prices should match: %+v", price)
	}
}

func TestOneSidedItem(t *testing.T) {
	inv := invoiceFixture()
	inv["line_items"] = append(inv["line_items"].([]map[string]any),
		map[string]any{"description": "Extra Part", "quantity": "1"})

	acct := BuildAccount(inv, poFixture())

	var extra *ItemComparison
	for i := range acct.Items {
		if acct.Items[i].Key == "EXTRA PART" {
			extra = &acct.Items[i]
		}
	}
	if extra == nil {
		t.Fatalf("EXTRA PART not in account: %+v", acct.Items)
	}
	if !extra.MissingInPO || extra.MissingInInvoice {
		t.Errorf("one-sided flags wrong: %+v", extra)
	}
	for _, p := range extra.Properties {
		if p.PO != "N/A" {
			t.Errorf("missing side should read N/A: %+v", p)
		}
	}
}

func TestItemsSortedByKey(t *testing.T) {
	inv := invoiceFixture()
	inv["line_items"] = []map[string]any{
		{"description": "zeta", "quantity": "1"},
		{"description": "alpha", "quantity": "1"},
		{"description": "Mid", "quantity": "1"},
	}
	po := poFixture()
	po["line_items"] = []map[string]any{}

	acct := BuildAccount(inv, po)
	keys := make([]string, len(acct.Items))
	for i, it := range acct.Items {
		keys[i] = it.Key
	}
	want := []string{"ALPHA", "MID", "ZETA"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestAddressComparison(t *testing.T) {
	inv := invoiceFixture()
	inv["billing_address"] = "1 MAIN ST" // case differs only
	po := poFixture()
	po["shipping_address"] = "9 Other Way"

	acct := BuildAccount(inv, po)

	for _, d := range acct.Discrepancies {
		if strings.HasPrefix(d, "Billing Address Discrepancy:") {
			t.Errorf("case-only billing difference flagged: %q", d)
		}
	}
	found := false
	for _, d := range acct.Discrepancies {
		if strings.HasPrefix(d, "Shipping Address Discrepancy:") {
			found = true
		}
	}
	if !found {
		t.Error("shipping address difference not flagged")
	}
}

func TestAccountText(t *testing.T) {
	acct := BuildAccount(invoiceFixture(), poFixture())
	text := acct.Text()

	sections := []string{
		"=== Overall Extracted Details ===",
		"=== Raw Discrepancy Analysis ===",
		"=== Detailed Line Item Comparison ===",
	}
	last := -1
	for _, sec := range sections {
		idx := strings.Index(text, sec)
		if idx == -1 {
			t.Fatalf("section %q missing:\n%s", sec, text)
		}
		if idx < last {
			t.Fatalf("section %q out of order", sec)
		}
		last = idx
	}
	if !strings.Contains(text, "Invoice ID: INV-100") {
		t.Errorf("summary missing invoice id:\n%s", text)
	}
	if !strings.Contains(text, "Invoice Amount: $100.00") {
		t.Errorf("summary missing parsed amount:\n%s", text)
	}
	if !strings.Contains(text, "Quantity: Invoice = 2 | PO = 3 => Mismatch") {
		t.Errorf("item comparison line missing:\n%s", text)
	}
}

func TestHasDiscrepancies(t *testing.T) {
	acct := BuildAccount(invoiceFixture(), poFixture())
	if !acct.HasDiscrepancies() {
		t.Error("quantity mismatch should flag discrepancies")
	}

	inv := invoiceFixture()
	po := poFixture()
	po["line_items"] = []map[string]any{
		{"description": "Widget", "quantity": "2", "unit_price": "$10.00", "amount": "$20.00"},
	}
	clean := BuildAccount(inv, po)
	if clean.HasDiscrepancies() {
		t.Errorf("identical records should be clean: %+v", clean.Discrepancies)
	}
	if !clean.Compared {
		t.Error("Compared flag should be set")
	}
}

type fakeCompleter struct {
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return "<h2>Validation Status</h2>", nil
}

func TestHTMLRendererPrompt(t *testing.T) {
	acct := BuildAccount(invoiceFixture(), poFixture())
	fc := &fakeCompleter{}
	out, err := NewHTMLRenderer(fc, nil).Render(context.Background(), acct)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "<h2>Validation Status</h2>" {
		t.Errorf("renderer output = %q", out)
	}
	if !strings.Contains(fc.prompt, "Overall Extracted Details") {
		t.Error("prompt missing raw analysis")
	}
	if !strings.Contains(fc.prompt, "<br>") {
		t.Error("analysis newlines should be rewritten for HTML")
	}
}
