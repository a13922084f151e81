// Package recon compares an invoice record against a purchase-order record
// and produces a deterministic, structured discrepancy account.
package recon

import (
	"fmt"
	"strings"
)

// PropertyComparison is one field of one joined line item, compared as
// trimmed-string equality on both sides.
type PropertyComparison struct {
	Label   string
	Invoice string
	PO      string
	Match   bool
}

// ItemComparison is one line item joined across documents by its
// upper-cased, trimmed description.
type ItemComparison struct {
	Key              string
	Properties       []PropertyComparison
	MissingInInvoice bool
	MissingInPO      bool
}

// Account is the raw discrepancy account: the deterministic comparison
// result handed to the narrative renderer. An empty Discrepancies list is
// distinguishable from "nothing was compared" via the Compared flag.
type Account struct {
	InvoiceNumber string
	Supplier      string
	PONumber      string
	InvoiceTotal  float64
	POTotal       float64

	InvoiceBilling  string
	POBilling       string
	InvoiceShipping string
	POShipping      string

	Discrepancies []string
	Items         []ItemComparison
	Compared      bool
}

// HasDiscrepancies reports whether any header-level or line-item-level
// mismatch was recorded.
func (a *Account) HasDiscrepancies() bool {
	if len(a.Discrepancies) > 0 {
		return true
	}
	for _, it := range a.Items {
		if it.MissingInInvoice || it.MissingInPO {
			return true
		}
		for _, p := range it.Properties {
			if !p.Match {
				return true
			}
		}
	}
	return false
}

// Text renders the canonical textual account: overall details, then header
// discrepancies, then the per-item breakdown in key order.
func (a *Account) Text() string {
	var lines []string

	lines = append(lines, "=== Overall Extracted Details ===")
	lines = append(lines, "Invoice ID: "+a.InvoiceNumber)
	lines = append(lines, "Supplier: "+a.Supplier)
	lines = append(lines, "PO Number: "+a.PONumber)
	lines = append(lines, fmt.Sprintf("Invoice Amount: $%.2f", a.InvoiceTotal))
	lines = append(lines, fmt.Sprintf("PO Amount: $%.2f", a.POTotal))
	lines = append(lines, fmt.Sprintf("Billing Address: Invoice: %s | PO: %s", a.InvoiceBilling, a.POBilling))
	lines = append(lines, fmt.Sprintf("Shipping Address: Invoice: %s | PO: %s", a.InvoiceShipping, a.POShipping))
	lines = append(lines, "")

	lines = append(lines, "=== Raw Discrepancy Analysis ===")
	lines = append(lines, a.Discrepancies...)

	lines = append(lines, "")
	lines = append(lines, "=== Detailed Line Item Comparison ===")
	for _, it := range a.Items {
		lines = append(lines, "Item: "+it.Key)
		for _, p := range it.Properties {
			status := "Mismatch"
			if p.Match {
				status = "Match"
			}
			lines = append(lines, fmt.Sprintf("  %s: Invoice = %s | PO = %s => %s", p.Label, p.Invoice, p.PO, status))
		}
		if it.MissingInInvoice {
			lines = append(lines, "  --> Missing in Invoice")
		}
		if it.MissingInPO {
			lines = append(lines, "  --> Missing in PO")
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
