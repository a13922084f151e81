package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"docrecon/constants"
	"docrecon/internal/entity"
	"docrecon/internal/repository"
)

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{
		Path: filepath.Join(t.TempDir(), "export.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	rec := &entity.StructuredRecord{
		Class: constants.Invoice,
		MandatoryFields: map[string]any{
			"invoice_number": "INV-1",
			"invoice_date":   "11/02/2019",
			"total_amount":   "$100.00",
		},
		OptionalFields: map[string]any{"supplier_name": "Acme Corp"},
		LineItems: []entity.LineItem{
			{Description: "Widget", Quantity: 2, UnitPrice: 10, Amount: 20},
		},
		Verdict: entity.ExtractionVerdict{ValidFormat: true},
	}
	if _, _, err := store.Insert(ctx, rec, "hash-1"); err != nil {
		t.Fatal(err)
	}

	data, err := NewService(store, nil).ExportXLSX(ctx, constants.Invoice)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Documents" || sheets[1] != "Line Items" {
		t.Errorf("sheets = %v, want exactly Documents and Line Items", sheets)
	}

	num, err := f.GetCellValue("Documents", "C2")
	if err != nil {
		t.Fatal(err)
	}
	if num != "INV-1" {
		t.Errorf("business number cell = %q", num)
	}
	desc, err := f.GetCellValue("Line Items", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if desc != "Widget" {
		t.Errorf("line item cell = %q", desc)
	}
}

func TestExportXLSXEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{
		Path: filepath.Join(t.TempDir(), "empty.db"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	data, err := NewService(store, nil).ExportXLSX(ctx, constants.PurchaseOrder)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	head, err := f.GetCellValue("Documents", "A1")
	if err != nil {
		t.Fatal(err)
	}
	if head != "ID" {
		t.Errorf("header row missing: %q", head)
	}
}
