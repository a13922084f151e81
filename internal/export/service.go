// Package export produces XLSX workbooks from stored documents.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"docrecon/constants"
	"docrecon/internal/repository"
)

// Service is a tiny façade over the document store that produces XLSX bytes.
type Service struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewService(store *repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportXLSX returns a workbook with one header sheet and one line-item sheet
// for every stored document of the class.
func (s *Service) ExportXLSX(ctx context.Context, class constants.DocumentClass) ([]byte, error) {
	start := time.Now()

	docs, err := s.store.ListAll(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	headerSheet := "Documents"
	itemSheet := "Line Items"
	if index, _ := f.GetSheetIndex(headerSheet); index == -1 {
		if _, err := f.NewSheet(headerSheet); err != nil {
			return nil, err
		}
	}
	if _, err := f.NewSheet(itemSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(headerSheet)
	f.SetActiveSheet(activeIndex)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerCols := append([]string{"ID", "File Hash", "Business Number"}, headerFieldColumns(class)...)
	for i, h := range headerCols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(headerSheet, cell, h)
	}
	itemCols := []string{"Business Number", "Description", "Quantity", "Unit Price", "Amount"}
	for i, h := range itemCols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemSheet, cell, h)
	}

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	headerRow := 2
	itemRow := 2
	for _, doc := range docs {
		write(headerSheet, 1, headerRow, doc.ID)
		write(headerSheet, 2, headerRow, doc.FileContentHash)
		write(headerSheet, 3, headerRow, doc.BusinessNumber)
		for i, field := range headerFieldColumns(class) {
			write(headerSheet, 4+i, headerRow, fmt.Sprintf("%v", doc.Fields[field]))
		}
		headerRow++

		for _, it := range doc.LineItems {
			write(itemSheet, 1, itemRow, doc.BusinessNumber)
			write(itemSheet, 2, itemRow, it.Description)
			write(itemSheet, 3, itemRow, it.Quantity)
			write(itemSheet, 4, itemRow, it.UnitPrice)
			write(itemSheet, 5, itemRow, it.Amount)
			itemRow++
		}
	}

	_ = f.SetColWidth(headerSheet, "B", "B", 40)
	_ = f.SetColWidth(headerSheet, "C", "C", 18)
	_ = f.SetColWidth(itemSheet, "B", "B", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"class", string(class),
		"documents", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// headerFieldColumns lists the exported field columns, business number aside.
func headerFieldColumns(class constants.DocumentClass) []string {
	if class == constants.PurchaseOrder {
		return []string{"po_date", constants.FieldSupplierName, constants.FieldBillingAddress,
			constants.FieldShippingAddress, "subtotal", "tax", "total"}
	}
	return []string{"invoice_date", "total_amount", "due_date", "invoice_to",
		constants.FieldSupplierName, constants.FieldBillingAddress, constants.FieldShippingAddress,
		"discount", "tax_vat", "email", "phone_number", "po_number"}
}
