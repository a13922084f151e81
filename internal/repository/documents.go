package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"docrecon/constants"
	"docrecon/internal/entity"
)

var invoiceColumns = []string{
	"invoice_number", "invoice_date", "total_amount", "due_date", "invoice_to",
	"supplier_name", "billing_address", "shipping_address", "discount",
	"tax_vat", "email", "phone_number", "po_number",
}

var poColumns = []string{
	"po_number", "po_date", "supplier_name", "billing_address",
	"shipping_address", "subtotal", "tax", "total",
}

func headerTable(class constants.DocumentClass) string {
	if class == constants.PurchaseOrder {
		return "purchase_orders"
	}
	return "invoices"
}

func itemsTable(class constants.DocumentClass) (table, fkColumn string) {
	if class == constants.PurchaseOrder {
		return "purchase_order_line_items", "purchase_order_id"
	}
	return "invoice_line_items", "invoice_id"
}

func fieldColumns(class constants.DocumentClass) []string {
	if class == constants.PurchaseOrder {
		return poColumns
	}
	return invoiceColumns
}

// HasHash reports whether a document with the given content hash is already
// stored in the class's table. Exact-duplicate signal for the dedup gate.
func (s *Store) HasHash(ctx context.Context, class constants.DocumentClass, hashHex string) (bool, error) {
	var id int64
	q := fmt.Sprintf("SELECT id FROM %s WHERE file_hash = ?", headerTable(class))
	err := s.db.QueryRowContext(ctx, q, hashHex).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert persists a structured record: header row plus line items in one
// transaction. A uniqueness conflict on the content hash or business number
// is a silent skip, not an error; the caller already holds the record.
// Returns (id, skipped, err).
func (s *Store) Insert(ctx context.Context, rec *entity.StructuredRecord, hashHex string) (int64, bool, error) {
	fields := rec.Fields()
	cols := fieldColumns(rec.Class)

	rawJSON, err := json.Marshal(fields)
	if err != nil {
		return 0, false, fmt.Errorf("serialize fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	colNames := "file_hash"
	placeholders := "?"
	args := []any{hashHex}
	for _, col := range cols {
		colNames += ", " + col
		placeholders += ", ?"
		args = append(args, columnValue(fields, col))
	}
	colNames += ", extracted_fields"
	placeholders += ", ?"
	args = append(args, string(rawJSON))

	// INSERT OR IGNORE gives first-writer-wins under the unique constraints,
	// including when two ingestions of the same file race.
	q := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", headerTable(rec.Class), colNames, placeholders)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		s.logger.Info("store.insert.skipped",
			"table", headerTable(rec.Class), "hash", hashHex,
			"business_number", rec.BusinessNumber())
		return 0, true, tx.Commit()
	}

	headerID, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}

	// item table columns mirror the canonical line-item key set
	itemsTbl, fk := itemsTable(rec.Class)
	itemQ := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES (?, ?, ?, ?, ?)",
		itemsTbl, fk, strings.Join(constants.LineItemKeys, ", "))
	for _, it := range rec.LineItems {
		if _, err := tx.ExecContext(ctx, itemQ, headerID, it.Description, it.Quantity, it.UnitPrice, it.Amount); err != nil {
			return 0, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	s.logger.Info("store.insert.ok",
		"table", headerTable(rec.Class), "id", headerID,
		"line_items", len(rec.LineItems))
	return headerID, false, nil
}

// columnValue stringifies a field for its typed column. Absent or sentinel
// business numbers and PO references become NULL so uniqueness binds only
// non-empty values and the soft reference stays resolvable-or-absent.
func columnValue(fields map[string]any, col string) any {
	var s string
	if v, ok := fields[col]; ok && v != nil {
		if str, isStr := v.(string); isStr {
			s = str
		} else {
			s = fmt.Sprintf("%v", v)
		}
	}
	if col == "invoice_number" || col == "po_number" {
		if s == "" || s == constants.Sentinel {
			return nil
		}
	}
	return s
}

// GetByBusinessNumber returns the first stored document whose business number
// contains the given text (case-insensitive partial match), or nil.
func (s *Store) GetByBusinessNumber(ctx context.Context, class constants.DocumentClass, number string) (*entity.StoredDocument, error) {
	q := fmt.Sprintf("SELECT id, file_hash, %s, extracted_fields FROM %s WHERE %s LIKE ? LIMIT 1",
		constants.BusinessNumberField(class), headerTable(class), constants.BusinessNumberField(class))
	return s.scanDocument(ctx, class, q, "%"+number+"%")
}

// GetByBusinessNumberExact returns the stored document whose business number
// equals the given value, or nil. Reconciliation resolves through this so a
// partial number can never bind a different document.
func (s *Store) GetByBusinessNumberExact(ctx context.Context, class constants.DocumentClass, number string) (*entity.StoredDocument, error) {
	q := fmt.Sprintf("SELECT id, file_hash, %s, extracted_fields FROM %s WHERE %s = ? LIMIT 1",
		constants.BusinessNumberField(class), headerTable(class), constants.BusinessNumberField(class))
	return s.scanDocument(ctx, class, q, number)
}

// GetInvoiceByPONumber returns the first invoice referencing the given PO
// number exactly, or nil. The reference is soft; no row may match.
func (s *Store) GetInvoiceByPONumber(ctx context.Context, poNumber string) (*entity.StoredDocument, error) {
	q := "SELECT id, file_hash, invoice_number, extracted_fields FROM invoices WHERE po_number = ? LIMIT 1"
	return s.scanDocument(ctx, constants.Invoice, q, poNumber)
}

func (s *Store) scanDocument(ctx context.Context, class constants.DocumentClass, query string, arg any) (*entity.StoredDocument, error) {
	var (
		doc       entity.StoredDocument
		number    sql.NullString
		rawFields string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&doc.ID, &doc.FileContentHash, &number, &rawFields)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc.Class = class
	doc.BusinessNumber = number.String

	if err := json.Unmarshal([]byte(rawFields), &doc.Fields); err != nil {
		// audit copy is best effort on read; the typed columns stay authoritative
		doc.Fields = map[string]any{}
	}

	items, err := s.LineItems(ctx, class, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.LineItems = items
	return &doc, nil
}

// LineItems returns a header's line items in insertion order.
func (s *Store) LineItems(ctx context.Context, class constants.DocumentClass, headerID int64) ([]entity.LineItem, error) {
	tbl, fk := itemsTable(class)
	q := fmt.Sprintf("SELECT description, quantity, unit_price, amount FROM %s WHERE %s = ? ORDER BY id", tbl, fk)
	rows, err := s.db.QueryContext(ctx, q, headerID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("store.line_items.close_error", "error", cerr)
		}
	}()

	var items []entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListAll returns every stored document of a class with its line items,
// ordered by surrogate id. Used by the export service.
func (s *Store) ListAll(ctx context.Context, class constants.DocumentClass) ([]*entity.StoredDocument, error) {
	q := fmt.Sprintf("SELECT id, file_hash, %s, extracted_fields FROM %s ORDER BY id",
		constants.BusinessNumberField(class), headerTable(class))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("store.list_all.close_error", "error", cerr)
		}
	}()

	var docs []*entity.StoredDocument
	for rows.Next() {
		var (
			doc       entity.StoredDocument
			number    sql.NullString
			rawFields string
		)
		if err := rows.Scan(&doc.ID, &doc.FileContentHash, &number, &rawFields); err != nil {
			return nil, err
		}
		doc.Class = class
		doc.BusinessNumber = number.String
		if err := json.Unmarshal([]byte(rawFields), &doc.Fields); err != nil {
			doc.Fields = map[string]any{}
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, doc := range docs {
		items, err := s.LineItems(ctx, class, doc.ID)
		if err != nil {
			return nil, err
		}
		doc.LineItems = items
	}
	return docs, nil
}

// Clear removes all rows of a class's tables atomically: line items first,
// then headers, in one transaction. Used by test/reset flows only.
func (s *Store) Clear(ctx context.Context, class constants.DocumentClass) error {
	itemsTbl, _ := itemsTable(class)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+itemsTbl); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+headerTable(class)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("store.clear.ok", "table", headerTable(class))
	return nil
}
