package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path        string
	DialTimeout time.Duration
}

// Store is the relational document store: two header tables with unique
// content-hash and business-number columns, plus a line-item table per class.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS purchase_orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_hash TEXT UNIQUE,
	po_number TEXT UNIQUE,
	po_date TEXT,
	supplier_name TEXT,
	billing_address TEXT,
	shipping_address TEXT,
	subtotal TEXT,
	tax TEXT,
	total TEXT,
	extracted_fields TEXT
);

CREATE TABLE IF NOT EXISTS purchase_order_line_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	purchase_order_id INTEGER,
	description TEXT,
	quantity REAL,
	unit_price REAL,
	amount REAL,
	FOREIGN KEY(purchase_order_id) REFERENCES purchase_orders(id)
);

CREATE TABLE IF NOT EXISTS invoices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_hash TEXT UNIQUE,
	invoice_number TEXT UNIQUE,
	invoice_date TEXT,
	total_amount TEXT,
	due_date TEXT,
	invoice_to TEXT,
	supplier_name TEXT,
	billing_address TEXT,
	shipping_address TEXT,
	discount TEXT,
	tax_vat TEXT,
	email TEXT,
	phone_number TEXT,
	po_number TEXT, -- soft reference to purchase_orders.po_number, by value only
	extracted_fields TEXT
);

CREATE TABLE IF NOT EXISTS invoice_line_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_id INTEGER,
	description TEXT,
	quantity REAL,
	unit_price REAL,
	amount REAL,
	FOREIGN KEY(invoice_id) REFERENCES invoices(id)
);
`

// Open connects to the SQLite database and ensures the schema exists.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to document store", "path", cfg.Path)

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		return nil, err
	}
	// SQLite serializes writes; a single connection avoids SQLITE_BUSY races.
	db.SetMaxOpenConns(1)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping document store", "error", err)
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		logger.Error("failed to create schema", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("document store ready")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing document store")
	return s.db.Close()
}
