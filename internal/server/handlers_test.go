package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"docrecon/constants"
	"docrecon/internal/engine"
	"docrecon/internal/entity"
	"docrecon/internal/export"
	"docrecon/internal/extract"
	"docrecon/internal/oracle"
	"docrecon/internal/recon"
	"docrecon/internal/repository"
	"docrecon/internal/simindex"
)

type fakeOracle struct{ resp oracle.Response }

func (f *fakeOracle) Extract(_ context.Context, _ oracle.Request) (oracle.Response, []byte, error) {
	return f.resp, []byte("{}"), nil
}

type nullIndex struct{}

func (nullIndex) Search(_ context.Context, _ string, _ int) ([]string, error) { return nil, nil }
func (nullIndex) SearchWithScore(_ context.Context, _ string, _ int) ([]simindex.Match, error) {
	return nil, nil
}
func (nullIndex) AddTexts(_ context.Context, _ []string) error { return nil }
func (nullIndex) Persist(_ context.Context) error              { return nil }

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, _ *recon.Account) (string, error) {
	return "<h2>Validation Status</h2>", nil
}

func newTestServer(t *testing.T, orc oracle.StructuredExtractor) (*Server, *repository.Store) {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{
		Path: filepath.Join(t.TempDir(), "server.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	extractor := extract.NewService(extract.Config{}, nil)
	eng := engine.New(engine.Config{}, extractor, orc, store, nullIndex{}, nullIndex{}, nil)
	srv := New(Config{Addr: ":0"}, eng, store, export.NewService(store, nil), fakeRenderer{}, nil)
	return srv, store
}

func seedPair(t *testing.T, store *repository.Store) {
	t.Helper()
	ctx := context.Background()
	po := &entity.StructuredRecord{
		Class: constants.PurchaseOrder,
		MandatoryFields: map[string]any{
			"po_number": "PO-7",
			"total":     "$150.00",
		},
		OptionalFields: map[string]any{},
		LineItems: []entity.LineItem{
			{Description: "Widget", Quantity: 3, UnitPrice: 50, Amount: 150},
		},
		Verdict: entity.ExtractionVerdict{ValidFormat: true},
	}
	if _, _, err := store.Insert(ctx, po, "hash-po"); err != nil {
		t.Fatal(err)
	}
	inv := &entity.StructuredRecord{
		Class: constants.Invoice,
		MandatoryFields: map[string]any{
			"invoice_number": "INV-9",
			"total_amount":   "$100.00",
		},
		OptionalFields: map[string]any{"po_number": "PO-7"},
		LineItems: []entity.LineItem{
			{Description: "Widget", Quantity: 2, UnitPrice: 50, Amount: 100},
		},
		Verdict: entity.ExtractionVerdict{ValidFormat: true},
	}
	if _, _, err := store.Insert(ctx, inv, "hash-inv"); err != nil {
		t.Fatal(err)
	}
}

func TestHandleValidate(t *testing.T) {
	resp := oracle.Response{Fields: map[string]any{
		"invoice_number": "INV-1",
		"total_amount":   "$10.00",
	}}
	resp.Verdict.ValidFormat = true
	srv, _ := newTestServer(t, &fakeOracle{resp: resp})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "doc.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("kind,number\ninvoice,INV-1\n")); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("class", "invoice"); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/validate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var rec entity.StructuredRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !rec.Verdict.ValidFormat || rec.MandatoryFields["invoice_number"] != "INV-1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestHandleValidateBadClass(t *testing.T) {
	srv, _ := newTestServer(t, &fakeOracle{})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("class", "receipt")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/validate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHandleReconcile(t *testing.T) {
	srv, store := newTestServer(t, &fakeOracle{})
	seedPair(t, store)

	body := `{"invoice_number": "INV-9", "render": true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		RawAnalysis      string `json:"raw_analysis"`
		HasDiscrepancies bool   `json:"has_discrepancies"`
		Report           string `json:"report"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.HasDiscrepancies {
		t.Error("total and quantity differ, discrepancies expected")
	}
	if !strings.Contains(resp.RawAnalysis, "Total Discrepancy: Invoice total $100.00 vs PO total $150.00") {
		t.Errorf("raw analysis:\n%s", resp.RawAnalysis)
	}
	if resp.Report != "<h2>Validation Status</h2>" {
		t.Errorf("report = %q", resp.Report)
	}
}

func TestHandleReconcileMissingPO(t *testing.T) {
	srv, store := newTestServer(t, &fakeOracle{})
	seedPair(t, store)

	body := `{"invoice_number": "INV-9", "po_number": "PO-404"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv, store := newTestServer(t, &fakeOracle{})
	seedPair(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/INV-9", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var doc entity.StoredDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.BusinessNumber != "INV-9" || len(doc.LineItems) != 1 {
		t.Errorf("doc = %+v", doc)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders/PO-404", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHandleExportAndClear(t *testing.T) {
	srv, store := newTestServer(t, &fakeOracle{})
	seedPair(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/invoice", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "invoices.xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Error("empty workbook body")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/clear/invoice", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	doc, err := store.GetByBusinessNumber(context.Background(), constants.Invoice, "INV-9")
	if err != nil || doc != nil {
		t.Errorf("invoice survived clear: %+v, %v", doc, err)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeOracle{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
