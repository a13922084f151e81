package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docrecon/constants"
	"docrecon/internal/common"
	"docrecon/internal/entity"
	"docrecon/internal/extract"
	"docrecon/internal/recon"
)

// handleValidate accepts a multipart upload ("file") plus a "class" form
// value and runs the full validation pipeline.
func (s *Server) handleValidate(c *gin.Context) {
	class, ok := constants.ParseClass(c.PostForm("class"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class must be INVOICE or PURCHASE_ORDER"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open upload: " + err.Error()})
		return
	}
	defer func() {
		_ = f.Close()
	}()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}

	format := extract.FormatForPath(fh.Filename)
	rec, err := s.engine.Validate(c.Request.Context(), data, format, class)
	if err != nil {
		if errors.Is(err, common.ErrUnsupportedFormat) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("server.validate.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type reconcileRequest struct {
	InvoiceNumber string `json:"invoice_number" binding:"required"`
	PONumber      string `json:"po_number"`
	Render        bool   `json:"render"`
}

// handleReconcile joins a stored invoice with its purchase order and returns
// the raw discrepancy account, optionally with the rendered narrative.
func (s *Server) handleReconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	invoice, err := s.store.GetByBusinessNumberExact(ctx, constants.Invoice, req.InvoiceNumber)
	if err != nil {
		s.logger.Error("server.reconcile.invoice_lookup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invoice lookup failed"})
		return
	}
	if invoice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found: " + req.InvoiceNumber})
		return
	}

	poNumber := req.PONumber
	if poNumber == "" {
		// fall back to the invoice's own soft PO reference
		if ref, ok := invoice.Fields["po_number"].(string); ok && ref != constants.Sentinel {
			poNumber = ref
		}
	}
	if poNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no purchase order reference to reconcile against"})
		return
	}
	po, err := s.store.GetByBusinessNumberExact(ctx, constants.PurchaseOrder, poNumber)
	if err != nil {
		s.logger.Error("server.reconcile.po_lookup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase order lookup failed"})
		return
	}
	if po == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase order not found: " + poNumber})
		return
	}

	account := recon.BuildAccount(withLineItems(invoice.Fields, invoice), withLineItems(po.Fields, po))
	resp := gin.H{
		"account":           account,
		"raw_analysis":      account.Text(),
		"has_discrepancies": account.HasDiscrepancies(),
	}
	if req.Render && s.renderer != nil {
		narrative, err := s.renderer.Render(ctx, account)
		if err != nil {
			s.logger.Error("server.reconcile.render_failed", "error", err)
			resp["render_error"] = err.Error()
		} else {
			resp["report"] = narrative
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	s.handleGetDocument(c, constants.Invoice)
}

func (s *Server) handleGetPurchaseOrder(c *gin.Context) {
	s.handleGetDocument(c, constants.PurchaseOrder)
}

func (s *Server) handleGetDocument(c *gin.Context, class constants.DocumentClass) {
	doc, err := s.store.GetByBusinessNumber(c.Request.Context(), class, c.Param("number"))
	if err != nil {
		s.logger.Error("server.document.lookup", "class", string(class), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleExport(c *gin.Context) {
	class, ok := constants.ParseClass(c.Param("class"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class must be INVOICE or PURCHASE_ORDER"})
		return
	}
	data, err := s.exporter.ExportXLSX(c.Request.Context(), class)
	if err != nil {
		s.logger.Error("server.export.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	name := "invoices.xlsx"
	if class == constants.PurchaseOrder {
		name = "purchase_orders.xlsx"
	}
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleClear(c *gin.Context) {
	class, ok := constants.ParseClass(c.Param("class"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class must be INVOICE or PURCHASE_ORDER"})
		return
	}
	if err := s.store.Clear(c.Request.Context(), class); err != nil {
		s.logger.Error("server.clear.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "class": string(class)})
}

// withLineItems ensures the field map carries the typed line-item rows; the
// serialized audit copy is not authoritative for items.
func withLineItems(fields map[string]any, doc *entity.StoredDocument) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if len(doc.LineItems) > 0 {
		items := make([]map[string]any, len(doc.LineItems))
		for i, it := range doc.LineItems {
			items[i] = map[string]any{
				"description": it.Description,
				"quantity":    it.Quantity,
				"unit_price":  it.UnitPrice,
				"amount":      it.Amount,
			}
		}
		out[constants.FieldLineItems] = items
	}
	return out
}
