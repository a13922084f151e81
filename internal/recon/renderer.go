package recon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NarrativeRenderer turns a raw discrepancy account into human-readable prose.
// The engine never depends on a live model; tests inject a fake.
type NarrativeRenderer interface {
	Render(ctx context.Context, account *Account) (string, error)
}

// Completer is the minimal text-completion surface the HTML renderer needs.
// Satisfied by the OpenAI oracle client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HTMLRenderer renders the account into a restricted-HTML report via a
// completion model.
type HTMLRenderer struct {
	completer Completer
	logger    *slog.Logger
}

func NewHTMLRenderer(completer Completer, logger *slog.Logger) *HTMLRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLRenderer{completer: completer, logger: logger}
}

func (r *HTMLRenderer) Render(ctx context.Context, account *Account) (string, error) {
	prompt := buildRenderPrompt(account.Text())
	r.logger.Info("recon.render.start", "discrepancies", len(account.Discrepancies), "items", len(account.Items))
	out, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.Error("recon.render.error", "error", err)
		return "", fmt.Errorf("render discrepancy report: %w", err)
	}
	return out, nil
}

// buildRenderPrompt restricts the model to a small tag set so the report can
// be embedded without showing raw <div> markup.
func buildRenderPrompt(rawAnalysis string) string {
	return "You are an expert in financial discrepancy analysis. Analyze the following raw discrepancy analysis " +
		"between an Invoice and a Purchase Order. Generate a final discrepancy report in HTML format that " +
		"when rendered, does not show raw HTML tags like <div>. Instead, use only these tags:\n\n" +
		"- <h2>, <h3>, <p>, <ul>, <li>, <table>, <thead>, <tbody>, <tr>, <th>, <td>\n\n" +
		"Your final report must include:\n\n" +
		"1. <h2>Validation Status</h2>: A concise statement indicating documents are flagged for review.\n" +
		"2. <h2>Invoice Details</h2>: A bullet list (<ul>) summarizing key invoice details (Invoice ID, Supplier, PO Number, etc.).\n" +
		"3. <h2>Discrepancy Found</h2>: A bullet list of identified discrepancies.\n" +
		"4. <h2>Next Steps</h2>: Actionable recommendations.\n" +
		"5. <h2>Detailed Breakdown</h2>: For each line item, create an HTML table (<table>) with columns for Description, Invoice value, PO value, and match status.\n\n" +
		"Important: If one document has an address while the other does not, do not automatically treat it as a severe discrepancy unless it's truly required. " +
		"Use your best judgment. The final HTML must not contain <div> or extraneous tags.\n\n" +
		"Below is the raw discrepancy analysis:\n" +
		"----------------------------------------\n" +
		strings.ReplaceAll(rawAnalysis, "\n", "<br>") + "\n" +
		"----------------------------------------\n\n" +
		"Final Report (HTML) using only <h2>, <h3>, <p>, <ul>, <li>, <table>, <thead>, <tbody>, <tr>, <th>, <td>:"
}
