package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docrecon/constants"
	"docrecon/internal/oracle"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestExtract(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(chatResponse(`{
			"validation": {"valid_format": true, "missing_fields": [], "anomalies": []},
			"extracted_fields": {"invoice_number": "INV-1"}
		}`)))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini"}, nil)
	resp, raw, err := c.Extract(context.Background(), oracle.Request{
		Class:        constants.Invoice,
		DocumentText: "Invoice INV-1 total $10.00",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !resp.Verdict.ValidFormat || resp.Fields["invoice_number"] != "INV-1" {
		t.Errorf("resp = %+v", resp)
	}
	if len(raw) == 0 {
		t.Error("raw payload not returned")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if rf, ok := gotBody["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
		t.Errorf("response_format = %v", gotBody["response_format"])
	}
}

func TestExtractDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatResponse("sorry, I cannot help with that")))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, raw, err := c.Extract(context.Background(), oracle.Request{Class: constants.Invoice})
	if err == nil {
		t.Fatal("want decode error")
	}
	if !strings.Contains(string(raw), "sorry") {
		t.Errorf("raw should carry the model output for audit: %q", raw)
	}
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, _, err := c.Extract(context.Background(), oracle.Request{Class: constants.Invoice})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("want status error, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatResponse("  <h2>Report</h2>  ")))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	out, err := c.Complete(context.Background(), "render this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "<h2>Report</h2>" {
		t.Errorf("out = %q", out)
	}
}
