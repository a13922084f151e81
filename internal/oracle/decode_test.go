package oracle

import (
	"errors"
	"strings"
	"testing"

	"docrecon/internal/common"
)

func TestLocateJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around payload", "Sure! Here you go:\n{\"a\":1}\nLet me know.", `{"a":1}`},
		{"nested braces", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`},
		{"no braces returns input", "no json here", "no json here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocateJSON(tt.in); got != tt.want {
				t.Errorf("LocateJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeEnvelope(t *testing.T) {
	raw := []byte("Here is the result:\n" + `{
		"validation": {"valid_format": true, "missing_fields": ["due_date"], "anomalies": []},
		"extracted_fields": {"invoice_number": "INV-1", "total_amount": "$10.00"}
	}`)
	resp, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !resp.Verdict.ValidFormat {
		t.Error("valid_format not decoded")
	}
	if len(resp.Verdict.MissingFields) != 1 || resp.Verdict.MissingFields[0] != "due_date" {
		t.Errorf("missing_fields = %v", resp.Verdict.MissingFields)
	}
	if resp.Fields["invoice_number"] != "INV-1" {
		t.Errorf("fields = %v", resp.Fields)
	}
}

func TestDecodeEnvelopeParseFailure(t *testing.T) {
	for _, raw := range []string{
		"not json at all",
		`{"validation": "wrong shape", "extracted_fields": {}}`,
		`{"unexpected": true}`,
	} {
		_, err := DecodeEnvelope([]byte(raw))
		if !errors.Is(err, common.ErrOracleParse) {
			t.Errorf("DecodeEnvelope(%q): want ErrOracleParse, got %v", raw, err)
		}
	}
}

func TestDecodeEnvelopeNormalizesNils(t *testing.T) {
	raw := []byte(`{"validation": {"valid_format": false}, "extracted_fields": {}}`)
	resp, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if resp.Verdict.MissingFields == nil || resp.Verdict.Anomalies == nil || resp.Fields == nil {
		t.Errorf("nil slices/maps not normalized: %+v", resp)
	}
}

func TestBuildPromptOrdersExamplesFirst(t *testing.T) {
	p := BuildPrompt(Request{
		Class:        "INVOICE",
		DocumentText: "NEW DOC TEXT",
		Examples:     []string{"EXAMPLE ONE", "EXAMPLE TWO"},
	})
	iOne, iTwo, iNew := strings.Index(p, "EXAMPLE ONE"), strings.Index(p, "EXAMPLE TWO"), strings.Index(p, "NEW DOC TEXT")
	if iOne == -1 || iTwo == -1 || iNew == -1 {
		t.Fatal("prompt missing sections")
	}
	if !(iOne < iTwo && iTwo < iNew) {
		t.Errorf("prompt section order wrong: %d %d %d", iOne, iTwo, iNew)
	}
}
