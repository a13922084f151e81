package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"docrecon/internal/common"
	"docrecon/internal/entity"
)

// LocateJSON returns the outermost {...} span of raw, tolerating prose or
// markdown fences around the payload. Returns raw unchanged when no braces
// are found so the decode error names the actual content.
func LocateJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

type envelope struct {
	Validation struct {
		ValidFormat   bool     `json:"valid_format"`
		MissingFields []string `json:"missing_fields"`
		Anomalies     []string `json:"anomalies"`
	} `json:"validation"`
	ExtractedFields map[string]any `json:"extracted_fields"`
}

// DecodeEnvelope locates and decodes the oracle's response envelope. Any
// failure wraps ErrOracleParse; the engine records it as an anomaly with an
// invalid verdict rather than aborting the validation.
func DecodeEnvelope(raw []byte) (Response, error) {
	payload := []byte(LocateJSON(string(raw)))

	if err := ValidateJSONAgainstSchema(BuildEnvelopeSchema(), payload); err != nil {
		return Response{}, fmt.Errorf("%w: %v", common.ErrOracleParse, err)
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Response{}, fmt.Errorf("%w: %v", common.ErrOracleParse, err)
	}

	resp := Response{
		Verdict: entity.ExtractionVerdict{
			ValidFormat:   env.Validation.ValidFormat,
			MissingFields: env.Validation.MissingFields,
			Anomalies:     env.Validation.Anomalies,
		},
		Fields: env.ExtractedFields,
	}
	if resp.Verdict.MissingFields == nil {
		resp.Verdict.MissingFields = []string{}
	}
	if resp.Verdict.Anomalies == nil {
		resp.Verdict.Anomalies = []string{}
	}
	if resp.Fields == nil {
		resp.Fields = map[string]any{}
	}
	return resp, nil
}
