package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"docrecon/internal/oracle"
)

// Extract implements oracle.StructuredExtractor over chat/completions.
func (c *Client) Extract(ctx context.Context, req oracle.Request) (oracle.Response, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("oracle.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"class", string(req.Class),
		"text_len", len(req.DocumentText),
		"examples", len(req.Examples),
	)

	prompt := oracle.BuildPrompt(req)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Error("oracle.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return oracle.Response{}, nil, err
	}
	raw := []byte(content)

	resp, err := oracle.DecodeEnvelope(raw)
	if err != nil {
		c.logger.Error("oracle.extract.decode_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return oracle.Response{}, raw, err
	}

	c.logger.Info("oracle.extract.ok",
		"req_id", rid,
		"valid_format", resp.Verdict.ValidFormat,
		"missing_fields", len(resp.Verdict.MissingFields),
		"fields", len(resp.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp, raw, nil
}

// Complete sends a plain prompt and returns the model's text. The narrative
// renderer uses this path; extraction goes through Extract.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	return c.complete(ctx, body)
}

func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
