package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"docrecon/internal/simindex"
)

// Config for a Chroma-backed similarity index.
type Config struct {
	BaseURL    string // e.g. http://localhost:8000
	Collection string // collection name, one per document class
	Timeout    time.Duration
}

// Client talks to a Chroma server's REST API. One client per collection.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ simindex.Index = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type queryResponse struct {
	Documents [][]string  `json:"documents"`
	Distances [][]float32 `json:"distances"`
	IDs       [][]string  `json:"ids"`
}

func (c *Client) Search(ctx context.Context, text string, k int) ([]string, error) {
	matches, err := c.SearchWithScore(ctx, text, k)
	if err != nil {
		return nil, err
	}
	docs := make([]string, len(matches))
	for i, m := range matches {
		docs[i] = m.Content
	}
	return docs, nil
}

func (c *Client) SearchWithScore(ctx context.Context, text string, k int) ([]simindex.Match, error) {
	body := map[string]any{
		"query_texts": []string{text},
		"n_results":   k,
		"include":     []string{"documents", "distances"},
	}
	raw, err := c.post(ctx, c.collectionURL("query"), body)
	if err != nil {
		return nil, err
	}
	var qr queryResponse
	if err := json.Unmarshal(raw, &qr); err != nil {
		return nil, fmt.Errorf("decode chroma query response: %w", err)
	}
	if len(qr.Documents) == 0 {
		return nil, nil
	}
	docs := qr.Documents[0]
	var dists []float32
	if len(qr.Distances) > 0 {
		dists = qr.Distances[0]
	}
	matches := make([]simindex.Match, len(docs))
	for i, d := range docs {
		matches[i] = simindex.Match{Content: d}
		if i < len(dists) {
			matches[i].Distance = dists[i]
		}
	}
	return matches, nil
}

func (c *Client) AddTexts(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	ids := make([]string, len(texts))
	for i := range texts {
		ids[i] = uuid.New().String()
	}
	body := map[string]any{
		"documents": texts,
		"ids":       ids,
	}
	_, err := c.post(ctx, c.collectionURL("add"), body)
	return err
}

func (c *Client) Persist(ctx context.Context) error {
	_, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/api/v1/persist", map[string]any{})
	return err
}

func (c *Client) collectionURL(op string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/api/v1/collections/" + c.cfg.Collection + "/" + op
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("simindex.http.send_error", "req_id", reqID, "url", url,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("simindex.http.body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Debug("simindex.http.response",
		"req_id", reqID,
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, fmt.Errorf("chroma status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
