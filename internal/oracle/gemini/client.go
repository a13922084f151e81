package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docrecon/internal/oracle"
)

// Config for the Gemini extractor.
type Config struct {
	APIKey      string
	Model       string // default "gemini-2.0-flash"
	Temperature float32
}

// Client implements oracle.StructuredExtractor on the Gemini API.
type Client struct {
	cfg    Config
	genai  *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{cfg: cfg, genai: gc, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.genai.Close()
}

func (c *Client) Extract(ctx context.Context, req oracle.Request) (oracle.Response, []byte, error) {
	start := time.Now()
	c.logger.Info("oracle.gemini.start",
		"model", c.cfg.Model,
		"class", string(req.Class),
		"text_len", len(req.DocumentText),
	)

	model := c.genai.GenerativeModel(c.cfg.Model)
	model.SetTemperature(c.cfg.Temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(oracle.BuildPrompt(req)))
	if err != nil {
		c.logger.Error("oracle.gemini.error", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return oracle.Response{}, nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return oracle.Response{}, nil, fmt.Errorf("no response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	raw := []byte(cleanJSONResponse(b.String()))

	out, err := oracle.DecodeEnvelope(raw)
	if err != nil {
		c.logger.Error("oracle.gemini.decode_error", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return oracle.Response{}, raw, err
	}

	c.logger.Info("oracle.gemini.ok",
		"valid_format", out.Verdict.ValidFormat,
		"fields", len(out.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, raw, nil
}

// cleanJSONResponse removes markdown code block markers from a JSON string.
// Gemini wraps JSON in ```json ... ``` fences despite instructions not to.
func cleanJSONResponse(jsonStr string) string {
	jsonStr = strings.TrimPrefix(strings.TrimSpace(jsonStr), "```json")
	jsonStr = strings.TrimPrefix(strings.TrimSpace(jsonStr), "```")
	jsonStr = strings.TrimSuffix(strings.TrimSpace(jsonStr), "```")
	return strings.TrimSpace(jsonStr)
}
