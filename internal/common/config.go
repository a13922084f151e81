package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Oracle   OracleConfig
	Index    IndexConfig
	Dedup    DedupConfig
}

// DatabaseConfig holds document-store configuration
type DatabaseConfig struct {
	Path        string
	DialTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// OCRConfig holds text-extraction tool configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// OracleConfig holds structured-extraction oracle configuration
type OracleConfig struct {
	Provider    string // "openai" | "gemini"
	Model       string
	APIKey      string
	GeminiKey   string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// IndexConfig holds similarity-index (Chroma) configuration
type IndexConfig struct {
	BaseURL           string
	InvoiceCollection string
	POCollection      string
	Timeout           time.Duration
}

// DedupConfig holds duplicate-detection thresholds
type DedupConfig struct {
	MaxDistance float32 // top-hit distance below this flags a near-duplicate
	ContextK    int     // retrieved examples for oracle context
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        getEnv("DB_PATH", "documents.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Oracle: OracleConfig{
			Provider:    getEnv("ORACLE_PROVIDER", "openai"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			GeminiKey:   getEnv("GEMINI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("ORACLE_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("ORACLE_TIMEOUT", 45*time.Second),
		},
		Index: IndexConfig{
			BaseURL:           getEnv("CHROMA_URL", "http://localhost:8000"),
			InvoiceCollection: getEnv("CHROMA_INVOICE_COLLECTION", "invoices"),
			POCollection:      getEnv("CHROMA_PO_COLLECTION", "purchase_orders"),
			Timeout:           getEnvAsDuration("CHROMA_TIMEOUT", 15*time.Second),
		},
		Dedup: DedupConfig{
			MaxDistance: getEnvAsFloat32("DEDUP_MAX_DISTANCE", 0.2),
			ContextK:    getEnvAsInt("ORACLE_CONTEXT_K", 2),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "DB_PATH is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.Oracle.Provider {
	case "openai":
		if c.Oracle.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	case "gemini":
		if c.Oracle.GeminiKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "ORACLE_PROVIDER must be openai or gemini", ErrInvalidInput)
	}
	return nil
}
