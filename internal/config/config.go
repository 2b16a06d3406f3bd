package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"certverify/internal/logger"
)

// Config carries every runtime setting of the verification service. All
// values come from the environment (godotenv loads .env in main) with
// defaults that make a bare checkout runnable.
type Config struct {
	// Verification pipeline
	ReferenceTemplate string // path to the genuine certificate template
	UploadDir         string // request-scoped upload spool
	OverlayDir        string // generated heatmap overlays
	RecordLog         string // append-only CSV log of extracted records

	// Text locator
	LocatorBackend string        // tesseract, vision, documentai
	LocatorLangs   []string      // OCR language hints
	LocatorTimeout time.Duration // per-request bound on the locate call

	// Optional record sink (Google Sheets)
	SheetURL       string
	SheetWorksheet string

	// Optional field completion
	OpenAIAPIKey string
	OpenAIModel  string

	// HTTP server
	Port string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment.
//
// The reference template path is deliberately not validated here: its
// absence is a supported degraded mode (placeholder heatmaps), not a
// startup failure.
func Load() (*Config, error) {
	config := &Config{
		ReferenceTemplate: getEnv("REFERENCE_TEMPLATE", "reference_template.png"),
		UploadDir:         getEnv("UPLOAD_DIR", "static"),
		OverlayDir:        getEnv("OVERLAY_DIR", "static/heatmaps"),
		RecordLog:         getEnv("RECORD_LOG", "extracted_certificates.csv"),
		LocatorBackend:    getEnv("LOCATOR_BACKEND", "tesseract"),
		LocatorLangs:      []string{getEnv("LOCATOR_LANGUAGE", "eng")},
		SheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		SheetWorksheet:    getEnv("GOOGLE_SHEET_WORKSHEET", "Certificates"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:         getEnv("LOG_OUTPUT", "stdout"),
	}

	timeoutSecs, err := strconv.Atoi(getEnv("LOCATOR_TIMEOUT_SECONDS", "60"))
	if err != nil || timeoutSecs <= 0 {
		return nil, fmt.Errorf("config validation failed: LOCATOR_TIMEOUT_SECONDS must be a positive integer")
	}
	config.LocatorTimeout = time.Duration(timeoutSecs) * time.Second

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.LocatorBackend {
	case "tesseract", "vision", "documentai":
	default:
		return fmt.Errorf("LOCATOR_BACKEND must be one of tesseract, vision, documentai (got %q)", c.LocatorBackend)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.OverlayDir == "" {
		return fmt.Errorf("OVERLAY_DIR is required")
	}
	if c.RecordLog == "" {
		return fmt.Errorf("RECORD_LOG is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
