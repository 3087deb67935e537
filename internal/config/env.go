package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// LabelConfig holds defaults for the generation flags.
type LabelConfig struct {
	StartAt   int
	NumPages  int
	Width     int
	Prefix    string
	FontPath  string
	PixelSize int
}

// OutputConfig controls what happens around the written PDF.
type OutputConfig struct {
	Verify         bool
	MetricsFile    string
	PreviewDPI     int
	PreviewQuality int
	UploadTimeout  time.Duration
	StaleTempAge   time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Labels  LabelConfig
	Output  OutputConfig
}

// LoadDotEnv reads variables from the given files (default .env) without
// overriding anything already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "10"), 10),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "3"), 3),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_qrlabels",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "2s"), 2*time.Second),
	}

	cfg.Labels = LabelConfig{
		StartAt:   parseInt(getEnv("QRLABELS_START_AT", "1"), 1),
		NumPages:  parseInt(getEnv("QRLABELS_NUM_PAGES", "1"), 1),
		Width:     parseInt(getEnv("QRLABELS_WIDTH", "5"), 5),
		Prefix:    getEnv("QRLABELS_PREFIX", ""),
		FontPath:  getEnv("QRLABELS_FONT", ""),
		PixelSize: parseInt(getEnv("QRLABELS_PIXEL_SIZE", "350"), 350),
	}

	cfg.Output = OutputConfig{
		Verify:         parseBool(getEnv("QRLABELS_VERIFY", "true")),
		MetricsFile:    getEnv("QRLABELS_METRICS_FILE", ""),
		PreviewDPI:     parseInt(getEnv("QRLABELS_PREVIEW_DPI", "100"), 100),
		PreviewQuality: parseInt(getEnv("QRLABELS_PREVIEW_QUALITY", "85"), 85),
		UploadTimeout:  parseDuration(getEnv("QRLABELS_UPLOAD_TIMEOUT", "60s"), 60*time.Second),
		StaleTempAge:   parseDuration(getEnv("QRLABELS_STALE_TEMP_AGE", "0"), 0),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
