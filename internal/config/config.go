package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	OracleTimeout      time.Duration
	MaxRequestBodySize int64
	MaxImageDimension  int

	OracleType  string
	OracleURL   string
	OCRLanguage string

	SampleStore           string
	SamplesDir            string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureSamplesContainer string

	ThresholdsFile string
	Thresholds     analyzer.Thresholds

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel string
	LogFile  string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                  getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                  getEnvOrDefault("PORT", "8080"),
		RequestTimeout:        parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:     parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		OracleTimeout:         parseDurationOrDefault("ORACLE_TIMEOUT", 3*time.Second),
		MaxRequestBodySize:    parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 16*1024*1024), // 16MB
		MaxImageDimension:     int(parseIntOrDefault("MAX_IMAGE_DIMENSION", 1024)),
		OracleType:            strings.ToLower(getEnvOrDefault("ORACLE_TYPE", "none")),
		OracleURL:             os.Getenv("ORACLE_URL"),
		OCRLanguage:           getEnvOrDefault("OCR_LANGUAGE", "eng"),
		SampleStore:           strings.ToLower(getEnvOrDefault("SAMPLE_STORE", "local")),
		SamplesDir:            getEnvOrDefault("SAMPLES_DIR", "samples"),
		AzureStorageAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureSamplesContainer: getEnvOrDefault("AZURE_SAMPLES_CONTAINER", "samples"),
		ThresholdsFile:        os.Getenv("THRESHOLDS_FILE"),
		Thresholds:            analyzer.DefaultThresholds(),
		RateLimitRPS:          parseFloatOrDefault("RATE_LIMIT_RPS", 20),
		RateLimitBurst:        int(parseIntOrDefault("RATE_LIMIT_BURST", 40)),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:               os.Getenv("LOG_FILE"),
	}

	if cfg.ThresholdsFile != "" {
		t, err := LoadThresholds(cfg.ThresholdsFile)
		if err != nil {
			return nil, err
		}
		cfg.Thresholds = t
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImageDimension < 2 {
		return fmt.Errorf("MAX_IMAGE_DIMENSION must be >= 2 (got %d)", c.MaxImageDimension)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.OracleTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, oracle=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.OracleTimeout)
	}
	switch c.OracleType {
	case "none", "ocr":
	case "http":
		if c.OracleURL == "" {
			return fmt.Errorf("ORACLE_URL is required when ORACLE_TYPE=http")
		}
	default:
		return fmt.Errorf("unknown ORACLE_TYPE %q (want none, http or ocr)", c.OracleType)
	}
	switch c.SampleStore {
	case "local":
	case "azure":
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required when SAMPLE_STORE=azure")
		}
	default:
		return fmt.Errorf("unknown SAMPLE_STORE %q (want local or azure)", c.SampleStore)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be positive (got rps=%.2f, burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	return c.Thresholds.Validate()
}

// LoadThresholds reads a YAML file whose keys overlay the default thresholds
func LoadThresholds(path string) (analyzer.Thresholds, error) {
	t := analyzer.DefaultThresholds()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("reading thresholds file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parsing thresholds file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("thresholds file %s: %w", path, err)
	}
	return t, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
