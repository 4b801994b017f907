package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultFontURL is the remote DejaVu Sans used in fetch mode.
const DefaultFontURL = "https://github.com/dejavu-fonts/dejavu-fonts/raw/master/ttf/DejaVuSans.ttf"

type Config struct {
	// HTTP Server
	Port                      string
	RateLimitPerMinute        int
	SummaryRateLimitPerMinute int

	// Logging
	LogLevel string

	// Fonts
	FontMode         string
	FontDir          string
	FontURL          string
	FontFetchTimeout time.Duration

	// Report output
	OutputDir        string
	CurrencySymbol   string
	ShowExpenseRatio bool

	// Dashboard chart cache
	ChartCacheSize int
	ChartCacheTTL  time.Duration

	// Observability
	MetricsEnabled    bool
	SentryDSN         string
	SentryEnvironment string
}

func Load() *Config {
	cfg := &Config{
		Port:                      getEnv("PORT", "8081"),
		RateLimitPerMinute:        getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		SummaryRateLimitPerMinute: getEnvInt("SUMMARY_RATE_LIMIT_PER_MINUTE", 120),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		FontMode:         strings.ToLower(getEnv("FONT_MODE", "bundled")),
		FontDir:          getEnv("FONT_DIR", "."),
		FontURL:          getEnv("FONT_URL", DefaultFontURL),
		FontFetchTimeout: getEnvDuration("FONT_FETCH_TIMEOUT", 10*time.Second),

		OutputDir:        getEnv("OUTPUT_DIR", filepath.Join(os.TempDir(), "budgeting")),
		CurrencySymbol:   getEnv("CURRENCY_SYMBOL", "₹"),
		ShowExpenseRatio: getEnvBool("SHOW_EXPENSE_RATIO", true),

		ChartCacheSize: getEnvInt("CHART_CACHE_SIZE", 64),
		ChartCacheTTL:  getEnvDuration("CHART_CACHE_TTL", 10*time.Minute),

		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "development"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Validate font strategy
	validModes := []string{"bundled", "fetch"}
	isValidMode := false
	for _, mode := range validModes {
		if c.FontMode == mode {
			isValidMode = true
			break
		}
	}
	if !isValidMode {
		errors = append(errors, fmt.Sprintf("invalid font mode '%s': must be one of %v", c.FontMode, validModes))
	}

	if c.FontDir == "" {
		errors = append(errors, "font directory cannot be empty")
	}

	if c.FontMode == "fetch" {
		if parsedURL, err := url.Parse(c.FontURL); err != nil || c.FontURL == "" {
			errors = append(errors, fmt.Sprintf("invalid font URL '%s': %v", c.FontURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid font URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.FontFetchTimeout <= 0 || c.FontFetchTimeout > 2*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid font fetch timeout %v: must be between 0 and 2 minutes", c.FontFetchTimeout))
		}
	}

	// Check the output directory exists or can be created
	if c.OutputDir == "" {
		errors = append(errors, "output directory cannot be empty")
	} else if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create output directory '%s': %v", c.OutputDir, err))
		}
	}

	if strings.TrimSpace(c.CurrencySymbol) == "" {
		errors = append(errors, "currency symbol cannot be empty")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.SummaryRateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary rate limit %d: must be at least 1 request per minute", c.SummaryRateLimitPerMinute))
	}

	if c.ChartCacheSize < 0 || c.ChartCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid chart cache size %d: must be between 0 and 10000", c.ChartCacheSize))
	}
	if c.ChartCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid chart cache TTL %v: must be at least 1 second", c.ChartCacheTTL))
	}

	if c.SentryDSN != "" {
		if _, err := url.Parse(c.SentryDSN); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Sentry DSN: %v", err))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
