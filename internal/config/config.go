package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Placeholder ids shipped in the page template. A tracker configured with
// one of these stays disabled.
const (
	PlaceholderGTMID     = "GTM-XXXXXXX"
	PlaceholderFBPixelID = "XXXXXXXXXX"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	// Submission
	SubscribeEndpoint string
	SubscribeTimeout  time.Duration // 0 disables the timeout
	ConfirmationPath  string

	// Trackers
	GTMID         string
	GAAPISecret   string
	GAEndpoint    string
	FBPixelID     string
	FBAccessToken string
	FBEndpoint    string

	// Optional backends
	RedisURL    string
	DatabaseURL string

	// Page runtime
	SessionIdleTimeout time.Duration
	FormSectionTop     int
	ScrollOffset       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	subscribeTimeout, err := getDurationEnv("SUBSCRIBE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := getDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:8080")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Environment:        getEnv("ENVIRONMENT", "production"),
		SubscribeEndpoint:  getEnv("SUBSCRIBE_ENDPOINT", "https://example.com/api/subscribe"),
		SubscribeTimeout:   subscribeTimeout,
		ConfirmationPath:   getEnv("CONFIRMATION_PATH", "/thanks.html"),
		GTMID:              getEnv("GTM_ID", PlaceholderGTMID),
		GAAPISecret:        getEnv("GA_API_SECRET", ""),
		GAEndpoint:         getEnv("GA_ENDPOINT", "https://www.google-analytics.com/mp/collect"),
		FBPixelID:          getEnv("FB_PIXEL_ID", PlaceholderFBPixelID),
		FBAccessToken:      getEnv("FB_ACCESS_TOKEN", ""),
		FBEndpoint:         getEnv("FB_ENDPOINT", "https://graph.facebook.com/v19.0"),
		RedisURL:           getEnv("REDIS_URL", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SessionIdleTimeout: idleTimeout,
		FormSectionTop:     getIntEnv("FORM_SECTION_TOP", 1800),
		ScrollOffset:       getIntEnv("SCROLL_OFFSET", 80),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values Load cannot default its way out of
func (c *Config) Validate() error {
	var problems []string

	if c.SubscribeEndpoint == "" {
		problems = append(problems, "SUBSCRIBE_ENDPOINT is required")
	}
	if !strings.HasPrefix(c.ConfirmationPath, "/") {
		problems = append(problems, "CONFIRMATION_PATH must be an absolute path")
	}
	if c.SubscribeTimeout < 0 {
		problems = append(problems, "SUBSCRIBE_TIMEOUT must not be negative")
	}
	if c.SessionIdleTimeout <= 0 {
		problems = append(problems, "SESSION_IDLE_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GTMEnabled reports whether the Google tag is configured with a real id
func (c *Config) GTMEnabled() bool {
	return c.GTMID != "" && c.GTMID != PlaceholderGTMID
}

// FBPixelEnabled reports whether the Meta pixel is configured with a real id
func (c *Config) FBPixelEnabled() bool {
	return c.FBPixelID != "" && c.FBPixelID != PlaceholderFBPixelID
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv parses a Go duration ("15s", "30m"); "0" is allowed
func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
