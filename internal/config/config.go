// Package config provides application configuration.
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

// DefaultAPIURL is the versioned base path of the hosted tutoring API.
const DefaultAPIURL = "https://web-production-5e612.up.railway.app/api/v1"

// Config holds all application configuration.
type Config struct {
	APIURL          string
	StatePath       string
	RequestTimeout  time.Duration
	NotificationTTL time.Duration
	ListenAddr      string
	AllowedOrigins  []string
	LogLevel        string
	Dashboard       DashboardConfig

	// RequireAuthOnConversationEndpoints sends the bearer token on the
	// folder, conversation, message and feedback endpoints too.
	RequireAuthOnConversationEndpoints bool
}

// DashboardConfig controls the analytics windows.
type DashboardConfig struct {
	QuickStatsDays int
	DetailDays     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:          strings.TrimRight(getEnv("NIA_API_URL", DefaultAPIURL), "/"),
		StatePath:       getEnv("NIA_STATE_PATH", defaultStatePath()),
		RequestTimeout:  getEnvDuration("NIA_REQUEST_TIMEOUT", 30*time.Second),
		NotificationTTL: getEnvDuration("NIA_NOTIFICATION_TTL", 3*time.Second),
		ListenAddr:      getEnv("NIA_LISTEN_ADDR", "127.0.0.1:8787"),
		AllowedOrigins:  getEnvList("NIA_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:        strings.ToLower(getEnv("NIA_LOG_LEVEL", "")),
		Dashboard: DashboardConfig{
			QuickStatsDays: getEnvInt("NIA_QUICK_STATS_DAYS", 7),
			DetailDays:     getEnvInt("NIA_DETAIL_DAYS", 30),
		},
		RequireAuthOnConversationEndpoints: getEnvBool("NIA_REQUIRE_AUTH_ON_CONVERSATION_ENDPOINTS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("NIA_API_URL cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("NIA_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.StatePath == "" {
		return fmt.Errorf("NIA_STATE_PATH cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("NIA_REQUEST_TIMEOUT must be > 0")
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("NIA_NOTIFICATION_TTL must be > 0")
	}
	if c.Dashboard.QuickStatsDays <= 0 {
		return fmt.Errorf("NIA_QUICK_STATS_DAYS must be > 0")
	}
	if c.Dashboard.DetailDays <= 0 {
		return fmt.Errorf("NIA_DETAIL_DAYS must be > 0")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("NIA_LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

// IsLocalAPI returns true if the API points at a developer machine.
func (c *Config) IsLocalAPI() bool {
	return strings.Contains(c.APIURL, "localhost") ||
		strings.Contains(c.APIURL, "127.0.0.1")
}

func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "nia", "state.db")
	}
	return "./data/nia-state.db"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
