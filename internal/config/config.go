// Package config loads process configuration from the environment.
// API keys never live in the database configuration, only here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DatabaseURL string

	// LLM provider API keys
	GrokAPIKey      string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string

	// Telegram run-summary notifications (optional)
	TelegramToken  string
	TelegramChatID string

	// Discovery settings
	RequestTimeout time.Duration // per LLM call, overridden by the DB configuration
	EnrichDrafts   bool          // scrape source pages to fill empty draft bodies

	// Catalog settings
	CatalogPath string

	// App settings
	Debug          bool
	MonitoringPort string
}

func Load() (*Config, error) {
	cfg := &Config{
		RequestTimeout: 120 * time.Second,
		CatalogPath:    "configs/catalog.yaml",
		MonitoringPort: "8080",
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.GrokAPIKey = os.Getenv("XAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	cfg.CatalogPath = getEnvOrDefault("CATALOG_PATH", cfg.CatalogPath)
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	if v := getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.RequestTimeout = time.Duration(v) * time.Second
	}

	if os.Getenv("ENRICH_DRAFTS") == "true" {
		cfg.EnrichDrafts = true
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	// Providers are optional individually; the orchestrator records a
	// configuration error per target when none has a key.
	return nil
}

// ProviderKeys returns the configured API keys keyed by provider name.
func (c *Config) ProviderKeys() map[string]string {
	return map[string]string{
		"grok":      c.GrokAPIKey,
		"anthropic": c.AnthropicAPIKey,
		"openai":    c.OpenAIAPIKey,
		"gemini":    c.GeminiAPIKey,
	}
}
