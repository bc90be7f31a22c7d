package domain

import "time"

// Provider names as stored in configuration and call records.
const (
	ProviderGrok      = "grok"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAuto      = "auto"
)

// ProviderPrice is the per-million-token tariff for one provider.
type ProviderPrice struct {
	Input  float64 // USD per 1M input tokens
	Output float64 // USD per 1M output tokens
}

// SearchConfiguration is the admin-editable knob set for discovery.
// Exactly one configuration is active at a time; the store clears the
// flag on all others when an active one is saved.
type SearchConfiguration struct {
	ID       int64
	Name     string
	IsActive bool

	PrimaryProvider string
	FallbackChain   []string

	Temperature float64
	Timeout     time.Duration

	// Web search knobs (Grok/Anthropic honor these; they drive cost).
	MaxSearchResults  int
	SearchContextSize string // low | medium | high

	GrokModel      string
	AnthropicModel string
	GeminiModel    string
	OpenAIModel    string

	MaxNewsPerTarget     int
	DelayBetweenRequests time.Duration

	Prices map[string]ProviderPrice

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultConfiguration mirrors the tariffs and models the site launched
// with. Used when the database has no configuration row yet.
func DefaultConfiguration() SearchConfiguration {
	return SearchConfiguration{
		Name:                 "default",
		IsActive:             true,
		PrimaryProvider:      ProviderGrok,
		FallbackChain:        []string{ProviderAnthropic, ProviderOpenAI},
		Temperature:          0.3,
		Timeout:              120 * time.Second,
		MaxSearchResults:     5,
		SearchContextSize:    "low",
		GrokModel:            "grok-4-1-fast",
		AnthropicModel:       "claude-3-5-haiku-20241022",
		GeminiModel:          "gemini-2.0-flash-exp",
		OpenAIModel:          "gpt-4o",
		MaxNewsPerTarget:     10,
		DelayBetweenRequests: 500 * time.Millisecond,
		Prices: map[string]ProviderPrice{
			ProviderGrok:      {Input: 3.0, Output: 15.0},
			ProviderAnthropic: {Input: 0.80, Output: 4.0},
			ProviderGemini:    {Input: 0.075, Output: 0.30},
			ProviderOpenAI:    {Input: 2.50, Output: 10.0},
		},
	}
}

// Price returns the tariff for a provider, zero when unknown.
func (c SearchConfiguration) Price(provider string) ProviderPrice {
	return c.Prices[provider]
}

// Model returns the configured model identifier for a provider.
func (c SearchConfiguration) Model(provider string) string {
	switch provider {
	case ProviderGrok:
		return c.GrokModel
	case ProviderAnthropic:
		return c.AnthropicModel
	case ProviderGemini:
		return c.GeminiModel
	case ProviderOpenAI:
		return c.OpenAIModel
	}
	return ""
}

// Snapshot flattens the configuration for storage on a discovery run.
func (c SearchConfiguration) Snapshot() map[string]any {
	prices := make(map[string]any, len(c.Prices))
	for p, pr := range c.Prices {
		prices[p] = map[string]any{"input": pr.Input, "output": pr.Output}
	}
	return map[string]any{
		"name":                c.Name,
		"primary_provider":    c.PrimaryProvider,
		"fallback_chain":      c.FallbackChain,
		"temperature":         c.Temperature,
		"timeout_seconds":     int(c.Timeout.Seconds()),
		"max_search_results":  c.MaxSearchResults,
		"search_context_size": c.SearchContextSize,
		"grok_model":          c.GrokModel,
		"anthropic_model":     c.AnthropicModel,
		"gemini_model":        c.GeminiModel,
		"openai_model":        c.OpenAIModel,
		"max_news_per_target": c.MaxNewsPerTarget,
		"prices":              prices,
	}
}
