// Package provider wraps the LLM vendor APIs behind one interface.
// Each adapter performs a single web-search-augmented call and returns
// the raw text plus token/timing metadata; parsing and persistence
// happen upstream.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hvacnews/internal/domain"
)

// Result is the raw outcome of one provider call.
type Result struct {
	RawText      string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// Provider is one LLM vendor.
type Provider interface {
	Name() string
	Model() string
	// Query sends the search prompt. domainHint, when non-empty,
	// restricts the provider's web search to that domain.
	Query(ctx context.Context, prompt, domainHint string) (*Result, error)
}

// ErrNoAPIKey marks a provider that is configured in the chain but has
// no key in the environment. Terminal for that provider, not the target.
var ErrNoAPIKey = errors.New("api key is not configured")

// Error is a transport or API failure from a specific provider.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether the failure was the call exceeding its
// deadline rather than an API rejection.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// Chain builds the ordered provider list for one discovery pass:
// primary first, then the configured fallback chain, duplicates
// removed. Adapters are constructed even without a key so the
// orchestrator can record the configuration error in the error chain.
func Chain(cfg domain.SearchConfiguration, keys map[string]string) []Provider {
	names := append([]string{cfg.PrimaryProvider}, cfg.FallbackChain...)
	seen := make(map[string]bool, len(names))
	var chain []Provider
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if p := build(name, cfg, keys[name]); p != nil {
			chain = append(chain, p)
		}
	}
	return chain
}

// ByName returns a single-provider chain for explicit provider
// selection, or nil for an unknown name.
func ByName(name string, cfg domain.SearchConfiguration, keys map[string]string) Provider {
	return build(name, cfg, keys[name])
}

func build(name string, cfg domain.SearchConfiguration, key string) Provider {
	switch name {
	case domain.ProviderGrok:
		return NewGrok(key, cfg)
	case domain.ProviderAnthropic:
		return NewAnthropic(key, cfg)
	case domain.ProviderGemini:
		return NewGemini(key, cfg)
	case domain.ProviderOpenAI:
		return NewOpenAI(key, cfg)
	}
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
