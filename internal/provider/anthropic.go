package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hvacnews/internal/domain"
)

const (
	anthropicEndpoint   = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
	anthropicMaxTokens  = 6144
)

// Anthropic calls the Messages API with the server-side web_search tool.
type Anthropic struct {
	apiKey           string
	endpoint         string
	model            string
	temperature      float64
	maxSearchResults int
	httpClient       *http.Client
}

func NewAnthropic(apiKey string, cfg domain.SearchConfiguration) *Anthropic {
	return &Anthropic{
		apiKey:           apiKey,
		endpoint:         anthropicEndpoint,
		model:            cfg.Model(domain.ProviderAnthropic),
		temperature:      cfg.Temperature,
		maxSearchResults: cfg.MaxSearchResults,
		httpClient:       newHTTPClient(cfg.Timeout),
	}
}

func (a *Anthropic) Name() string  { return domain.ProviderAnthropic }
func (a *Anthropic) Model() string { return a.model }

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *Anthropic) Query(ctx context.Context, prompt, domainHint string) (*Result, error) {
	if a.apiKey == "" {
		return nil, &Error{Provider: a.Name(), Err: ErrNoAPIKey}
	}

	tool := map[string]any{
		"type":     "web_search_20250305",
		"name":     "web_search",
		"max_uses": a.maxSearchResults,
	}
	userPrompt := prompt
	if domainHint != "" {
		tool["allowed_domains"] = []string{domainHint}
		userPrompt = fmt.Sprintf(`Используй веб-поиск для поиска новостей на сайте %s.

%s

ФОРМАТ ОТВЕТА:
Верни ответ ТОЛЬКО в формате JSON, БЕЗ объяснений.
Формат: {"news": [{"source_url": "...", "title": {"ru": "...", "en": "..."}, "summary": {"ru": "...", "en": "..."}}, ...]}`, domainHint, prompt)
	}

	payload := map[string]any{
		"model":      a.model,
		"max_tokens": anthropicMaxTokens,
		"system":     "Ты - помощник для поиска новостей. Верни результат ТОЛЬКО в формате JSON.",
		"messages": []chatMessage{
			{Role: "user", Content: userPrompt},
		},
		"tools":       []map[string]any{tool},
		"temperature": a.temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Provider: a.Name(), Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &Error{Provider: a.Name(), Err: &apiStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(detail))}}
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Provider: a.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	// The answer may interleave tool-use blocks; only text blocks carry
	// the payload.
	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	return &Result{
		RawText:      strings.TrimSpace(b.String()),
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
		Duration:     time.Since(start),
	}, nil
}
