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
	"hvacnews/internal/logger"
)

const grokEndpoint = "https://api.x.ai/v1/chat/completions"

// Grok talks to the xAI OpenAI-compatible chat completions API with
// the web_search_options extension.
type Grok struct {
	apiKey            string
	endpoint          string
	model             string
	temperature       float64
	maxSearchResults  int
	searchContextSize string
	httpClient        *http.Client
}

func NewGrok(apiKey string, cfg domain.SearchConfiguration) *Grok {
	return &Grok{
		apiKey:            apiKey,
		endpoint:          grokEndpoint,
		model:             cfg.Model(domain.ProviderGrok),
		temperature:       cfg.Temperature,
		maxSearchResults:  cfg.MaxSearchResults,
		searchContextSize: cfg.SearchContextSize,
		httpClient:        newHTTPClient(cfg.Timeout),
	}
}

func (g *Grok) Name() string  { return domain.ProviderGrok }
func (g *Grok) Model() string { return g.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Query asks Grok with web search scoped to domainHint. If the API
// rejects response_format or web_search_options (capability mismatch on
// older models), the request degrades to an unstructured call and the
// JSON is recovered downstream.
func (g *Grok) Query(ctx context.Context, prompt, domainHint string) (*Result, error) {
	if g.apiKey == "" {
		return nil, &Error{Provider: g.Name(), Err: ErrNoAPIKey}
	}

	webSearch := map[string]any{
		"max_search_results":  g.maxSearchResults,
		"search_context_size": g.searchContextSize,
	}
	if domainHint != "" {
		webSearch["allowed_domains"] = []string{domainHint}
	}

	base := map[string]any{
		"model": g.model,
		"messages": []chatMessage{
			{Role: "system", Content: "Используй веб-поиск для поиска новостей. Возвращай ответ в формате JSON."},
			{Role: "user", Content: prompt},
		},
		"temperature": g.temperature,
	}

	attempts := []map[string]any{
		withFields(base, map[string]any{"response_format": map[string]string{"type": "json_object"}, "web_search_options": webSearch}),
		withFields(base, map[string]any{"web_search_options": webSearch}),
		base,
	}

	start := time.Now()
	var lastErr error
	for i, payload := range attempts {
		resp, err := g.send(ctx, payload)
		if err == nil {
			resp.Duration = time.Since(start)
			return resp, nil
		}
		lastErr = err
		if !isParamRejection(err) || i == len(attempts)-1 {
			break
		}
		logger.Warn("grok rejected request parameters, degrading", "attempt", i+1, "error", err)
	}
	return nil, &Error{Provider: g.Name(), Err: lastErr}
}

func (g *Grok) send(ctx context.Context, payload map[string]any) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &apiStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(detail))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}

	return &Result{
		RawText:      strings.TrimSpace(parsed.Choices[0].Message.Content),
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

type apiStatusError struct {
	status int
	body   string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.status, e.body)
}

// isParamRejection matches 400-class answers caused by unsupported
// request parameters, the signal to retry in degraded form.
func isParamRejection(err error) bool {
	se, ok := err.(*apiStatusError)
	if !ok {
		return false
	}
	if se.status != http.StatusBadRequest && se.status != http.StatusUnprocessableEntity {
		return false
	}
	body := strings.ToLower(se.body)
	return strings.Contains(body, "response_format") ||
		strings.Contains(body, "web_search") ||
		strings.Contains(body, "unknown") ||
		strings.Contains(body, "unsupported") ||
		strings.Contains(body, "invalid")
}

func withFields(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
