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

const (
	openAIResponsesEndpoint = "https://api.openai.com/v1/responses"
	openAIChatEndpoint      = "https://api.openai.com/v1/chat/completions"
)

// OpenAI prefers the Responses API for its built-in web_search tool and
// falls back to plain chat completions when the account or model does
// not expose it.
type OpenAI struct {
	apiKey            string
	responsesEndpoint string
	chatEndpoint      string
	model             string
	temperature       float64
	httpClient        *http.Client
}

func NewOpenAI(apiKey string, cfg domain.SearchConfiguration) *OpenAI {
	return &OpenAI{
		apiKey:            apiKey,
		responsesEndpoint: openAIResponsesEndpoint,
		chatEndpoint:      openAIChatEndpoint,
		model:             cfg.Model(domain.ProviderOpenAI),
		temperature:       cfg.Temperature,
		httpClient:        newHTTPClient(cfg.Timeout),
	}
}

func (o *OpenAI) Name() string  { return domain.ProviderOpenAI }
func (o *OpenAI) Model() string { return o.model }

type responsesAPIResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (r responsesAPIResponse) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	var b strings.Builder
	for _, out := range r.Output {
		for _, c := range out.Content {
			if c.Type == "" || c.Type == "output_text" || c.Type == "text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

func (o *OpenAI) Query(ctx context.Context, prompt, domainHint string) (*Result, error) {
	if o.apiKey == "" {
		return nil, &Error{Provider: o.Name(), Err: ErrNoAPIKey}
	}

	start := time.Now()
	res, err := o.queryResponses(ctx, prompt)
	if err != nil {
		if !endpointUnavailable(err) {
			return nil, &Error{Provider: o.Name(), Err: err}
		}
		logger.Warn("openai responses API unavailable, using chat completions", "error", err)
		res, err = o.queryChat(ctx, prompt)
		if err != nil {
			return nil, &Error{Provider: o.Name(), Err: err}
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (o *OpenAI) queryResponses(ctx context.Context, prompt string) (*Result, error) {
	payload := map[string]any{
		"model":       o.model,
		"input":       prompt,
		"tools":       []map[string]string{{"type": "web_search"}},
		"temperature": o.temperature,
	}

	body, err := o.post(ctx, o.responsesEndpoint, payload)
	if err != nil {
		return nil, err
	}

	var parsed responsesAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode responses payload: %w", err)
	}

	return &Result{
		RawText:      strings.TrimSpace(parsed.text()),
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}, nil
}

func (o *OpenAI) queryChat(ctx context.Context, prompt string) (*Result, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []chatMessage{
			{Role: "system", Content: "Ты - эксперт по поиску новостей. Возвращай ответ в формате JSON."},
			{Role: "user", Content: prompt},
		},
		"temperature":     o.temperature,
		"response_format": map[string]string{"type": "json_object"},
	}

	body, err := o.post(ctx, o.chatEndpoint, payload)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat payload: %w", err)
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

func (o *OpenAI) post(ctx context.Context, endpoint string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail := data
		if len(detail) > 1024 {
			detail = detail[:1024]
		}
		return nil, &apiStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(detail))}
	}
	return data, nil
}

// endpointUnavailable matches rejections of the Responses API itself,
// not of the prompt: 404 for the route, 400/422 complaining about
// unknown parameters or tools.
func endpointUnavailable(err error) bool {
	se, ok := err.(*apiStatusError)
	if !ok {
		return false
	}
	if se.status == http.StatusNotFound {
		return true
	}
	return isParamRejection(err)
}
