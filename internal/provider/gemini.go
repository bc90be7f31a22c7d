package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"hvacnews/internal/domain"
)

// Gemini uses the official generative-ai-go SDK. The client is created
// lazily on the first query so a keyless configuration costs nothing.
type Gemini struct {
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration

	client *genai.Client
}

func NewGemini(apiKey string, cfg domain.SearchConfiguration) *Gemini {
	return &Gemini{
		apiKey:      apiKey,
		model:       cfg.Model(domain.ProviderGemini),
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

func (g *Gemini) Name() string  { return domain.ProviderGemini }
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Query(ctx context.Context, prompt, domainHint string) (*Result, error) {
	if g.apiKey == "" {
		return nil, &Error{Provider: g.Name(), Err: ErrNoAPIKey}
	}

	if g.client == nil {
		client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
		if err != nil {
			return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("create client: %w", err)}
		}
		g.client = client
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	temp := float32(g.temperature)
	model.Temperature = &temp
	model.ResponseMIMEType = "application/json"

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("generate content: %w", err)}
	}
	elapsed := time.Since(start)

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("no response candidates")}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	// Usage metadata is optional; missing counts default to zero.
	inputTokens, outputTokens := 0, 0
	if resp.UsageMetadata != nil {
		inputTokens = int(resp.UsageMetadata.PromptTokenCount)
		outputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &Result{
		RawText:      strings.TrimSpace(b.String()),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Duration:     elapsed,
	}, nil
}

// Close releases the underlying client, if one was created.
func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}
