// Package llmparse recovers the {"news": [...]} payload from raw LLM
// output. Models reliably violate "return only JSON" instructions by
// wrapping the object in prose or markdown fences, so extraction is a
// cascade of increasingly permissive strategies. It never fails: the
// worst case is an empty payload and a logged warning.
package llmparse

import (
	"encoding/json"
	"regexp"
	"strings"

	"hvacnews/internal/logger"
)

// Item is one news entry as the model reports it. Title and Summary
// arrive either as a plain string (source-language templates) or as a
// per-language object (multilingual templates).
type Item struct {
	Title     FlexibleText `json:"title"`
	Summary   FlexibleText `json:"summary"`
	SourceURL string       `json:"source_url"`
}

// Payload is the contract every prompt template demands.
type Payload struct {
	News []Item `json:"news"`
}

// FlexibleText unmarshals from either "text" or {"en": "text", ...}.
type FlexibleText struct {
	Plain  string
	ByLang map[string]string
}

func (f *FlexibleText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Plain = s
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		f.ByLang = m
		return nil
	}
	// Anything else (number, array) is treated as absent rather than
	// failing the whole payload.
	return nil
}

// Get returns the text for a language, falling back to the plain form,
// then to any available language.
func (f FlexibleText) Get(lang string) string {
	if f.ByLang != nil {
		if v, ok := f.ByLang[lang]; ok && v != "" {
			return v
		}
	}
	if f.Plain != "" {
		return f.Plain
	}
	for _, v := range f.ByLang {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsEmpty reports whether no text arrived in any form.
func (f FlexibleText) IsEmpty() bool {
	if f.Plain != "" {
		return false
	}
	for _, v := range f.ByLang {
		if v != "" {
			return false
		}
	}
	return true
}

var (
	newsBlockRe = regexp.MustCompile(`(?s)\{[^{}]*"news"[^{}]*\[.*?\]\s*\}`)
	fencedRe    = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// ExtractNews parses raw model output into a Payload. Strategies, in
// order: whole-text parse, inline {"news": [...]} block, fenced code
// block, brace-depth scan. Empty payload when everything fails.
func ExtractNews(raw string) Payload {
	content := strings.TrimSpace(raw)
	if content == "" {
		return Payload{News: []Item{}}
	}

	if p, ok := tryParse(content); ok {
		return p
	}

	if m := newsBlockRe.FindString(content); m != "" {
		if p, ok := tryParse(m); ok {
			return p
		}
	}

	if m := fencedRe.FindStringSubmatch(content); m != nil {
		if p, ok := tryParse(strings.TrimSpace(m[1])); ok {
			return p
		}
	}

	if p, ok := braceScan(content); ok {
		return p
	}

	preview := content
	if len(preview) > 200 {
		preview = preview[:200]
	}
	logger.Warn("llm returned text instead of JSON, treating as no news", "preview", preview)
	return Payload{News: []Item{}}
}

// tryParse accepts only objects that actually carry a news key; a bare
// `{}` or an unrelated object is not a payload.
func tryParse(s string) (Payload, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return Payload{}, false
	}
	rawNews, ok := probe["news"]
	if !ok {
		return Payload{}, false
	}
	var items []Item
	if err := json.Unmarshal(rawNews, &items); err != nil {
		return Payload{}, false
	}
	if items == nil {
		items = []Item{}
	}
	return Payload{News: items}, true
}

// braceScan walks the text tracking {} nesting depth and attempts to
// parse every top-level span, accepting the first one with a news key.
func braceScan(content string) (Payload, bool) {
	depth := 0
	start := -1
	for i, ch := range content {
		switch ch {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				if p, ok := tryParse(content[start : i+1]); ok {
					return p, true
				}
				start = -1
			}
		}
	}
	return Payload{}, false
}
