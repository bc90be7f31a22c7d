package llmparse

import "testing"

func TestExtractNews_DirectJSON(t *testing.T) {
	raw := `{"news": [{"title": "Заголовок", "summary": "Текст новости", "source_url": "https://example.com/a"}]}`
	p := ExtractNews(raw)
	if len(p.News) != 1 {
		t.Fatalf("expected 1 item, got %d", len(p.News))
	}
	if got := p.News[0].Title.Get("ru"); got != "Заголовок" {
		t.Errorf("title = %q", got)
	}
	if p.News[0].SourceURL != "https://example.com/a" {
		t.Errorf("source_url = %q", p.News[0].SourceURL)
	}
}

func TestExtractNews_MultilingualObjects(t *testing.T) {
	raw := `{"news": [{"title": {"ru": "Насосы", "en": "Pumps"}, "summary": {"ru": "Текст", "en": "Text"}, "source_url": "u"}]}`
	p := ExtractNews(raw)
	if len(p.News) != 1 {
		t.Fatalf("expected 1 item, got %d", len(p.News))
	}
	item := p.News[0]
	if item.Title.Get("en") != "Pumps" || item.Title.Get("ru") != "Насосы" {
		t.Errorf("unexpected titles: %+v", item.Title)
	}
	if item.Summary.Get("de") == "" {
		t.Errorf("expected fallback to some language for missing de")
	}
}

func TestExtractNews_FencedBlock(t *testing.T) {
	raw := "Here is what I found:\n```json\n{\"news\": [{\"title\": \"A\", \"summary\": \"B\", \"source_url\": \"c\"}]}\n```\nHope this helps!"
	p := ExtractNews(raw)
	if len(p.News) != 1 {
		t.Fatalf("expected 1 item from fenced block, got %d", len(p.News))
	}
}

func TestExtractNews_ProseWrapped(t *testing.T) {
	raw := `I searched the site and found one article. {"news": [{"title": "T", "summary": "S", "source_url": "u"}]} Let me know if you need more.`
	p := ExtractNews(raw)
	if len(p.News) != 1 {
		t.Fatalf("expected 1 item from prose-wrapped JSON, got %d", len(p.News))
	}
}

func TestExtractNews_BraceScanSkipsUnrelatedObjects(t *testing.T) {
	raw := `{"meta": "not it"} and then {"news": [{"title": "T", "summary": "S", "source_url": "u"}], "count": 1}`
	p := ExtractNews(raw)
	if len(p.News) != 1 {
		t.Fatalf("expected brace scan to find the news object, got %d items", len(p.News))
	}
}

func TestExtractNews_GarbageNeverFails(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here at all",
		"{broken json",
		`{"news": "not an array"}`,
		"}}}{{{",
	} {
		p := ExtractNews(raw)
		if p.News == nil {
			t.Errorf("News slice must never be nil for input %q", raw)
		}
		if len(p.News) != 0 {
			t.Errorf("expected empty payload for %q, got %d items", raw, len(p.News))
		}
	}
}

func TestExtractNews_EmptyArray(t *testing.T) {
	p := ExtractNews(`{"news": []}`)
	if p.News == nil || len(p.News) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", p.News)
	}
}

func TestFlexibleText_Get(t *testing.T) {
	plain := FlexibleText{Plain: "text"}
	if plain.Get("ru") != "text" {
		t.Errorf("plain form should serve any language")
	}

	byLang := FlexibleText{ByLang: map[string]string{"en": "hello"}}
	if byLang.Get("en") != "hello" {
		t.Errorf("exact language lookup failed")
	}
	if byLang.Get("ru") != "hello" {
		t.Errorf("expected any-language fallback, got %q", byLang.Get("ru"))
	}

	var empty FlexibleText
	if !empty.IsEmpty() || empty.Get("en") != "" {
		t.Errorf("empty text should report empty")
	}
}

func TestFlexibleText_UnmarshalToleratesWrongTypes(t *testing.T) {
	raw := `{"news": [{"title": 42, "summary": ["a"], "source_url": "u"}]}`
	p := ExtractNews(raw)
	if len(p.News) != 1 {
		t.Fatalf("payload with odd field types should still parse, got %d items", len(p.News))
	}
	if !p.News[0].Title.IsEmpty() {
		t.Errorf("numeric title should be treated as absent")
	}
}
