package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hvacnews/internal/domain"
)

func TestTelegram_Disabled(t *testing.T) {
	if NewTelegram("", "").Enabled() {
		t.Errorf("empty credentials must disable notifications")
	}
	if NewTelegram("token", "").Enabled() {
		t.Errorf("missing chat id must disable notifications")
	}
	// Must be a silent no-op.
	NewTelegram("", "").NotifyRunFinished(context.Background(), domain.SearchSources, &domain.DiscoveryRun{})
}

func TestTelegram_SendsRunSummary(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/bottok/sendMessage") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42")
	tg.apiURL = srv.URL

	run := &domain.DiscoveryRun{
		NewsFound:        3,
		TargetsProcessed: 5,
		StartedAt:        time.Now().Add(-time.Minute),
		FinishedAt:       time.Now(),
		EstimatedCostUSD: 0.1234,
	}
	tg.NotifyRunFinished(context.Background(), domain.SearchSources, run)

	if got["chat_id"] != "42" {
		t.Errorf("chat_id = %v", got["chat_id"])
	}
	text, _ := got["text"].(string)
	if !strings.Contains(text, "News found: 3") || !strings.Contains(text, "$0.1234") {
		t.Errorf("summary text = %q", text)
	}
	if !strings.Contains(text, "24.3 news/$") {
		t.Errorf("summary must carry the news-per-dollar efficiency: %q", text)
	}
}

func TestTelegram_RetriesThenGivesUp(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42")
	tg.apiURL = srv.URL

	if err := tg.send(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != maxRetries {
		t.Errorf("attempts = %d, want %d", calls, maxRetries)
	}
}
