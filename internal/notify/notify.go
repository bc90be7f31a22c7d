// Package notify posts discovery run summaries to a Telegram chat.
// Disabled (a no-op) when the token or chat id is not configured.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hvacnews/internal/domain"
	"hvacnews/internal/logger"
)

const maxRetries = 3

type Telegram struct {
	token      string
	chatID     string
	apiURL     string
	httpClient *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:      token,
		chatID:     chatID,
		apiURL:     "https://api.telegram.org",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether credentials are configured.
func (t *Telegram) Enabled() bool {
	return t.token != "" && t.chatID != ""
}

// NotifyRunFinished formats and sends the batch summary. Failures are
// logged; notification is never allowed to fail a run.
func (t *Telegram) NotifyRunFinished(ctx context.Context, searchType domain.SearchType, run *domain.DiscoveryRun) {
	if !t.Enabled() {
		return
	}

	text := fmt.Sprintf(
		"<b>Discovery finished</b> (%s)\n"+
			"News found: %d\n"+
			"Duplicates: %d\n"+
			"Targets: %d processed, %d failed\n"+
			"Requests: %d (%d in / %d out tokens)\n"+
			"Cost: $%.4f (%.1f news/$)\n"+
			"Duration: %s",
		searchType, run.NewsFound, run.NewsDuplicates,
		run.TargetsProcessed, run.TargetsFailed,
		run.TotalRequests, run.TotalInputTokens, run.TotalOutputTokens,
		run.EstimatedCostUSD, run.Efficiency(),
		run.Duration().Round(time.Second))

	if err := t.send(ctx, text); err != nil {
		logger.Error("failed to send run summary", "error", err)
	}
}

// send retries with exponential backoff, the same discipline as the
// rest of our Telegram traffic.
func (t *Telegram) send(ctx context.Context, text string) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = t.sendOnce(ctx, text)
		if lastErr == nil {
			logger.Debug("telegram message sent", "attempt", attempt)
			return nil
		}
		logger.Warn("telegram send failed", "attempt", attempt, "error", lastErr)

		if attempt < maxRetries {
			wait := time.Duration(1<<attempt) * time.Second
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed to send after %d tries: %w", maxRetries, lastErr)
}

func (t *Telegram) sendOnce(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)

	payload := map[string]interface{}{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}
	return nil
}
