// Package enrich fills empty draft bodies from the article page itself.
// Best effort only: discovery never depends on it succeeding.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hvacnews/internal/domain"
	"hvacnews/internal/logger"
)

// Store is the persistence surface the enricher needs.
type Store interface {
	UpdateNewsBody(ctx context.Context, id int64, body string) error
}

type Enricher struct {
	store      Store
	httpClient *http.Client
}

func New(store Store) *Enricher {
	return &Enricher{
		store:      store,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// EnrichDraft fetches the item's source page and fills an empty body
// with the page description. Sentinel records are never touched.
func (e *Enricher) EnrichDraft(ctx context.Context, item *domain.NewsItem) error {
	if item.NoNewsFound || item.Body != "" || item.SourceURL == "" {
		return nil
	}

	desc, err := e.pageDescription(ctx, item.SourceURL)
	if err != nil {
		return err
	}
	if desc == "" {
		return fmt.Errorf("no description found on page")
	}

	if err := e.store.UpdateNewsBody(ctx, item.ID, desc); err != nil {
		return err
	}
	item.Body = desc
	logger.Debug("draft enriched from page", "id", item.ID, "url", item.SourceURL)
	return nil
}

// pageDescription prefers OpenGraph metadata and falls back to the
// plain meta description.
func (e *Enricher) pageDescription(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	for _, sel := range []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if text := strings.TrimSpace(content); text != "" {
				return text, nil
			}
		}
	}
	return "", nil
}

// PageTitle extracts og:title, falling back to the <title> element.
func (e *Enricher) PageTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if text := strings.TrimSpace(content); text != "" {
			return text, nil
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}
