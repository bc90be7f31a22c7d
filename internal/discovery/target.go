package discovery

import (
	"context"
	"fmt"
	"time"

	"hvacnews/internal/domain"
	"hvacnews/internal/llmparse"
	"hvacnews/internal/prompt"
)

// target abstracts over the two discoverable kinds. Sentinel texts and
// item mapping differ per kind; the orchestrator logic does not.
type target interface {
	id() int64
	label() string
	sourceID() int64
	manufacturerID() int64
	domainHint() string
	prompt(windowStart, windowEnd time.Time) string
	newsItem(raw llmparse.Item, now time.Time) *domain.NewsItem
	noNewsSentinel(windowStart, windowEnd, now time.Time) *domain.NewsItem
	errorSentinel(errorMessage string, now time.Time) *domain.NewsItem
	statistics(ctx context.Context, store Store) (*domain.Statistics, error)
}

const untitled = "Без заголовка"

func sentinelDate(d time.Time) string { return d.Format("02.01.2006") }

type sourceTarget struct {
	src domain.NewsSource
}

func (t sourceTarget) id() int64             { return t.src.ID }
func (t sourceTarget) label() string         { return fmt.Sprintf("source %d (%s)", t.src.ID, t.src.Name) }
func (t sourceTarget) sourceID() int64       { return t.src.ID }
func (t sourceTarget) manufacturerID() int64 { return 0 }
func (t sourceTarget) domainHint() string    { return prompt.ExtractDomain(t.src.URL) }

func (t sourceTarget) prompt(windowStart, windowEnd time.Time) string {
	return prompt.ForSource(t.src, windowStart, windowEnd)
}

func (t sourceTarget) statistics(ctx context.Context, store Store) (*domain.Statistics, error) {
	return store.StatisticsForSource(ctx, t.src.ID)
}

// newsItem maps one parsed entry to a draft. The canonical record is
// Russian; when the source language differs, its rendering is kept as a
// translation.
func (t sourceTarget) newsItem(raw llmparse.Item, now time.Time) *domain.NewsItem {
	lang := t.src.Language
	if lang == "" {
		lang = domain.LangEN
	}

	titleRU := raw.Title.Get(string(domain.LangRU))
	if titleRU == "" {
		titleRU = untitled
	}
	bodyRU := raw.Summary.Get(string(domain.LangRU))

	sourceURL := raw.SourceURL
	if sourceURL == "" {
		sourceURL = t.src.URL
	}

	item := &domain.NewsItem{
		Title:          titleRU,
		Body:           bodyRU,
		SourceURL:      sourceURL,
		SourceID:       t.src.ID,
		Status:         domain.StatusDraft,
		SourceLanguage: lang,
		PubDate:        now,
	}

	if lang != domain.LangRU {
		title := raw.Title.Get(string(lang))
		body := raw.Summary.Get(string(lang))
		if title != "" || body != "" {
			item.Translations = domain.Translations{
				lang: {Title: title, Body: body},
			}
		}
	}
	return item
}

func (t sourceTarget) noNewsSentinel(windowStart, windowEnd, now time.Time) *domain.NewsItem {
	start, end := sentinelDate(windowStart), sentinelDate(windowEnd)
	return &domain.NewsItem{
		Title:          fmt.Sprintf("Новостей от источника '%s' не найдено", t.src.Name),
		Body:           fmt.Sprintf("За период с %s по %s на ресурсе [%s](%s) новостей не обнаружено.", start, end, t.src.Name, t.src.URL),
		SourceURL:      t.src.URL,
		SourceID:       t.src.ID,
		Status:         domain.StatusDraft,
		SourceLanguage: domain.LangRU,
		NoNewsFound:    true,
		PubDate:        now,
		Translations: domain.Translations{
			domain.LangEN: {
				Title: fmt.Sprintf("No news found from source '%s'", t.src.Name),
				Body:  fmt.Sprintf("For the period from %s to %s, no news was found on the resource [%s](%s).", start, end, t.src.Name, t.src.URL),
			},
			domain.LangDE: {
				Title: fmt.Sprintf("Keine Nachrichten von Quelle '%s' gefunden", t.src.Name),
				Body:  fmt.Sprintf("Für den Zeitraum vom %s bis %s wurden auf der Ressource [%s](%s) keine Nachrichten gefunden.", start, end, t.src.Name, t.src.URL),
			},
			domain.LangPT: {
				Title: fmt.Sprintf("Nenhuma notícia encontrada da fonte '%s'", t.src.Name),
				Body:  fmt.Sprintf("No período de %s a %s, nenhuma notícia foi encontrada no recurso [%s](%s).", start, end, t.src.Name, t.src.URL),
			},
		},
	}
}

func (t sourceTarget) errorSentinel(errorMessage string, now time.Time) *domain.NewsItem {
	return &domain.NewsItem{
		Title:          fmt.Sprintf("Ошибка при поиске новостей от источника '%s'", t.src.Name),
		Body:           fmt.Sprintf("При попытке получить новости с ресурса [%s](%s) произошла ошибка:\n\n%s", t.src.Name, t.src.URL, errorMessage),
		SourceURL:      t.src.URL,
		SourceID:       t.src.ID,
		Status:         domain.StatusDraft,
		SourceLanguage: domain.LangRU,
		PubDate:        now,
		Translations: domain.Translations{
			domain.LangEN: {
				Title: fmt.Sprintf("Error searching news from source '%s'", t.src.Name),
				Body:  fmt.Sprintf("An error occurred while trying to get news from resource [%s](%s):\n\n%s", t.src.Name, t.src.URL, errorMessage),
			},
			domain.LangDE: {
				Title: fmt.Sprintf("Fehler bei der Suche nach Nachrichten von Quelle '%s'", t.src.Name),
				Body:  fmt.Sprintf("Beim Versuch, Nachrichten von der Ressource [%s](%s) zu erhalten, ist ein Fehler aufgetreten:\n\n%s", t.src.Name, t.src.URL, errorMessage),
			},
			domain.LangPT: {
				Title: fmt.Sprintf("Erro ao buscar notícias da fonte '%s'", t.src.Name),
				Body:  fmt.Sprintf("Ocorreu um erro ao tentar obter notícias do recurso [%s](%s):\n\n%s", t.src.Name, t.src.URL, errorMessage),
			},
		},
	}
}

type manufacturerTarget struct {
	m domain.Manufacturer
}

func (t manufacturerTarget) id() int64             { return t.m.ID }
func (t manufacturerTarget) label() string         { return fmt.Sprintf("manufacturer %d (%s)", t.m.ID, t.m.Name) }
func (t manufacturerTarget) sourceID() int64       { return 0 }
func (t manufacturerTarget) manufacturerID() int64 { return t.m.ID }

// Manufacturer searches span several websites, so the scoping lives in
// the prompt itself rather than a single-domain hint.
func (t manufacturerTarget) domainHint() string { return "" }

func (t manufacturerTarget) prompt(windowStart, windowEnd time.Time) string {
	return prompt.ForManufacturer(t.m, windowStart, windowEnd)
}

func (t manufacturerTarget) statistics(ctx context.Context, store Store) (*domain.Statistics, error) {
	return store.StatisticsForManufacturer(ctx, t.m.ID)
}

func (t manufacturerTarget) website() string {
	if len(t.m.Websites) > 0 {
		return t.m.Websites[0]
	}
	return ""
}

func (t manufacturerTarget) newsItem(raw llmparse.Item, now time.Time) *domain.NewsItem {
	titleRU := raw.Title.Get(string(domain.LangRU))
	if titleRU == "" {
		titleRU = untitled
	}

	sourceURL := raw.SourceURL
	if sourceURL == "" {
		sourceURL = t.website()
	}

	item := &domain.NewsItem{
		Title:          titleRU,
		Body:           raw.Summary.Get(string(domain.LangRU)),
		SourceURL:      sourceURL,
		ManufacturerID: t.m.ID,
		Status:         domain.StatusDraft,
		SourceLanguage: domain.LangEN,
		PubDate:        now,
	}

	titleEN := raw.Title.Get(string(domain.LangEN))
	bodyEN := raw.Summary.Get(string(domain.LangEN))
	if titleEN != "" || bodyEN != "" {
		item.Translations = domain.Translations{
			domain.LangEN: {Title: titleEN, Body: bodyEN},
		}
	}
	return item
}

func (t manufacturerTarget) noNewsSentinel(windowStart, windowEnd, now time.Time) *domain.NewsItem {
	start, end := sentinelDate(windowStart), sentinelDate(windowEnd)
	return &domain.NewsItem{
		Title:          fmt.Sprintf("Новостей о производителе '%s' не найдено", t.m.Name),
		Body:           fmt.Sprintf("За период с %s по %s новостей о производителе %s не обнаружено.", start, end, t.m.Name),
		SourceURL:      t.website(),
		ManufacturerID: t.m.ID,
		Status:         domain.StatusDraft,
		SourceLanguage: domain.LangRU,
		NoNewsFound:    true,
		PubDate:        now,
		Translations: domain.Translations{
			domain.LangEN: {
				Title: fmt.Sprintf("No news found about manufacturer '%s'", t.m.Name),
				Body:  fmt.Sprintf("For the period from %s to %s, no news was found about manufacturer %s.", start, end, t.m.Name),
			},
			domain.LangDE: {
				Title: fmt.Sprintf("Keine Nachrichten über Hersteller '%s' gefunden", t.m.Name),
				Body:  fmt.Sprintf("Für den Zeitraum vom %s bis %s wurden keine Nachrichten über Hersteller %s gefunden.", start, end, t.m.Name),
			},
			domain.LangPT: {
				Title: fmt.Sprintf("Nenhuma notícia encontrada sobre o fabricante '%s'", t.m.Name),
				Body:  fmt.Sprintf("No período de %s a %s, nenhuma notícia foi encontrada sobre o fabricante %s.", start, end, t.m.Name),
			},
		},
	}
}

func (t manufacturerTarget) errorSentinel(errorMessage string, now time.Time) *domain.NewsItem {
	return &domain.NewsItem{
		Title:          fmt.Sprintf("Ошибка при поиске новостей о производителе '%s'", t.m.Name),
		Body:           fmt.Sprintf("При попытке получить новости о производителе %s произошла ошибка:\n\n%s", t.m.Name, errorMessage),
		SourceURL:      t.website(),
		ManufacturerID: t.m.ID,
		Status:         domain.StatusDraft,
		SourceLanguage: domain.LangRU,
		PubDate:        now,
		Translations: domain.Translations{
			domain.LangEN: {
				Title: fmt.Sprintf("Error searching news about manufacturer '%s'", t.m.Name),
				Body:  fmt.Sprintf("An error occurred while trying to get news about manufacturer %s:\n\n%s", t.m.Name, errorMessage),
			},
			domain.LangDE: {
				Title: fmt.Sprintf("Fehler bei der Suche nach Nachrichten über Hersteller '%s'", t.m.Name),
				Body:  fmt.Sprintf("Beim Versuch, Nachrichten über Hersteller %s zu erhalten, ist ein Fehler aufgetreten:\n\n%s", t.m.Name, errorMessage),
			},
			domain.LangPT: {
				Title: fmt.Sprintf("Erro ao buscar notícias sobre o fabricante '%s'", t.m.Name),
				Body:  fmt.Sprintf("Ocorreu um erro ao tentar obter notícias sobre o fabricante %s:\n\n%s", t.m.Name, errorMessage),
			},
		},
	}
}
