// Package prompt renders the localized search instructions sent to the
// LLM providers. Template sets are keyed by the source's content
// language and always end with a strict JSON output contract.
package prompt

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"hvacnews/internal/domain"
)

type templateSet struct {
	main       string // standard "find news on site X" framing
	period     string // bare period clause, used with custom instructions
	jsonFormat string // strict output contract
}

// ExtractDomain reduces a URL to a bare domain for search-engine
// scoping: protocol and www. stripped, path dropped.
func ExtractDomain(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		host := u.Host
		if host == "" {
			host = strings.Split(u.Path, "/")[0]
		}
		if host != "" {
			return strings.TrimPrefix(host, "www.")
		}
	}
	// Manual fallback when parsing fails outright.
	d := regexp.MustCompile(`^https?://`).ReplaceAllString(rawURL, "")
	d = strings.Split(d, "/")[0]
	return strings.TrimPrefix(d, "www.")
}

// formatDate renders an inclusive window boundary in the convention of
// the prompt language: DD.MM.YYYY for Russian, ISO otherwise.
func formatDate(d time.Time, lang domain.Language) string {
	if lang == domain.LangRU {
		return d.Format("02.01.2006")
	}
	return d.Format("2006-01-02")
}

// ForSource builds the search prompt for a news source. Hybrid sources
// with custom instructions keep only the period and JSON clauses; the
// standard framing is replaced entirely.
func ForSource(src domain.NewsSource, windowStart, windowEnd time.Time) string {
	lang := src.Language
	if lang == "" {
		lang = domain.LangEN
	}
	t := templatesFor(lang)
	start := formatDate(windowStart, lang)
	end := formatDate(windowEnd, lang)

	if src.CustomInstructions != "" {
		return fmt.Sprintf("%s\n\n%s\n%s",
			src.CustomInstructions,
			fmt.Sprintf(t.period, start, end),
			t.jsonFormat)
	}

	return fmt.Sprintf("%s\n%s",
		fmt.Sprintf(t.main, src.URL, src.Name, start, end),
		t.jsonFormat)
}

// ForManufacturer builds the prompt for a manufacturer search.
// Manufacturers are international, so the English template set is used
// regardless of region. With no listed websites the prompt states the
// absence and asks for a name-based web search instead of site scoping.
func ForManufacturer(m domain.Manufacturer, windowStart, windowEnd time.Time) string {
	t := templatesFor(domain.LangEN)
	start := windowStart.Format("2006-01-02")
	end := windowEnd.Format("2006-01-02")

	websites := make([]string, 0, len(m.Websites))
	for _, w := range m.Websites {
		if w != "" {
			websites = append(websites, w)
		}
	}

	if len(websites) == 0 {
		return fmt.Sprintf(`Find all news about manufacturer %s for the period from %s to %s inclusive.

The manufacturer has no official website on record. Use a broad web search by the manufacturer's name. Look for articles, publications, press releases and news about the manufacturer on industry publications, news portals or other sources for the specified period. For each found news item, find the title, news text (1-2 paragraphs) and source link.

%s`, m.Name, start, end, t.jsonFormat)
	}

	scopes := make([]string, len(websites))
	for i, w := range websites {
		scopes[i] = "site:" + ExtractDomain(w)
	}

	return fmt.Sprintf(`Find all news about manufacturer %s for the period from %s to %s inclusive.

Official manufacturer websites: %s (search scopes: %s)

Use web search to find news. Look for all articles, publications, press releases, news about the manufacturer published on these websites or other industry sources for the specified period. For each found news item, find the title, news text (1-2 paragraphs) and source link.

%s`, m.Name, start, end, strings.Join(websites, ", "), strings.Join(scopes, ", "), t.jsonFormat)
}

func templatesFor(lang domain.Language) templateSet {
	if t, ok := templates[lang]; ok {
		return t
	}
	return templates[domain.LangEN]
}
