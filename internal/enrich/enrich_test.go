package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"hvacnews/internal/domain"
)

type fakeStore struct {
	updated map[int64]string
}

func (f *fakeStore) UpdateNewsBody(ctx context.Context, id int64, body string) error {
	if f.updated == nil {
		f.updated = make(map[int64]string)
	}
	f.updated[id] = body
	return nil
}

const pageHTML = `<html><head>
<title>Plain Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="An OG description of the article.">
<meta name="description" content="Plain description.">
</head><body></body></html>`

func TestEnrichDraft_FillsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageHTML))
	}))
	defer srv.Close()

	store := &fakeStore{}
	e := New(store)
	item := &domain.NewsItem{ID: 5, SourceURL: srv.URL}

	if err := e.EnrichDraft(context.Background(), item); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if item.Body != "An OG description of the article." {
		t.Errorf("body = %q", item.Body)
	}
	if store.updated[5] != item.Body {
		t.Errorf("body not persisted")
	}
}

func TestEnrichDraft_SkipsSentinelsAndFilledBodies(t *testing.T) {
	store := &fakeStore{}
	e := New(store)

	for _, item := range []*domain.NewsItem{
		{ID: 1, SourceURL: "https://example.com", NoNewsFound: true},
		{ID: 2, SourceURL: "https://example.com", Body: "already filled"},
		{ID: 3},
	} {
		if err := e.EnrichDraft(context.Background(), item); err != nil {
			t.Errorf("item %d: unexpected error %v", item.ID, err)
		}
	}
	if len(store.updated) != 0 {
		t.Errorf("no item should have been updated, got %v", store.updated)
	}
}

func TestEnrichDraft_FallsBackToMetaDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta name="description" content="Meta only."></head></html>`))
	}))
	defer srv.Close()

	e := New(&fakeStore{})
	item := &domain.NewsItem{ID: 1, SourceURL: srv.URL}
	if err := e.EnrichDraft(context.Background(), item); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if item.Body != "Meta only." {
		t.Errorf("body = %q", item.Body)
	}
}

func TestPageTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageHTML))
	}))
	defer srv.Close()

	e := New(&fakeStore{})
	title, err := e.PageTitle(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("page title failed: %v", err)
	}
	if title != "OG Title" {
		t.Errorf("title = %q", title)
	}
}
