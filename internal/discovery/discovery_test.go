package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"hvacnews/internal/domain"
	"hvacnews/internal/provider"
)

// fakeStore is an in-memory Store for orchestrator tests.
type fakeStore struct {
	sources       []domain.NewsSource
	manufacturers []domain.Manufacturer

	items    []*domain.NewsItem
	calls    []*domain.APICallRecord
	existing map[string]bool

	stats map[string]*domain.Statistics

	watermark    time.Time
	run          *domain.DiscoveryRun
	finished     bool
	newWatermark time.Time

	progress     []int
	statusStates []domain.BatchState

	failCreate bool
	failFinish bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		existing: make(map[string]bool),
		stats:    make(map[string]*domain.Statistics),
	}
}

func (f *fakeStore) DiscoverableSources(ctx context.Context) ([]domain.NewsSource, error) {
	return f.sources, nil
}

func (f *fakeStore) Manufacturers(ctx context.Context) ([]domain.Manufacturer, error) {
	return f.manufacturers, nil
}

func (f *fakeStore) CreateNewsItem(ctx context.Context, item *domain.NewsItem) error {
	if f.failCreate && !item.NoNewsFound {
		return errors.New("insert failed")
	}
	item.ID = int64(len(f.items) + 1)
	item.CreatedAt = time.Now()
	f.items = append(f.items, item)
	return nil
}

func (f *fakeStore) NewsExistsByURL(ctx context.Context, sourceURL string) (bool, error) {
	return f.existing[sourceURL], nil
}

func (f *fakeStore) StartRun(ctx context.Context, watermark time.Time, snapshot map[string]any) (*domain.DiscoveryRun, error) {
	f.run = &domain.DiscoveryRun{
		ID:             1,
		LastSearchDate: watermark,
		ConfigSnapshot: snapshot,
		StartedAt:      time.Now(),
		ProviderStats:  make(map[string]domain.ProviderStat),
	}
	return f.run, nil
}

func (f *fakeStore) SaveRunCounters(ctx context.Context, run *domain.DiscoveryRun) error { return nil }

func (f *fakeStore) FinishRun(ctx context.Context, run *domain.DiscoveryRun, newWatermark time.Time) error {
	if f.failFinish {
		return errors.New("finish failed")
	}
	run.FinishedAt = time.Now()
	f.finished = true
	f.newWatermark = newWatermark
	return nil
}

func (f *fakeStore) LastSearchDate(ctx context.Context) (time.Time, error) {
	return f.watermark, nil
}

func (f *fakeStore) InsertAPICall(ctx context.Context, rec *domain.APICallRecord) error {
	f.calls = append(f.calls, rec)
	return nil
}

func (f *fakeStore) CreateStatus(ctx context.Context, searchType domain.SearchType, total int, provider string) (*domain.DiscoveryStatus, error) {
	return &domain.DiscoveryStatus{ID: 1, SearchType: searchType, TotalCount: total, Status: domain.BatchRunning, Provider: provider}, nil
}

func (f *fakeStore) UpdateStatusProgress(ctx context.Context, id int64, processed int) error {
	f.progress = append(f.progress, processed)
	return nil
}

func (f *fakeStore) SetStatusState(ctx context.Context, id int64, state domain.BatchState) error {
	f.statusStates = append(f.statusStates, state)
	return nil
}

func (f *fakeStore) StatisticsForSource(ctx context.Context, sourceID int64) (*domain.Statistics, error) {
	return f.statisticsFor(fmt.Sprintf("s:%d", sourceID), sourceID, 0), nil
}

func (f *fakeStore) StatisticsForManufacturer(ctx context.Context, manufacturerID int64) (*domain.Statistics, error) {
	return f.statisticsFor(fmt.Sprintf("m:%d", manufacturerID), 0, manufacturerID), nil
}

func (f *fakeStore) statisticsFor(key string, sourceID, manufacturerID int64) *domain.Statistics {
	if st, ok := f.stats[key]; ok {
		return st
	}
	st := &domain.Statistics{SourceID: sourceID, ManufacturerID: manufacturerID}
	f.stats[key] = st
	return st
}

func (f *fakeStore) SaveStatistics(ctx context.Context, st *domain.Statistics) error { return nil }

func (f *fakeStore) RefreshStatisticsWindows(ctx context.Context, st *domain.Statistics, now time.Time) error {
	count := 0
	for _, item := range f.items {
		if item.NoNewsFound {
			continue
		}
		if (st.SourceID != 0 && item.SourceID == st.SourceID) ||
			(st.ManufacturerID != 0 && item.ManufacturerID == st.ManufacturerID) {
			count++
		}
	}
	st.NewsLast30Days = count
	st.NewsLast90Days = count
	st.RecalculateScore()
	return nil
}

// fakeProvider returns scripted results.
type fakeProvider struct {
	name  string
	calls int
	fn    func(call int) (*provider.Result, error)
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Model() string { return p.name + "-model" }

func (p *fakeProvider) Query(ctx context.Context, prompt, domainHint string) (*provider.Result, error) {
	p.calls++
	return p.fn(p.calls)
}

func newsJSON(n int) string {
	var b strings.Builder
	b.WriteString(`{"news": [`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"title": "Новость %d", "summary": "Текст %d", "source_url": "https://example.com/%d"}`, i, i, i)
	}
	b.WriteString(`]}`)
	return b.String()
}

func okProvider(name, text string) *fakeProvider {
	return &fakeProvider{name: name, fn: func(int) (*provider.Result, error) {
		return &provider.Result{RawText: text, InputTokens: 100, OutputTokens: 50}, nil
	}}
}

func failProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, fn: func(int) (*provider.Result, error) {
		return nil, &provider.Error{Provider: name, Err: errors.New("boom")}
	}}
}

func testService(store *fakeStore, providers ...provider.Provider) *Service {
	cfg := domain.DefaultConfiguration()
	cfg.DelayBetweenRequests = 0
	return New(store, cfg, providers)
}

func oneSource() domain.NewsSource {
	return domain.NewsSource{ID: 7, Name: "Портал", URL: "https://example.com", Language: domain.LangRU, SourceType: domain.SourceTypeAuto}
}

func TestDiscoverAllSources_CreatesNewsItems(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}

	svc := testService(store, okProvider("grok", newsJSON(2)))
	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(store.items) != 2 {
		t.Fatalf("items created = %d, want 2", len(store.items))
	}
	for _, item := range store.items {
		if item.Status != domain.StatusDraft {
			t.Errorf("discovery must create drafts, got %s", item.Status)
		}
		if item.SourceID != 7 {
			t.Errorf("item not linked to source: %d", item.SourceID)
		}
		if item.NoNewsFound {
			t.Errorf("real item flagged as sentinel")
		}
	}

	if run.NewsFound != 2 || run.TargetsProcessed != 1 || run.TargetsFailed != 0 {
		t.Errorf("run counters: found=%d processed=%d failed=%d", run.NewsFound, run.TargetsProcessed, run.TargetsFailed)
	}
	if !store.finished {
		t.Errorf("run was not finished")
	}
	if store.newWatermark.IsZero() {
		t.Errorf("watermark was not advanced")
	}

	st := store.stats["s:7"]
	if st == nil || st.TotalSearches != 1 || st.TotalNewsFound != 2 {
		t.Errorf("statistics not applied once: %+v", st)
	}
	if len(store.statusStates) == 0 || store.statusStates[len(store.statusStates)-1] != domain.BatchCompleted {
		t.Errorf("status states = %v", store.statusStates)
	}
}

func TestDiscoverAllSources_NoNewsSentinel(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}

	svc := testService(store, okProvider("grok", `{"news": []}`))
	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(store.items) != 1 {
		t.Fatalf("items = %d, want exactly 1 sentinel", len(store.items))
	}
	sentinel := store.items[0]
	if !sentinel.NoNewsFound {
		t.Errorf("sentinel not flagged")
	}
	if sentinel.Status != domain.StatusDraft {
		t.Errorf("sentinel must be a draft")
	}
	if _, ok := sentinel.Translations[domain.LangDE]; !ok {
		t.Errorf("sentinel must carry localized translations")
	}
	if run.NewsFound != 0 {
		t.Errorf("sentinels must not count as found news")
	}

	st := store.stats["s:7"]
	if st.TotalNoNews != 1 || st.TotalNewsFound != 0 {
		t.Errorf("no-news bucket not applied: %+v", st)
	}
}

func TestDiscoverAllSources_AllProvidersFailRetriesOnce(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}

	p1 := failProvider("grok")
	p2 := failProvider("anthropic")
	svc := testService(store, p1, p2)

	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("per-target failures must not fail the batch: %v", err)
	}

	// One retry pass: each provider queried twice for the same target.
	if p1.calls != 2 || p2.calls != 2 {
		t.Errorf("provider calls = %d/%d, want 2/2 (exactly one retry)", p1.calls, p2.calls)
	}
	if run.TargetsFailed != 2 || run.TargetsProcessed != 2 {
		t.Errorf("failed=%d processed=%d", run.TargetsFailed, run.TargetsProcessed)
	}

	// Each failed pass records an error sentinel carrying the chain.
	if len(store.items) != 2 {
		t.Fatalf("error records = %d, want 2", len(store.items))
	}
	if !strings.Contains(store.items[0].Body, "grok") || !strings.Contains(store.items[0].Body, "anthropic") {
		t.Errorf("error body must carry the provider error chain: %q", store.items[0].Body)
	}

	st := store.stats["s:7"]
	if st.TotalErrors != 2 {
		t.Errorf("error bucket = %d, want 2 (one per pass)", st.TotalErrors)
	}

	// Failed provider calls are still tracked.
	if len(store.calls) != 4 {
		t.Errorf("api call records = %d, want 4", len(store.calls))
	}
}

func TestDiscoverAllSources_FallbackProviderUsed(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}

	primary := failProvider("grok")
	fallback := okProvider("anthropic", newsJSON(1))
	svc := testService(store, primary, fallback)

	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if run.NewsFound != 1 || run.TargetsFailed != 0 {
		t.Errorf("found=%d failed=%d", run.NewsFound, run.TargetsFailed)
	}
	if len(store.calls) != 2 {
		t.Fatalf("api calls = %d, want 2 (failure + success)", len(store.calls))
	}
	if store.calls[0].Provider != "grok" || store.calls[0].Success {
		t.Errorf("first call record = %+v", store.calls[0])
	}
	if store.calls[1].Provider != "anthropic" || !store.calls[1].Success {
		t.Errorf("second call record = %+v", store.calls[1])
	}
	if run.ProviderStats["grok"].Errors != 1 {
		t.Errorf("grok error not folded into provider stats")
	}
}

func TestDiscoverAllSources_DuplicatesSkipped(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}
	store.existing["https://example.com/0"] = true

	svc := testService(store, okProvider("grok", newsJSON(2)))
	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if run.NewsFound != 1 || run.NewsDuplicates != 1 {
		t.Errorf("found=%d duplicates=%d, want 1/1", run.NewsFound, run.NewsDuplicates)
	}
	if len(store.items) != 1 {
		t.Errorf("items = %d, want 1", len(store.items))
	}
}

func TestDiscoverAllSources_TruncatesToMaxNewsPerTarget(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}

	cfg := domain.DefaultConfiguration()
	cfg.DelayBetweenRequests = 0
	cfg.MaxNewsPerTarget = 3
	svc := New(store, cfg, []provider.Provider{okProvider("grok", newsJSON(10))})

	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if run.NewsFound != 3 || len(store.items) != 3 {
		t.Errorf("found=%d items=%d, want 3", run.NewsFound, len(store.items))
	}
}

func TestDiscoverAllSources_PerItemFailuresDoNotAbort(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}
	store.failCreate = true

	svc := testService(store, okProvider("grok", newsJSON(2)))
	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("item failures must not fail the batch: %v", err)
	}
	if run.NewsFound != 0 {
		t.Errorf("found=%d, want 0", run.NewsFound)
	}

	st := store.stats["s:7"]
	if st.TotalErrors != 1 {
		t.Errorf("item errors must land in the error bucket once: %+v", st)
	}
}

func TestDiscoverAllManufacturers_LinksManufacturer(t *testing.T) {
	store := newFakeStore()
	store.manufacturers = []domain.Manufacturer{{ID: 3, Name: "Daikin", Websites: []string{"https://daikin.com"}}}

	svc := testService(store, okProvider("grok", newsJSON(1)))
	if _, err := svc.DiscoverAllManufacturers(context.Background()); err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(store.items) != 1 {
		t.Fatalf("items = %d", len(store.items))
	}
	item := store.items[0]
	if item.ManufacturerID != 3 || item.SourceID != 0 {
		t.Errorf("item linkage: manufacturer=%d source=%d", item.ManufacturerID, item.SourceID)
	}

	st := store.stats["m:3"]
	if st == nil || st.TotalSearches != 1 {
		t.Errorf("manufacturer statistics not applied: %+v", st)
	}
}

func TestDiscoverAllSources_ManualSourcesExcluded(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{
		{ID: 1, Name: "Пресс-релизы", URL: "https://manual.example", Language: domain.LangRU, SourceType: domain.SourceTypeManual},
		oneSource(),
	}

	p := okProvider("grok", newsJSON(1))
	svc := testService(store, p)
	run, err := svc.DiscoverAllSources(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (manual sources never queried)", p.calls)
	}
	if run.TargetsProcessed != 1 {
		t.Errorf("targets processed = %d, want 1", run.TargetsProcessed)
	}
	for _, item := range store.items {
		if item.SourceID == 1 {
			t.Errorf("item created for a manual source: %+v", item)
		}
	}
	if _, ok := store.stats["s:1"]; ok {
		t.Errorf("statistics touched for a manual source")
	}
}

func TestDiscoverAllSources_FinishFailureMarksStatusError(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}
	store.failFinish = true

	svc := testService(store, okProvider("grok", newsJSON(1)))
	if _, err := svc.DiscoverAllSources(context.Background()); err == nil {
		t.Fatalf("expected the finish failure to propagate")
	}

	if len(store.statusStates) == 0 || store.statusStates[len(store.statusStates)-1] != domain.BatchError {
		t.Errorf("status states = %v, want error as the final state", store.statusStates)
	}
}

func TestDiscoverAllSources_TimeoutMarkedInErrorChain(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{oneSource()}

	timedOut := &fakeProvider{name: "grok", fn: func(int) (*provider.Result, error) {
		return nil, &provider.Error{Provider: "grok", Err: context.DeadlineExceeded}
	}}
	svc := testService(store, timedOut)

	if _, err := svc.DiscoverAllSources(context.Background()); err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(store.items) == 0 {
		t.Fatalf("expected an error record")
	}
	if !strings.Contains(store.items[0].Body, "(timeout)") {
		t.Errorf("deadline failures must be labeled in the chain: %q", store.items[0].Body)
	}
}

func TestDiscoverAllSources_ProgressReported(t *testing.T) {
	store := newFakeStore()
	store.sources = []domain.NewsSource{
		{ID: 1, Name: "A", URL: "https://a.example", Language: domain.LangEN, SourceType: domain.SourceTypeAuto},
		{ID: 2, Name: "B", URL: "https://b.example", Language: domain.LangEN, SourceType: domain.SourceTypeAuto},
	}

	svc := testService(store, okProvider("grok", `{"news": []}`))
	if _, err := svc.DiscoverAllSources(context.Background()); err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(store.progress) != 2 || store.progress[0] != 1 || store.progress[1] != 2 {
		t.Errorf("progress updates = %v, want [1 2]", store.progress)
	}
}
