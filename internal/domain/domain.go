// Package domain holds the core entities of the news backend:
// sources, manufacturers, news items and the discovery bookkeeping
// records (runs, API calls, statuses, statistics).
package domain

import "time"

// Language is a two-letter content language code.
type Language string

const (
	LangRU Language = "ru"
	LangEN Language = "en"
	LangES Language = "es"
	LangDE Language = "de"
	LangPT Language = "pt"
)

// SupportedLanguages lists the languages the prompt templates cover.
var SupportedLanguages = []Language{LangRU, LangEN, LangES, LangDE, LangPT}

// SourceType controls whether a source participates in automatic discovery.
type SourceType string

const (
	SourceTypeAuto   SourceType = "auto"
	SourceTypeManual SourceType = "manual" // never passed to discovery
	SourceTypeHybrid SourceType = "hybrid" // discovered with custom instructions
)

// NewsSource is an external site monitored for news.
type NewsSource struct {
	ID                 int64
	Name               string
	URL                string
	Language           Language
	SourceType         SourceType
	CustomInstructions string // hybrid sources carry their own search framing
	FeedURL            string // optional RSS/Atom feed, used by catalog import
	Description        string
}

// Discoverable reports whether automatic discovery may query this source.
func (s NewsSource) Discoverable() bool {
	return s.SourceType != SourceTypeManual
}

// Manufacturer is a company tracked for industry news. Up to three
// official websites; all manufacturers are searchable.
type Manufacturer struct {
	ID          int64
	Name        string
	Region      string
	Websites    []string // at most 3
	Description string
}

// NewsStatus is the editorial lifecycle of a news item.
type NewsStatus string

const (
	StatusDraft     NewsStatus = "draft"
	StatusScheduled NewsStatus = "scheduled"
	StatusPublished NewsStatus = "published"
)

// LocalizedText is one language's rendering of a news item.
type LocalizedText struct {
	Title string
	Body  string
}

// Translations maps a language code to its localized title/body.
// An explicit map instead of per-language columns keeps accessors typed.
type Translations map[Language]LocalizedText

// NewsItem is a persisted news record. Discovery always creates drafts;
// sentinel records ("no news found", "error") are drafts too and are
// flagged so the frontend can filter or bulk-delete them.
type NewsItem struct {
	ID             int64
	Title          string // canonical (Russian) title
	Body           string // canonical body, markdown
	SourceURL      string
	SourceID       int64 // 0 when not tied to a catalog source
	ManufacturerID int64 // 0 when not found via a manufacturer
	Status         NewsStatus
	SourceLanguage Language
	NoNewsFound    bool
	Translations   Translations
	PubDate        time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPublished reports whether the item is visible to site readers.
func (n NewsItem) IsPublished() bool {
	return n.Status == StatusPublished && !n.PubDate.After(time.Now())
}

// SearchType distinguishes the two batch flavors.
type SearchType string

const (
	SearchSources       SearchType = "sources"
	SearchManufacturers SearchType = "manufacturers"
)

// BatchState is the lifecycle of an in-flight discovery batch.
type BatchState string

const (
	BatchRunning     BatchState = "running"
	BatchCompleted   BatchState = "completed"
	BatchError       BatchState = "error"
	BatchInterrupted BatchState = "interrupted"
)

// DiscoveryStatus is the ephemeral progress row for the current batch.
// Creating a new status supersedes any still-running one.
type DiscoveryStatus struct {
	ID             int64
	SearchType     SearchType
	ProcessedCount int
	TotalCount     int
	Status         BatchState
	Provider       string // "auto" or a concrete provider name
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProgressPercent returns batch completion in [0,100].
func (s DiscoveryStatus) ProgressPercent() int {
	if s.TotalCount == 0 {
		return 0
	}
	return s.ProcessedCount * 100 / s.TotalCount
}

// ProviderStat is one provider's slice of a run's aggregate counters.
type ProviderStat struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	Errors       int     `json:"errors"`
}

// DiscoveryRun is one invocation of "search everything". Counters are
// mutated incrementally while the run is open and frozen once
// FinishedAt is set.
type DiscoveryRun struct {
	ID                int64
	LastSearchDate    time.Time // watermark snapshot at run start
	ConfigSnapshot    map[string]any
	StartedAt         time.Time
	FinishedAt        time.Time // zero while running
	TotalRequests     int
	TotalInputTokens  int
	TotalOutputTokens int
	EstimatedCostUSD  float64
	ProviderStats     map[string]ProviderStat
	NewsFound         int
	NewsDuplicates    int
	TargetsProcessed  int
	TargetsFailed     int
	CreatedAt         time.Time
}

// AddAPICall folds one provider call into the run aggregates.
func (r *DiscoveryRun) AddAPICall(provider string, inputTokens, outputTokens int, cost float64, success bool) {
	if r.ProviderStats == nil {
		r.ProviderStats = make(map[string]ProviderStat)
	}
	st := r.ProviderStats[provider]
	st.Requests++
	st.InputTokens += inputTokens
	st.OutputTokens += outputTokens
	st.Cost += cost
	if !success {
		st.Errors++
	}
	r.ProviderStats[provider] = st

	r.TotalRequests++
	r.TotalInputTokens += inputTokens
	r.TotalOutputTokens += outputTokens
	r.EstimatedCostUSD += cost
}

// Duration returns the elapsed run time, zero until finished.
func (r DiscoveryRun) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Efficiency is news found per dollar spent.
func (r DiscoveryRun) Efficiency() float64 {
	if r.EstimatedCostUSD <= 0 {
		return 0
	}
	return float64(r.NewsFound) / r.EstimatedCostUSD
}

// APICallRecord is one LLM request/response pair, append-only.
type APICallRecord struct {
	ID             int64
	RunID          int64
	SourceID       int64 // 0 when the call was for a manufacturer
	ManufacturerID int64
	Provider       string
	Model          string
	InputTokens    int
	OutputTokens   int
	CostUSD        float64
	Duration       time.Duration
	Success        bool
	ErrorMessage   string
	NewsExtracted  int
	CreatedAt      time.Time
}
