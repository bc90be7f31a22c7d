// Package discovery runs the LLM-backed news search over the source and
// manufacturer catalogs: one provider chain pass per target, sentinel
// records for empty or failed searches, rolling statistics and a single
// retry pass for failed targets.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hvacnews/internal/domain"
	"hvacnews/internal/llmparse"
	"hvacnews/internal/logger"
	"hvacnews/internal/metrics"
	"hvacnews/internal/provider"
	"hvacnews/internal/tracker"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	DiscoverableSources(ctx context.Context) ([]domain.NewsSource, error)
	Manufacturers(ctx context.Context) ([]domain.Manufacturer, error)

	CreateNewsItem(ctx context.Context, item *domain.NewsItem) error
	NewsExistsByURL(ctx context.Context, sourceURL string) (bool, error)

	StartRun(ctx context.Context, watermark time.Time, snapshot map[string]any) (*domain.DiscoveryRun, error)
	SaveRunCounters(ctx context.Context, run *domain.DiscoveryRun) error
	FinishRun(ctx context.Context, run *domain.DiscoveryRun, newWatermark time.Time) error
	LastSearchDate(ctx context.Context) (time.Time, error)
	InsertAPICall(ctx context.Context, rec *domain.APICallRecord) error

	CreateStatus(ctx context.Context, searchType domain.SearchType, total int, provider string) (*domain.DiscoveryStatus, error)
	UpdateStatusProgress(ctx context.Context, id int64, processed int) error
	SetStatusState(ctx context.Context, id int64, state domain.BatchState) error

	StatisticsForSource(ctx context.Context, sourceID int64) (*domain.Statistics, error)
	StatisticsForManufacturer(ctx context.Context, manufacturerID int64) (*domain.Statistics, error)
	SaveStatistics(ctx context.Context, st *domain.Statistics) error
	RefreshStatisticsWindows(ctx context.Context, st *domain.Statistics, now time.Time) error
}

// Notifier receives the run summary after a batch. Optional.
type Notifier interface {
	NotifyRunFinished(ctx context.Context, searchType domain.SearchType, run *domain.DiscoveryRun)
}

// Enricher fills empty draft bodies from the source page. Optional.
type Enricher interface {
	EnrichDraft(ctx context.Context, item *domain.NewsItem) error
}

// Service is the discovery orchestrator. Single writer, no internal
// parallelism: targets are processed strictly one at a time.
type Service struct {
	store     Store
	cfg       domain.SearchConfiguration
	providers []provider.Provider
	notifier  Notifier
	enricher  Enricher
	now       func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option        { return func(s *Service) { s.notifier = n } }
func WithEnricher(e Enricher) Option        { return func(s *Service) { s.enricher = e } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(store Store, cfg domain.SearchConfiguration, providers []provider.Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		cfg:       cfg,
		providers: providers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// outcome is the aggregate result of one pass over one target.
type outcome struct {
	created    int
	duplicates int
	itemErrors int
	isNoNews   bool
	// failed is set when no provider produced a response; the target
	// is eligible for the retry queue.
	failed bool
}

// DiscoverAllSources walks every discoverable source once, then replays
// failed sources exactly once. Returns the finished run. Manual sources
// are excluded here too, in case the store hands back an unfiltered set.
func (s *Service) DiscoverAllSources(ctx context.Context) (*domain.DiscoveryRun, error) {
	sources, err := s.store.DiscoverableSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	targets := make([]target, 0, len(sources))
	for _, src := range sources {
		if !src.Discoverable() {
			logger.Warn("manual source excluded from discovery", "source", src.Name)
			continue
		}
		targets = append(targets, sourceTarget{src: src})
	}
	return s.runBatch(ctx, domain.SearchSources, targets)
}

// DiscoverAllManufacturers is the manufacturer counterpart.
func (s *Service) DiscoverAllManufacturers(ctx context.Context) (*domain.DiscoveryRun, error) {
	manufacturers, err := s.store.Manufacturers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load manufacturers: %w", err)
	}

	targets := make([]target, len(manufacturers))
	for i := range manufacturers {
		targets[i] = manufacturerTarget{m: manufacturers[i]}
	}
	return s.runBatch(ctx, domain.SearchManufacturers, targets)
}

func (s *Service) runBatch(ctx context.Context, searchType domain.SearchType, targets []target) (*domain.DiscoveryRun, error) {
	now := s.now()

	watermark, err := s.store.LastSearchDate(ctx)
	if err != nil {
		return nil, err
	}
	if watermark.IsZero() {
		watermark = now
	}

	run, err := s.store.StartRun(ctx, watermark, s.cfg.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	metrics.Global.IncrementRunsStarted()

	providerLabel := domain.ProviderAuto
	if len(s.providers) == 1 {
		providerLabel = s.providers[0].Name()
	}
	status, err := s.store.CreateStatus(ctx, searchType, len(targets), providerLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}

	tr := tracker.New(s.store, s.cfg, run)
	log := logger.With("type", string(searchType), "run_id", run.ID)
	log.Info("discovery batch started",
		"targets", len(targets), "provider", providerLabel,
		"window_start", watermark.Format("2006-01-02"))

	batchErr := s.processQueue(ctx, targets, run, tr, status, watermark, now)
	if batchErr != nil {
		// Batch-fatal: abandon the run, keep partial progress.
		if err := s.store.SetStatusState(ctx, status.ID, domain.BatchError); err != nil {
			logger.Error("failed to mark status as error", "error", err)
		}
		if err := s.store.SaveRunCounters(ctx, run); err != nil {
			logger.Error("failed to save run counters", "error", err)
		}
		metrics.Global.SetError(batchErr.Error())
		return run, batchErr
	}

	if err := s.store.FinishRun(ctx, run, now); err != nil {
		if serr := s.store.SetStatusState(ctx, status.ID, domain.BatchError); serr != nil {
			logger.Error("failed to mark status as error", "error", serr)
		}
		metrics.Global.SetError(err.Error())
		return run, err
	}
	if err := s.store.SetStatusState(ctx, status.ID, domain.BatchCompleted); err != nil {
		logger.Error("failed to mark status as completed", "error", err)
	}

	metrics.Global.SetRunCompleted()
	metrics.Global.RecordRunDuration(run.Duration())
	log.Info("discovery batch finished",
		"news_found", run.NewsFound, "duplicates", run.NewsDuplicates,
		"processed", run.TargetsProcessed, "failed", run.TargetsFailed,
		"cost_usd", fmt.Sprintf("%.4f", run.EstimatedCostUSD))

	if s.notifier != nil {
		s.notifier.NotifyRunFinished(ctx, searchType, run)
	}
	return run, nil
}

// processQueue drains the FIFO target queue, then replays failed
// targets exactly once. The retry queue is idempotent: a target is
// queued at most one time regardless of how it failed.
func (s *Service) processQueue(ctx context.Context, targets []target, run *domain.DiscoveryRun, tr *tracker.Tracker, status *domain.DiscoveryStatus, windowStart, windowEnd time.Time) error {
	var retry []target
	queued := make(map[int64]bool, len(targets))
	processed := 0

	runPass := func(queue []target, isRetry bool) error {
		for _, t := range queue {
			if err := ctx.Err(); err != nil {
				return err
			}

			out := s.processTarget(ctx, t, run, tr, windowStart, windowEnd)

			run.NewsFound += out.created
			run.NewsDuplicates += out.duplicates
			run.TargetsProcessed++
			if out.failed {
				run.TargetsFailed++
				if !isRetry && !queued[t.id()] {
					queued[t.id()] = true
					retry = append(retry, t)
					logger.Warn("target queued for retry", "target", t.label())
				}
			}

			processed++
			if err := s.store.UpdateStatusProgress(ctx, status.ID, processed); err != nil {
				logger.Error("failed to update progress", "error", err)
			}
			if err := s.store.SaveRunCounters(ctx, run); err != nil {
				logger.Error("failed to flush run counters", "error", err)
			}

			if s.cfg.DelayBetweenRequests > 0 {
				select {
				case <-time.After(s.cfg.DelayBetweenRequests):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	}

	if err := runPass(targets, false); err != nil {
		return err
	}
	if len(retry) > 0 {
		logger.Info("retrying failed targets", "count", len(retry))
		if err := runPass(retry, true); err != nil {
			return err
		}
	}
	return nil
}

// processTarget is the per-target state machine: provider chain, item
// or sentinel creation, statistics. Never returns an error; everything
// short of a batch-fatal condition is absorbed into the outcome.
func (s *Service) processTarget(ctx context.Context, t target, run *domain.DiscoveryRun, tr *tracker.Tracker, windowStart, windowEnd time.Time) outcome {
	now := s.now()
	searchPrompt := t.prompt(windowStart, windowEnd)

	result, providerName, errChain := s.queryChain(ctx, t, tr, searchPrompt)

	var out outcome
	if result == nil {
		msg := strings.Join(errChain, "\n")
		logger.Error("all providers failed", "target", t.label(), "errors", len(errChain))
		if err := s.store.CreateNewsItem(ctx, t.errorSentinel(msg, now)); err != nil {
			logger.Error("failed to create error record", "target", t.label(), "error", err)
		} else {
			metrics.IncrementSentinelsCreated()
		}
		out.failed = true
	} else {
		payload := llmparse.ExtractNews(result.RawText)
		if len(payload.News) == 0 {
			if err := s.store.CreateNewsItem(ctx, t.noNewsSentinel(windowStart, windowEnd, now)); err != nil {
				logger.Error("failed to create no-news record", "target", t.label(), "error", err)
				out.itemErrors++
			} else {
				metrics.IncrementSentinelsCreated()
			}
			out.isNoNews = true
		} else {
			out = s.createItems(ctx, t, payload.News, now)
			logger.Info("news discovered", "target", t.label(), "provider", providerName,
				"created", out.created, "duplicates", out.duplicates, "errors", out.itemErrors)
		}
	}

	s.updateStatistics(ctx, t, out, now)
	return out
}

// queryChain walks the provider chain in order, collecting one error
// line per failed provider. First success wins.
func (s *Service) queryChain(ctx context.Context, t target, tr *tracker.Tracker, searchPrompt string) (*provider.Result, string, []string) {
	var errChain []string
	for _, p := range s.providers {
		res, err := p.Query(ctx, searchPrompt, t.domainHint())
		if err != nil {
			line := fmt.Sprintf("%s: %v", p.Name(), err)
			if provider.IsTimeout(err) {
				line += " (timeout)"
			}
			errChain = append(errChain, line)
			tr.Record(ctx, tracker.Call{
				Provider:       p.Name(),
				Model:          p.Model(),
				SourceID:       t.sourceID(),
				ManufacturerID: t.manufacturerID(),
				Success:        false,
				ErrorMessage:   err.Error(),
			})
			logger.Warn("provider failed", "provider", p.Name(), "target", t.label(), "error", err)
			continue
		}

		payload := llmparse.ExtractNews(res.RawText)
		tr.Record(ctx, tracker.Call{
			Provider:       p.Name(),
			Model:          p.Model(),
			SourceID:       t.sourceID(),
			ManufacturerID: t.manufacturerID(),
			InputTokens:    res.InputTokens,
			OutputTokens:   res.OutputTokens,
			Duration:       res.Duration,
			Success:        true,
			NewsExtracted:  len(payload.News),
		})
		return res, p.Name(), errChain
	}
	return nil, "", errChain
}

// createItems persists each reported news entry, skipping duplicates by
// source URL and counting per-item failures without aborting siblings.
func (s *Service) createItems(ctx context.Context, t target, items []llmparse.Item, now time.Time) outcome {
	var out outcome
	limit := len(items)
	if s.cfg.MaxNewsPerTarget > 0 && limit > s.cfg.MaxNewsPerTarget {
		logger.Warn("truncating news list", "target", t.label(), "reported", len(items), "limit", s.cfg.MaxNewsPerTarget)
		limit = s.cfg.MaxNewsPerTarget
	}

	for _, raw := range items[:limit] {
		item := t.newsItem(raw, now)

		if item.SourceURL != "" {
			exists, err := s.store.NewsExistsByURL(ctx, item.SourceURL)
			if err != nil {
				logger.Error("duplicate check failed", "url", item.SourceURL, "error", err)
			} else if exists {
				out.duplicates++
				metrics.IncrementDuplicatesSkipped()
				continue
			}
		}

		if err := s.store.CreateNewsItem(ctx, item); err != nil {
			logger.Error("failed to create news item", "target", t.label(), "error", err)
			out.itemErrors++
			continue
		}
		out.created++
		metrics.IncrementNewsCreated()

		if s.enricher != nil && item.Body == "" {
			if err := s.enricher.EnrichDraft(ctx, item); err != nil {
				logger.Debug("draft enrichment failed", "url", item.SourceURL, "error", err)
			}
		}
	}
	return out
}

// updateStatistics applies the pass outcome to the target's rolling
// aggregate exactly once. Statistics are advisory; failures are logged
// and never fail the target.
func (s *Service) updateStatistics(ctx context.Context, t target, out outcome, now time.Time) {
	st, err := t.statistics(ctx, s.store)
	if err != nil {
		logger.Error("failed to load statistics", "target", t.label(), "error", err)
		return
	}

	st.Apply(domain.SearchOutcome{
		NewsCount:  out.created,
		ErrorCount: out.itemErrors,
		IsNoNews:   out.isNoNews,
		HasErrors:  out.failed || out.itemErrors > 0,
	}, now)

	if err := s.store.RefreshStatisticsWindows(ctx, st, now); err != nil {
		logger.Error("failed to refresh statistics windows", "target", t.label(), "error", err)
	}
	if err := s.store.SaveStatistics(ctx, st); err != nil {
		logger.Error("failed to save statistics", "target", t.label(), "error", err)
	}
}
