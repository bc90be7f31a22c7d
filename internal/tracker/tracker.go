// Package tracker prices LLM calls and records them against the
// current discovery run. Tracking is best-effort: a failed insert is
// logged and never interrupts discovery.
package tracker

import (
	"context"
	"time"

	"hvacnews/internal/domain"
	"hvacnews/internal/logger"
	"hvacnews/internal/metrics"
)

// CallStore is the persistence the tracker needs.
type CallStore interface {
	InsertAPICall(ctx context.Context, rec *domain.APICallRecord) error
}

// Call describes one completed (or failed) provider request.
type Call struct {
	Provider       string
	Model          string
	SourceID       int64
	ManufacturerID int64
	InputTokens    int
	OutputTokens   int
	Duration       time.Duration
	Success        bool
	ErrorMessage   string
	NewsExtracted  int
}

// Tracker accumulates per-run usage.
type Tracker struct {
	store CallStore
	cfg   domain.SearchConfiguration
	run   *domain.DiscoveryRun
}

func New(store CallStore, cfg domain.SearchConfiguration, run *domain.DiscoveryRun) *Tracker {
	return &Tracker{store: store, cfg: cfg, run: run}
}

// Cost prices a token pair for a provider. Tariffs are USD per million
// tokens; unknown providers cost zero.
func (t *Tracker) Cost(provider string, inputTokens, outputTokens int) float64 {
	p := t.cfg.Price(provider)
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1_000_000
}

// Record prices the call, folds it into the run aggregates and appends
// the call record. Returns the computed cost.
func (t *Tracker) Record(ctx context.Context, call Call) float64 {
	cost := t.Cost(call.Provider, call.InputTokens, call.OutputTokens)
	t.run.AddAPICall(call.Provider, call.InputTokens, call.OutputTokens, cost, call.Success)
	metrics.RecordProviderCall(call.Provider, call.Success)

	rec := &domain.APICallRecord{
		RunID:          t.run.ID,
		SourceID:       call.SourceID,
		ManufacturerID: call.ManufacturerID,
		Provider:       call.Provider,
		Model:          call.Model,
		InputTokens:    call.InputTokens,
		OutputTokens:   call.OutputTokens,
		CostUSD:        cost,
		Duration:       call.Duration,
		Success:        call.Success,
		ErrorMessage:   call.ErrorMessage,
		NewsExtracted:  call.NewsExtracted,
	}
	if err := t.store.InsertAPICall(ctx, rec); err != nil {
		logger.Error("failed to record api call", "provider", call.Provider, "error", err)
	}
	return cost
}
