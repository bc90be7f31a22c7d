package tracker

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"hvacnews/internal/domain"
)

type fakeCallStore struct {
	records []*domain.APICallRecord
	fail    bool
}

func (f *fakeCallStore) InsertAPICall(ctx context.Context, rec *domain.APICallRecord) error {
	if f.fail {
		return errors.New("db down")
	}
	f.records = append(f.records, rec)
	return nil
}

func TestTracker_CostFormula(t *testing.T) {
	cfg := domain.DefaultConfiguration()
	tr := New(&fakeCallStore{}, cfg, &domain.DiscoveryRun{})

	// grok: $3/M in, $15/M out
	got := tr.Cost("grok", 1_000_000, 1_000_000)
	if got != 18.0 {
		t.Errorf("cost = %v, want 18.0", got)
	}

	got = tr.Cost("gemini", 100_000, 10_000)
	want := (100_000*0.075 + 10_000*0.30) / 1_000_000
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("gemini cost = %v, want %v", got, want)
	}

	if tr.Cost("unknown", 1000, 1000) != 0 {
		t.Errorf("unknown providers must cost zero")
	}
}

func TestTracker_RecordFoldsIntoRun(t *testing.T) {
	cfg := domain.DefaultConfiguration()
	store := &fakeCallStore{}
	run := &domain.DiscoveryRun{ID: 42}
	tr := New(store, cfg, run)

	cost := tr.Record(context.Background(), Call{
		Provider:      "anthropic",
		Model:         "claude-3-5-haiku-20241022",
		SourceID:      7,
		InputTokens:   2000,
		OutputTokens:  500,
		Duration:      3 * time.Second,
		Success:       true,
		NewsExtracted: 2,
	})

	want := (2000*0.80 + 500*4.0) / 1_000_000
	if math.Abs(cost-want) > 1e-9 {
		t.Errorf("cost = %v, want %v", cost, want)
	}
	if run.TotalRequests != 1 || run.TotalInputTokens != 2000 || run.TotalOutputTokens != 500 {
		t.Errorf("run aggregates not bumped: %+v", run)
	}
	if run.ProviderStats["anthropic"].Requests != 1 {
		t.Errorf("provider breakdown not bumped")
	}

	if len(store.records) != 1 {
		t.Fatalf("records = %d", len(store.records))
	}
	rec := store.records[0]
	if rec.RunID != 42 || rec.SourceID != 7 || !rec.Success || rec.NewsExtracted != 2 {
		t.Errorf("record = %+v", rec)
	}
}

func TestTracker_PersistenceFailureIsSwallowed(t *testing.T) {
	cfg := domain.DefaultConfiguration()
	run := &domain.DiscoveryRun{}
	tr := New(&fakeCallStore{fail: true}, cfg, run)

	// Must not panic or propagate; aggregates still update.
	tr.Record(context.Background(), Call{Provider: "grok", InputTokens: 10, OutputTokens: 10, Success: false})
	if run.TotalRequests != 1 {
		t.Errorf("aggregates must update even when the insert fails")
	}
	if run.ProviderStats["grok"].Errors != 1 {
		t.Errorf("failed call not counted as provider error")
	}
}
