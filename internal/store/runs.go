package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hvacnews/internal/domain"
)

// StartRun opens a new discovery run with the watermark and a frozen
// configuration snapshot.
func (s *Store) StartRun(ctx context.Context, watermark time.Time, snapshot map[string]any) (*domain.DiscoveryRun, error) {
	snap, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config snapshot: %w", err)
	}

	run := &domain.DiscoveryRun{
		LastSearchDate: watermark,
		ConfigSnapshot: snapshot,
		StartedAt:      time.Now(),
		ProviderStats:  make(map[string]domain.ProviderStat),
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO discovery_runs (last_search_date, config_snapshot, started_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		watermark, snap, run.StartedAt,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// SaveRunCounters flushes the run's mutable aggregates.
func (s *Store) SaveRunCounters(ctx context.Context, run *domain.DiscoveryRun) error {
	stats, err := json.Marshal(run.ProviderStats)
	if err != nil {
		return fmt.Errorf("failed to marshal provider stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE discovery_runs SET
			total_requests = $1,
			total_input_tokens = $2,
			total_output_tokens = $3,
			estimated_cost_usd = $4,
			provider_stats = $5,
			news_found = $6,
			news_duplicates = $7,
			targets_processed = $8,
			targets_failed = $9
		WHERE id = $10`,
		run.TotalRequests, run.TotalInputTokens, run.TotalOutputTokens,
		run.EstimatedCostUSD, stats, run.NewsFound, run.NewsDuplicates,
		run.TargetsProcessed, run.TargetsFailed, run.ID)
	if err != nil {
		return fmt.Errorf("failed to save run counters: %w", err)
	}
	return nil
}

// FinishRun freezes the run: final counters, finish timestamp and the
// advanced watermark.
func (s *Store) FinishRun(ctx context.Context, run *domain.DiscoveryRun, newWatermark time.Time) error {
	if err := s.SaveRunCounters(ctx, run); err != nil {
		return err
	}

	run.FinishedAt = time.Now()
	run.LastSearchDate = newWatermark
	_, err := s.db.ExecContext(ctx, `
		UPDATE discovery_runs SET finished_at = $1, last_search_date = $2 WHERE id = $3`,
		run.FinishedAt, newWatermark, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// LastSearchDate returns the watermark of the most recent finished run.
// With no history the zero time is returned and the caller picks the
// default window.
func (s *Store) LastSearchDate(ctx context.Context) (time.Time, error) {
	var d time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT last_search_date FROM discovery_runs
		WHERE finished_at IS NOT NULL
		ORDER BY finished_at DESC LIMIT 1`).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
	}
	return d, nil
}

// InsertAPICall appends one provider call record.
func (s *Store) InsertAPICall(ctx context.Context, rec *domain.APICallRecord) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO discovery_api_calls
			(run_id, source_id, manufacturer_id, provider, model,
			 input_tokens, output_tokens, cost_usd, duration_ms,
			 success, error_message, news_extracted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		rec.RunID, nullableID(rec.SourceID), nullableID(rec.ManufacturerID),
		rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens,
		rec.CostUSD, rec.Duration.Milliseconds(),
		rec.Success, rec.ErrorMessage, rec.NewsExtracted,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert api call: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.DiscoveryRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, last_search_date, started_at,
			COALESCE(finished_at, 'epoch'::timestamptz),
			total_requests, total_input_tokens, total_output_tokens,
			estimated_cost_usd, provider_stats,
			news_found, news_duplicates, targets_processed, targets_failed, created_at
		FROM discovery_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.DiscoveryRun
	for rows.Next() {
		var run domain.DiscoveryRun
		var finished time.Time
		var stats []byte
		if err := rows.Scan(&run.ID, &run.LastSearchDate, &run.StartedAt, &finished,
			&run.TotalRequests, &run.TotalInputTokens, &run.TotalOutputTokens,
			&run.EstimatedCostUSD, &stats,
			&run.NewsFound, &run.NewsDuplicates, &run.TargetsProcessed,
			&run.TargetsFailed, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Unix() > 0 {
			run.FinishedAt = finished
		}
		if len(stats) > 0 {
			if err := json.Unmarshal(stats, &run.ProviderStats); err != nil {
				return nil, fmt.Errorf("failed to decode provider stats: %w", err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
