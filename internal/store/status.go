package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hvacnews/internal/domain"
)

// CreateStatus opens a fresh progress row for a batch. Any still-running
// status of the same search type is marked interrupted first, so at most
// one row per type is ever running.
func (s *Store) CreateStatus(ctx context.Context, searchType domain.SearchType, total int, provider string) (*domain.DiscoveryStatus, error) {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE discovery_status SET status = $1, updated_at = NOW()
		WHERE search_type = $2 AND status = $3`,
		string(domain.BatchInterrupted), string(searchType), string(domain.BatchRunning),
	); err != nil {
		return nil, fmt.Errorf("failed to supersede running status: %w", err)
	}

	st := &domain.DiscoveryStatus{
		SearchType: searchType,
		TotalCount: total,
		Status:     domain.BatchRunning,
		Provider:   provider,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO discovery_status (search_type, total_count, status, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		string(searchType), total, string(domain.BatchRunning), provider,
	).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}
	return st, nil
}

// UpdateStatusProgress bumps the processed counter.
func (s *Store) UpdateStatusProgress(ctx context.Context, id int64, processed int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE discovery_status SET processed_count = $1, updated_at = NOW() WHERE id = $2`,
		processed, id)
	if err != nil {
		return fmt.Errorf("failed to update status progress: %w", err)
	}
	return nil
}

// SetStatusState moves the batch to a terminal (or any) state.
func (s *Store) SetStatusState(ctx context.Context, id int64, state domain.BatchState) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE discovery_status SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(state), id)
	if err != nil {
		return fmt.Errorf("failed to set status state: %w", err)
	}
	return nil
}

// CurrentStatus returns the most recent status row for a search type,
// or nil when none exists.
func (s *Store) CurrentStatus(ctx context.Context, searchType domain.SearchType) (*domain.DiscoveryStatus, error) {
	var st domain.DiscoveryStatus
	var typ, state string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, search_type, processed_count, total_count, status, provider, created_at, updated_at
		FROM discovery_status
		WHERE search_type = $1
		ORDER BY created_at DESC LIMIT 1`, string(searchType),
	).Scan(&st.ID, &typ, &st.ProcessedCount, &st.TotalCount, &state, &st.Provider, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	st.SearchType = domain.SearchType(typ)
	st.Status = domain.BatchState(state)
	return &st, nil
}
