package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hvacnews/internal/domain"
)

// StatisticsForSource loads the rolling statistics row for a source,
// creating an empty one on first use.
func (s *Store) StatisticsForSource(ctx context.Context, sourceID int64) (*domain.Statistics, error) {
	return s.statisticsFor(ctx, sourceID, 0)
}

// StatisticsForManufacturer is the manufacturer counterpart.
func (s *Store) StatisticsForManufacturer(ctx context.Context, manufacturerID int64) (*domain.Statistics, error) {
	return s.statisticsFor(ctx, 0, manufacturerID)
}

func (s *Store) statisticsFor(ctx context.Context, sourceID, manufacturerID int64) (*domain.Statistics, error) {
	var (
		where string
		arg   int64
	)
	switch {
	case sourceID != 0:
		where, arg = "source_id = $1", sourceID
	case manufacturerID != 0:
		where, arg = "manufacturer_id = $1", manufacturerID
	default:
		return nil, fmt.Errorf("statistics require a source or manufacturer id")
	}

	st := &domain.Statistics{SourceID: sourceID, ManufacturerID: manufacturerID}
	var srcID, manID sql.NullInt64
	var first, last, news sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, manufacturer_id,
			total_searches, total_news_found, total_no_news, total_errors,
			success_rate, error_rate, avg_news_per_search,
			news_last_30_days, news_last_90_days, searches_last_30_days,
			ranking_score, is_active, priority,
			first_search_date, last_search_date, last_news_date
		FROM target_statistics WHERE `+where, arg,
	).Scan(&st.ID, &srcID, &manID,
		&st.TotalSearches, &st.TotalNewsFound, &st.TotalNoNews, &st.TotalErrors,
		&st.SuccessRate, &st.ErrorRate, &st.AvgNewsPerSearch,
		&st.NewsLast30Days, &st.NewsLast90Days, &st.SearchesLast30Days,
		&st.RankingScore, &st.IsActive, &st.Priority,
		&first, &last, &news)

	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO target_statistics (source_id, manufacturer_id)
			VALUES ($1, $2) RETURNING id`,
			nullableID(sourceID), nullableID(manufacturerID),
		).Scan(&st.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create statistics: %w", err)
		}
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics: %w", err)
	}

	st.SourceID = srcID.Int64
	st.ManufacturerID = manID.Int64
	st.FirstSearchDate = first.Time
	st.LastSearchDate = last.Time
	st.LastNewsDate = news.Time
	return st, nil
}

// SaveStatistics persists every counter of the row.
func (s *Store) SaveStatistics(ctx context.Context, st *domain.Statistics) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE target_statistics SET
			total_searches = $1, total_news_found = $2, total_no_news = $3, total_errors = $4,
			success_rate = $5, error_rate = $6, avg_news_per_search = $7,
			news_last_30_days = $8, news_last_90_days = $9, searches_last_30_days = $10,
			ranking_score = $11, is_active = $12, priority = $13,
			first_search_date = $14, last_search_date = $15, last_news_date = $16
		WHERE id = $17`,
		st.TotalSearches, st.TotalNewsFound, st.TotalNoNews, st.TotalErrors,
		st.SuccessRate, st.ErrorRate, st.AvgNewsPerSearch,
		st.NewsLast30Days, st.NewsLast90Days, st.SearchesLast30Days,
		st.RankingScore, st.IsActive, st.Priority,
		nullableTime(st.FirstSearchDate), nullableTime(st.LastSearchDate), nullableTime(st.LastNewsDate),
		st.ID)
	if err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}

// RefreshStatisticsWindows recomputes the 30/90-day news counts from the
// persisted items and refreshes the ranking score.
func (s *Store) RefreshStatisticsWindows(ctx context.Context, st *domain.Statistics, now time.Time) error {
	n30, err := s.CountRealNewsSince(ctx, st.SourceID, st.ManufacturerID, now.AddDate(0, 0, -30))
	if err != nil {
		return err
	}
	n90, err := s.CountRealNewsSince(ctx, st.SourceID, st.ManufacturerID, now.AddDate(0, 0, -90))
	if err != nil {
		return err
	}
	st.NewsLast30Days = n30
	st.NewsLast90Days = n90
	st.RecalculateScore()
	return nil
}

// TopRankedSources returns source statistics ordered by ranking score.
func (s *Store) TopRankedSources(ctx context.Context, limit int) ([]domain.Statistics, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, total_searches, total_news_found,
			success_rate, avg_news_per_search, news_last_30_days, ranking_score, is_active
		FROM target_statistics
		WHERE source_id IS NOT NULL
		ORDER BY ranking_score DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked sources: %w", err)
	}
	defer rows.Close()

	var out []domain.Statistics
	for rows.Next() {
		var st domain.Statistics
		var srcID sql.NullInt64
		if err := rows.Scan(&st.ID, &srcID, &st.TotalSearches, &st.TotalNewsFound,
			&st.SuccessRate, &st.AvgNewsPerSearch, &st.NewsLast30Days,
			&st.RankingScore, &st.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan ranked source: %w", err)
		}
		st.SourceID = srcID.Int64
		out = append(out, st)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
