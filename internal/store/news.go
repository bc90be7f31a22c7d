package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"hvacnews/internal/domain"
)

// CreateNewsItem inserts the item and its translations in one
// transaction. The item's ID and timestamps are filled in on success.
func (s *Store) CreateNewsItem(ctx context.Context, item *domain.NewsItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if item.PubDate.IsZero() {
		item.PubDate = time.Now()
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO news_items
			(title, body, source_url, source_id, manufacturer_id, status, source_language, is_no_news_found, pub_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		item.Title, item.Body, item.SourceURL,
		nullableID(item.SourceID), nullableID(item.ManufacturerID),
		string(item.Status), string(item.SourceLanguage), item.NoNewsFound, item.PubDate,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert news item: %w", err)
	}

	for lang, tr := range item.Translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO news_translations (news_item_id, language, title, body)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (news_item_id, language) DO UPDATE SET
				title = EXCLUDED.title, body = EXCLUDED.body`,
			item.ID, string(lang), tr.Title, tr.Body,
		); err != nil {
			return fmt.Errorf("failed to insert translation %s: %w", lang, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit news item: %w", err)
	}
	return nil
}

// UpdateNewsBody rewrites the canonical body, used by draft enrichment.
func (s *Store) UpdateNewsBody(ctx context.Context, id int64, body string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE news_items SET body = $1, updated_at = NOW() WHERE id = $2`, body, id)
	if err != nil {
		return fmt.Errorf("failed to update news body: %w", err)
	}
	return nil
}

// NewsExistsByURL reports whether a non-sentinel item with this source
// URL is already stored. Drives duplicate counting during discovery.
func (s *Store) NewsExistsByURL(ctx context.Context, sourceURL string) (bool, error) {
	if sourceURL == "" {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM news_items
			WHERE source_url = $1 AND NOT is_no_news_found
		)`, sourceURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate url: %w", err)
	}
	return exists, nil
}

// CountRealNewsSince counts non-sentinel items created after the cutoff
// for one target. Pass either a source or a manufacturer id, not both.
func (s *Store) CountRealNewsSince(ctx context.Context, sourceID, manufacturerID int64, since time.Time) (int, error) {
	qb := s.sb.
		Select("COUNT(*)").
		From("news_items").
		Where("NOT is_no_news_found").
		Where("created_at >= ?", since)
	switch {
	case sourceID != 0:
		qb = qb.Where(sq.Eq{"source_id": sourceID})
	case manufacturerID != 0:
		qb = qb.Where(sq.Eq{"manufacturer_id": manufacturerID})
	default:
		return 0, fmt.Errorf("count requires a source or manufacturer id")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count news: %w", err)
	}
	return count, nil
}

// NewsFilter narrows ListNews. Zero values mean "any".
type NewsFilter struct {
	Status           domain.NewsStatus
	SourceID         int64
	ManufacturerID   int64
	OnlySentinels    bool
	ExcludeSentinels bool
	Limit            int
}

// ListNews returns items newest-first with their translations loaded.
func (s *Store) ListNews(ctx context.Context, f NewsFilter) ([]domain.NewsItem, error) {
	qb := s.sb.
		Select("id", "title", "body", "source_url", "source_id", "manufacturer_id",
			"status", "source_language", "is_no_news_found", "pub_date", "created_at", "updated_at").
		From("news_items").
		OrderBy("created_at DESC")
	if f.Status != "" {
		qb = qb.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.SourceID != 0 {
		qb = qb.Where(sq.Eq{"source_id": f.SourceID})
	}
	if f.ManufacturerID != 0 {
		qb = qb.Where(sq.Eq{"manufacturer_id": f.ManufacturerID})
	}
	if f.OnlySentinels {
		qb = qb.Where("is_no_news_found")
	}
	if f.ExcludeSentinels {
		qb = qb.Where("NOT is_no_news_found")
	}
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build news query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	var items []domain.NewsItem
	for rows.Next() {
		var item domain.NewsItem
		var srcID, manID sql.NullInt64
		var status, lang string
		if err := rows.Scan(&item.ID, &item.Title, &item.Body, &item.SourceURL,
			&srcID, &manID, &status, &lang, &item.NoNewsFound,
			&item.PubDate, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}
		item.SourceID = srcID.Int64
		item.ManufacturerID = manID.Int64
		item.Status = domain.NewsStatus(status)
		item.SourceLanguage = domain.Language(lang)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		tr, err := s.translationsFor(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Translations = tr
	}
	return items, nil
}

func (s *Store) translationsFor(ctx context.Context, newsID int64) (domain.Translations, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT language, title, body FROM news_translations WHERE news_item_id = $1`, newsID)
	if err != nil {
		return nil, fmt.Errorf("failed to query translations: %w", err)
	}
	defer rows.Close()

	tr := make(domain.Translations)
	for rows.Next() {
		var lang, title, body string
		if err := rows.Scan(&lang, &title, &body); err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		tr[domain.Language(lang)] = domain.LocalizedText{Title: title, Body: body}
	}
	return tr, rows.Err()
}
