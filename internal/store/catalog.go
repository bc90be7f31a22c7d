package store

import (
	"context"
	"fmt"

	"hvacnews/internal/domain"
)

// UpsertSource inserts a source or refreshes it by URL. Returns the row id.
func (s *Store) UpsertSource(ctx context.Context, src domain.NewsSource) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO news_sources (name, url, language, source_type, custom_instructions, feed_url, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			language = EXCLUDED.language,
			source_type = EXCLUDED.source_type,
			custom_instructions = EXCLUDED.custom_instructions,
			feed_url = EXCLUDED.feed_url,
			description = EXCLUDED.description,
			updated_at = NOW()
		RETURNING id`,
		src.Name, src.URL, string(src.Language), string(src.SourceType),
		src.CustomInstructions, src.FeedURL, src.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert source %q: %w", src.URL, err)
	}
	return id, nil
}

// UpsertManufacturer inserts a manufacturer or refreshes it by name.
func (s *Store) UpsertManufacturer(ctx context.Context, m domain.Manufacturer) (int64, error) {
	sites := make([]string, 3)
	for i := 0; i < len(m.Websites) && i < 3; i++ {
		sites[i] = m.Websites[i]
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO manufacturers (name, region, website_1, website_2, website_3, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			region = EXCLUDED.region,
			website_1 = EXCLUDED.website_1,
			website_2 = EXCLUDED.website_2,
			website_3 = EXCLUDED.website_3,
			description = EXCLUDED.description,
			updated_at = NOW()
		RETURNING id`,
		m.Name, m.Region, sites[0], sites[1], sites[2], m.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert manufacturer %q: %w", m.Name, err)
	}
	return id, nil
}

// DiscoverableSources returns the sources eligible for automatic
// discovery (everything except manual), in stable id order.
func (s *Store) DiscoverableSources(ctx context.Context) ([]domain.NewsSource, error) {
	query, args, err := s.sb.
		Select("id", "name", "url", "language", "source_type", "custom_instructions", "feed_url", "description").
		From("news_sources").
		Where("source_type <> ?", string(domain.SourceTypeManual)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sources query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.NewsSource
	for rows.Next() {
		var src domain.NewsSource
		var lang, typ string
		if err := rows.Scan(&src.ID, &src.Name, &src.URL, &lang, &typ,
			&src.CustomInstructions, &src.FeedURL, &src.Description); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		src.Language = domain.Language(lang)
		src.SourceType = domain.SourceType(typ)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Manufacturers returns every manufacturer in stable id order.
func (s *Store) Manufacturers(ctx context.Context) ([]domain.Manufacturer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, region, website_1, website_2, website_3, description
		FROM manufacturers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query manufacturers: %w", err)
	}
	defer rows.Close()

	var out []domain.Manufacturer
	for rows.Next() {
		var m domain.Manufacturer
		var w1, w2, w3 string
		if err := rows.Scan(&m.ID, &m.Name, &m.Region, &w1, &w2, &w3, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan manufacturer: %w", err)
		}
		for _, w := range []string{w1, w2, w3} {
			if w != "" {
				m.Websites = append(m.Websites, w)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
