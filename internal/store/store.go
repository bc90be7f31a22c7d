// Package store persists the catalog, news records and discovery
// bookkeeping in PostgreSQL. Plain database/sql with lib/pq; composed
// queries (filtered listings, windowed counts) go through squirrel.
package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"hvacnews/internal/logger"
)

// Store wraps the database handle. All methods are safe for the
// single-writer discovery batch; no cross-row transactions are taken
// beyond what a single statement provides.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// Open connects, pings and initializes the schema.
func Open(connectionString string) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres store connected")
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS news_sources (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		url TEXT NOT NULL UNIQUE,
		language VARCHAR(10) NOT NULL DEFAULT 'en',
		source_type VARCHAR(20) NOT NULL DEFAULT 'auto',
		custom_instructions TEXT NOT NULL DEFAULT '',
		feed_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS manufacturers (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		region VARCHAR(100) NOT NULL DEFAULT '',
		website_1 TEXT NOT NULL DEFAULT '',
		website_2 TEXT NOT NULL DEFAULT '',
		website_3 TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS news_items (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		source_id INTEGER REFERENCES news_sources(id) ON DELETE SET NULL,
		manufacturer_id INTEGER REFERENCES manufacturers(id) ON DELETE SET NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		source_language VARCHAR(10) NOT NULL DEFAULT 'ru',
		is_no_news_found BOOLEAN NOT NULL DEFAULT FALSE,
		pub_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_news_items_status_pub ON news_items(status, pub_date DESC);
	CREATE INDEX IF NOT EXISTS idx_news_items_source ON news_items(source_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_news_items_manufacturer ON news_items(manufacturer_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_news_items_source_url ON news_items(source_url);

	CREATE TABLE IF NOT EXISTS news_translations (
		id SERIAL PRIMARY KEY,
		news_item_id INTEGER NOT NULL REFERENCES news_items(id) ON DELETE CASCADE,
		language VARCHAR(10) NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		UNIQUE (news_item_id, language)
	);

	CREATE TABLE IF NOT EXISTS search_configurations (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL DEFAULT 'default',
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		primary_provider VARCHAR(20) NOT NULL DEFAULT 'grok',
		fallback_chain JSONB NOT NULL DEFAULT '[]',
		temperature DOUBLE PRECISION NOT NULL DEFAULT 0.3,
		timeout_seconds INTEGER NOT NULL DEFAULT 120,
		max_search_results INTEGER NOT NULL DEFAULT 5,
		search_context_size VARCHAR(10) NOT NULL DEFAULT 'low',
		grok_model VARCHAR(50) NOT NULL DEFAULT 'grok-4-1-fast',
		anthropic_model VARCHAR(50) NOT NULL DEFAULT 'claude-3-5-haiku-20241022',
		gemini_model VARCHAR(50) NOT NULL DEFAULT 'gemini-2.0-flash-exp',
		openai_model VARCHAR(50) NOT NULL DEFAULT 'gpt-4o',
		max_news_per_target INTEGER NOT NULL DEFAULT 10,
		delay_between_requests_ms INTEGER NOT NULL DEFAULT 500,
		prices JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS discovery_runs (
		id SERIAL PRIMARY KEY,
		last_search_date DATE NOT NULL DEFAULT CURRENT_DATE,
		config_snapshot JSONB,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		total_requests INTEGER NOT NULL DEFAULT 0,
		total_input_tokens INTEGER NOT NULL DEFAULT 0,
		total_output_tokens INTEGER NOT NULL DEFAULT 0,
		estimated_cost_usd NUMERIC(10,4) NOT NULL DEFAULT 0,
		provider_stats JSONB NOT NULL DEFAULT '{}',
		news_found INTEGER NOT NULL DEFAULT 0,
		news_duplicates INTEGER NOT NULL DEFAULT 0,
		targets_processed INTEGER NOT NULL DEFAULT 0,
		targets_failed INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_discovery_runs_created ON discovery_runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS discovery_api_calls (
		id SERIAL PRIMARY KEY,
		run_id INTEGER NOT NULL REFERENCES discovery_runs(id) ON DELETE CASCADE,
		source_id INTEGER REFERENCES news_sources(id) ON DELETE SET NULL,
		manufacturer_id INTEGER REFERENCES manufacturers(id) ON DELETE SET NULL,
		provider VARCHAR(20) NOT NULL,
		model VARCHAR(50) NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cost_usd NUMERIC(10,6) NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL DEFAULT TRUE,
		error_message TEXT NOT NULL DEFAULT '',
		news_extracted INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_api_calls_run ON discovery_api_calls(run_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_api_calls_provider ON discovery_api_calls(provider, created_at DESC);

	CREATE TABLE IF NOT EXISTS discovery_status (
		id SERIAL PRIMARY KEY,
		search_type VARCHAR(20) NOT NULL DEFAULT 'sources',
		processed_count INTEGER NOT NULL DEFAULT 0,
		total_count INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'running',
		provider VARCHAR(20) NOT NULL DEFAULT 'auto',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_discovery_status_type ON discovery_status(search_type, status);

	CREATE TABLE IF NOT EXISTS target_statistics (
		id SERIAL PRIMARY KEY,
		source_id INTEGER REFERENCES news_sources(id) ON DELETE CASCADE,
		manufacturer_id INTEGER REFERENCES manufacturers(id) ON DELETE CASCADE,
		total_searches INTEGER NOT NULL DEFAULT 0,
		total_news_found INTEGER NOT NULL DEFAULT 0,
		total_no_news INTEGER NOT NULL DEFAULT 0,
		total_errors INTEGER NOT NULL DEFAULT 0,
		success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		error_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_news_per_search DOUBLE PRECISION NOT NULL DEFAULT 0,
		news_last_30_days INTEGER NOT NULL DEFAULT 0,
		news_last_90_days INTEGER NOT NULL DEFAULT 0,
		searches_last_30_days INTEGER NOT NULL DEFAULT 0,
		ranking_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		priority INTEGER NOT NULL DEFAULT 0,
		first_search_date TIMESTAMPTZ,
		last_search_date TIMESTAMPTZ,
		last_news_date TIMESTAMPTZ,
		CHECK (source_id IS NOT NULL OR manufacturer_id IS NOT NULL)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_stats_source ON target_statistics(source_id) WHERE source_id IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_stats_manufacturer ON target_statistics(manufacturer_id) WHERE manufacturer_id IS NOT NULL;
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("database schema initialized")
	return nil
}

// nullableID converts 0 into SQL NULL for optional foreign keys.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
