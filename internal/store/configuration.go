package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hvacnews/internal/domain"
	"hvacnews/internal/logger"
)

// ActiveConfiguration returns the active search configuration, seeding
// the defaults on an empty table.
func (s *Store) ActiveConfiguration(ctx context.Context) (domain.SearchConfiguration, error) {
	var (
		cfg            domain.SearchConfiguration
		chain, prices  []byte
		timeoutSeconds int
		delayMS        int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_active, primary_provider, fallback_chain,
			temperature, timeout_seconds, max_search_results, search_context_size,
			grok_model, anthropic_model, gemini_model, openai_model,
			max_news_per_target, delay_between_requests_ms, prices,
			created_at, updated_at
		FROM search_configurations
		WHERE is_active
		ORDER BY updated_at DESC LIMIT 1`,
	).Scan(&cfg.ID, &cfg.Name, &cfg.IsActive, &cfg.PrimaryProvider, &chain,
		&cfg.Temperature, &timeoutSeconds, &cfg.MaxSearchResults, &cfg.SearchContextSize,
		&cfg.GrokModel, &cfg.AnthropicModel, &cfg.GeminiModel, &cfg.OpenAIModel,
		&cfg.MaxNewsPerTarget, &delayMS, &prices,
		&cfg.CreatedAt, &cfg.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		def := domain.DefaultConfiguration()
		if err := s.SaveConfiguration(ctx, &def); err != nil {
			return domain.SearchConfiguration{}, err
		}
		logger.Info("seeded default search configuration", "id", def.ID)
		return def, nil
	}
	if err != nil {
		return domain.SearchConfiguration{}, fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg.Timeout = time.Duration(timeoutSeconds) * time.Second
	cfg.DelayBetweenRequests = time.Duration(delayMS) * time.Millisecond
	if err := json.Unmarshal(chain, &cfg.FallbackChain); err != nil {
		return domain.SearchConfiguration{}, fmt.Errorf("failed to decode fallback chain: %w", err)
	}
	if err := json.Unmarshal(prices, &cfg.Prices); err != nil {
		return domain.SearchConfiguration{}, fmt.Errorf("failed to decode prices: %w", err)
	}
	return cfg, nil
}

// SaveConfiguration inserts or updates a configuration. Saving an active
// configuration deactivates every other row so exactly one stays active.
func (s *Store) SaveConfiguration(ctx context.Context, cfg *domain.SearchConfiguration) error {
	chain, err := json.Marshal(cfg.FallbackChain)
	if err != nil {
		return fmt.Errorf("failed to marshal fallback chain: %w", err)
	}
	prices, err := json.Marshal(cfg.Prices)
	if err != nil {
		return fmt.Errorf("failed to marshal prices: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if cfg.ID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO search_configurations
				(name, is_active, primary_provider, fallback_chain, temperature,
				 timeout_seconds, max_search_results, search_context_size,
				 grok_model, anthropic_model, gemini_model, openai_model,
				 max_news_per_target, delay_between_requests_ms, prices)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id, created_at, updated_at`,
			cfg.Name, cfg.IsActive, cfg.PrimaryProvider, chain, cfg.Temperature,
			int(cfg.Timeout.Seconds()), cfg.MaxSearchResults, cfg.SearchContextSize,
			cfg.GrokModel, cfg.AnthropicModel, cfg.GeminiModel, cfg.OpenAIModel,
			cfg.MaxNewsPerTarget, cfg.DelayBetweenRequests.Milliseconds(), prices,
		).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert configuration: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE search_configurations SET
				name = $1, is_active = $2, primary_provider = $3, fallback_chain = $4,
				temperature = $5, timeout_seconds = $6, max_search_results = $7,
				search_context_size = $8, grok_model = $9, anthropic_model = $10,
				gemini_model = $11, openai_model = $12, max_news_per_target = $13,
				delay_between_requests_ms = $14, prices = $15, updated_at = NOW()
			WHERE id = $16`,
			cfg.Name, cfg.IsActive, cfg.PrimaryProvider, chain,
			cfg.Temperature, int(cfg.Timeout.Seconds()), cfg.MaxSearchResults,
			cfg.SearchContextSize, cfg.GrokModel, cfg.AnthropicModel,
			cfg.GeminiModel, cfg.OpenAIModel, cfg.MaxNewsPerTarget,
			cfg.DelayBetweenRequests.Milliseconds(), prices, cfg.ID)
		if err != nil {
			return fmt.Errorf("failed to update configuration: %w", err)
		}
	}

	if cfg.IsActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE search_configurations SET is_active = FALSE, updated_at = NOW()
			WHERE id <> $1 AND is_active`, cfg.ID); err != nil {
			return fmt.Errorf("failed to deactivate other configurations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit configuration: %w", err)
	}
	return nil
}
