// Package catalog imports the source and manufacturer catalog from a
// YAML file into the store.
package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"hvacnews/internal/domain"
	"hvacnews/internal/logger"
)

// File is the YAML catalog structure:
//
// sources:
//   - name: HVAC Insider
//     url: https://hvacinsider.com
//     language: en
//     type: auto
// manufacturers:
//   - name: Daikin
//     region: Japan
//     websites: [https://daikin.com]
type File struct {
	Sources []struct {
		Name               string `yaml:"name"`
		URL                string `yaml:"url"`
		Language           string `yaml:"language"`
		Type               string `yaml:"type"`
		CustomInstructions string `yaml:"custom_instructions"`
		FeedURL            string `yaml:"feed_url"`
		Description        string `yaml:"description"`
	} `yaml:"sources"`
	Manufacturers []struct {
		Name        string   `yaml:"name"`
		Region      string   `yaml:"region"`
		Websites    []string `yaml:"websites"`
		Description string   `yaml:"description"`
	} `yaml:"manufacturers"`
}

// Load reads and decodes a catalog file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	var file File
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return &file, nil
}

// Store is the persistence surface the importer needs.
type Store interface {
	UpsertSource(ctx context.Context, src domain.NewsSource) (int64, error)
	UpsertManufacturer(ctx context.Context, m domain.Manufacturer) (int64, error)
}

// Result counts what an import touched.
type Result struct {
	Sources       int
	Manufacturers int
	Skipped       int
}

// Import upserts every catalog entry. A source with a feed URL and no
// name gets its name probed from the feed title; probe failures are
// logged and the URL is used as the name instead.
func Import(ctx context.Context, store Store, path string) (Result, error) {
	file, err := Load(path)
	if err != nil {
		return Result{}, err
	}

	var res Result
	parser := gofeed.NewParser()

	for _, entry := range file.Sources {
		if entry.URL == "" {
			logger.Warn("skipping source without url", "name", entry.Name)
			res.Skipped++
			continue
		}

		name := entry.Name
		if name == "" && entry.FeedURL != "" {
			if feed, err := parser.ParseURLWithContext(entry.FeedURL, ctx); err != nil {
				logger.Warn("feed probe failed", "feed", entry.FeedURL, "error", err)
			} else if feed.Title != "" {
				name = feed.Title
				logger.Info("source name filled from feed", "feed", entry.FeedURL, "name", name)
			}
		}
		if name == "" {
			name = entry.URL
		}

		lang := domain.Language(entry.Language)
		if lang == "" {
			lang = domain.LangEN
		} else if !languageSupported(lang) {
			logger.Warn("unsupported source language, defaulting to en", "language", entry.Language, "url", entry.URL)
			lang = domain.LangEN
		}
		typ := domain.SourceType(entry.Type)
		if typ == "" {
			typ = domain.SourceTypeAuto
		}

		if _, err := store.UpsertSource(ctx, domain.NewsSource{
			Name:               name,
			URL:                entry.URL,
			Language:           lang,
			SourceType:         typ,
			CustomInstructions: entry.CustomInstructions,
			FeedURL:            entry.FeedURL,
			Description:        entry.Description,
		}); err != nil {
			return res, err
		}
		res.Sources++
	}

	for _, entry := range file.Manufacturers {
		if entry.Name == "" {
			logger.Warn("skipping manufacturer without name")
			res.Skipped++
			continue
		}
		if len(entry.Websites) > 3 {
			logger.Warn("manufacturer lists more than 3 websites, extra ignored", "name", entry.Name)
			entry.Websites = entry.Websites[:3]
		}

		if _, err := store.UpsertManufacturer(ctx, domain.Manufacturer{
			Name:        entry.Name,
			Region:      entry.Region,
			Websites:    entry.Websites,
			Description: entry.Description,
		}); err != nil {
			return res, err
		}
		res.Manufacturers++
	}

	logger.Info("catalog imported", "sources", res.Sources, "manufacturers", res.Manufacturers, "skipped", res.Skipped)
	return res, nil
}

func languageSupported(lang domain.Language) bool {
	for _, l := range domain.SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
