package domain

import (
	"math"
	"time"
)

// SearchOutcome is the aggregate result of one discovery pass over one
// target, fed into the rolling statistics exactly once per pass.
type SearchOutcome struct {
	NewsCount  int  // real news created (0 for sentinel passes)
	ErrorCount int  // per-item creation failures
	IsNoNews   bool // the pass produced a "no news found" sentinel
	HasErrors  bool // any provider or item error occurred
}

// Statistics is the rolling aggregate kept one-to-one with a source or
// manufacturer. Windowed counts (30/90 days) are recomputed from the
// persisted news items by the store, not maintained incrementally.
type Statistics struct {
	ID             int64
	SourceID       int64 // exactly one of SourceID/ManufacturerID is set
	ManufacturerID int64

	TotalSearches  int
	TotalNewsFound int
	TotalNoNews    int
	TotalErrors    int

	SuccessRate      float64 // percent
	ErrorRate        float64 // percent
	AvgNewsPerSearch float64

	NewsLast30Days     int
	NewsLast90Days     int
	SearchesLast30Days int

	RankingScore float64
	IsActive     bool
	Priority     int

	FirstSearchDate time.Time
	LastSearchDate  time.Time
	LastNewsDate    time.Time
}

// Apply folds one search outcome into the counters and recomputes the
// derived rates. Bucket increments are mutually exclusive: errors win
// over no-news, no-news wins over the found-news counter.
func (s *Statistics) Apply(o SearchOutcome, now time.Time) {
	s.TotalSearches++
	s.LastSearchDate = now
	if s.FirstSearchDate.IsZero() {
		s.FirstSearchDate = now
	}

	switch {
	case o.HasErrors || o.ErrorCount > 0:
		s.TotalErrors++
	case o.IsNoNews:
		s.TotalNoNews++
	default:
		s.TotalNewsFound += o.NewsCount
		s.LastNewsDate = now
	}

	if s.TotalSearches > 0 {
		successful := s.TotalSearches - s.TotalNoNews - s.TotalErrors
		s.SuccessRate = round2(float64(successful) / float64(s.TotalSearches) * 100)
		s.ErrorRate = round2(float64(s.TotalErrors) / float64(s.TotalSearches) * 100)
		s.AvgNewsPerSearch = round2(float64(s.TotalNewsFound) / float64(s.TotalSearches))
	} else {
		s.SuccessRate = 0
		s.ErrorRate = 0
		s.AvgNewsPerSearch = 0
	}

	// Approximate: bump the 30-day search counter while searches are
	// recent, reset once the target has gone quiet for a month.
	if !s.LastSearchDate.IsZero() && s.LastSearchDate.After(now.AddDate(0, 0, -30)) {
		if s.SearchesLast30Days < s.TotalSearches {
			s.SearchesLast30Days++
		}
	} else {
		s.SearchesLast30Days = 0
	}
}

// RecalculateScore refreshes the composite ranking and the derived
// activity/priority fields. Call after the windowed counts are updated.
func (s *Statistics) RecalculateScore() {
	s.RankingScore = round2(RankingScore(s.TotalNewsFound, s.NewsLast30Days, s.SuccessRate, s.AvgNewsPerSearch))
	s.IsActive = s.NewsLast90Days > 0
	s.Priority = int(s.RankingScore)
}

// RankingScore is the composite 0-100 yield metric:
// 30% lifetime volume, 30% recent volume, 20% success rate,
// 20% per-search yield. Each term is clamped so the sum stays in range.
func RankingScore(totalNewsFound, newsLast30Days int, successRate, avgNewsPerSearch float64) float64 {
	volume := math.Min(float64(totalNewsFound)/10, 100)
	recent := math.Min(float64(newsLast30Days)*5, 100)
	success := math.Min(math.Max(successRate, 0), 100)
	yield := math.Min(avgNewsPerSearch*20, 100)
	return 0.3*volume + 0.3*recent + 0.2*success + 0.2*yield
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
