package domain

import (
	"testing"
	"time"
)

var statNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestStatistics_BucketsAreMutuallyExclusive(t *testing.T) {
	var st Statistics

	// Errors win even when news were also created in the pass.
	st.Apply(SearchOutcome{NewsCount: 2, HasErrors: true}, statNow)
	if st.TotalErrors != 1 || st.TotalNoNews != 0 || st.TotalNewsFound != 0 {
		t.Fatalf("error pass: errors=%d nonews=%d found=%d", st.TotalErrors, st.TotalNoNews, st.TotalNewsFound)
	}

	// No-news wins over found when no error occurred.
	st.Apply(SearchOutcome{IsNoNews: true}, statNow)
	if st.TotalNoNews != 1 || st.TotalNewsFound != 0 {
		t.Fatalf("no-news pass: nonews=%d found=%d", st.TotalNoNews, st.TotalNewsFound)
	}

	// Plain success adds the news count and stamps last_news_date.
	st.Apply(SearchOutcome{NewsCount: 4}, statNow)
	if st.TotalNewsFound != 4 {
		t.Fatalf("found pass: found=%d", st.TotalNewsFound)
	}
	if st.LastNewsDate.IsZero() {
		t.Errorf("last news date not stamped on success")
	}
	if st.TotalSearches != 3 {
		t.Errorf("total searches = %d, want 3", st.TotalSearches)
	}
}

func TestStatistics_SequentialScenario(t *testing.T) {
	var st Statistics

	st.Apply(SearchOutcome{NewsCount: 3}, statNow)
	st.Apply(SearchOutcome{IsNoNews: true}, statNow.Add(time.Hour))

	if st.TotalSearches != 2 {
		t.Fatalf("total searches = %d", st.TotalSearches)
	}
	if st.SuccessRate != 50.0 {
		t.Errorf("success rate = %v, want 50.0", st.SuccessRate)
	}
	if st.AvgNewsPerSearch != 1.5 {
		t.Errorf("avg news per search = %v, want 1.5", st.AvgNewsPerSearch)
	}
	if st.ErrorRate != 0 {
		t.Errorf("error rate = %v, want 0", st.ErrorRate)
	}
}

func TestStatistics_FirstSearchDateSetOnce(t *testing.T) {
	var st Statistics
	st.Apply(SearchOutcome{NewsCount: 1}, statNow)
	first := st.FirstSearchDate
	st.Apply(SearchOutcome{NewsCount: 1}, statNow.Add(48*time.Hour))
	if !st.FirstSearchDate.Equal(first) {
		t.Errorf("first search date must not move: %v -> %v", first, st.FirstSearchDate)
	}
	if !st.LastSearchDate.After(first) {
		t.Errorf("last search date should advance")
	}
}

func TestRankingScore_Bounds(t *testing.T) {
	cases := []struct {
		name                       string
		total, recent              int
		successRate, avgPerSearch  float64
	}{
		{"zero", 0, 0, 0, 0},
		{"max", 1_000_000, 1_000_000, 100, 1_000_000},
		{"negative success", 0, 0, -50, 0},
		{"typical", 42, 3, 75.5, 2.1},
	}
	for _, c := range cases {
		got := RankingScore(c.total, c.recent, c.successRate, c.avgPerSearch)
		if got < 0 || got > 100 {
			t.Errorf("%s: score %v out of [0,100]", c.name, got)
		}
	}

	if got := RankingScore(1_000_000, 1_000_000, 100, 1_000_000); got != 100 {
		t.Errorf("saturated score = %v, want 100", got)
	}
}

func TestRecalculateScore_ActivityFlag(t *testing.T) {
	st := Statistics{TotalNewsFound: 50, NewsLast30Days: 4, NewsLast90Days: 10, SuccessRate: 80, AvgNewsPerSearch: 2}
	st.RecalculateScore()
	if !st.IsActive {
		t.Errorf("target with recent news must be active")
	}
	if st.RankingScore <= 0 || st.RankingScore > 100 {
		t.Errorf("score = %v", st.RankingScore)
	}
	if st.Priority != int(st.RankingScore) {
		t.Errorf("priority %d should track the score %v", st.Priority, st.RankingScore)
	}

	st.NewsLast90Days = 0
	st.RecalculateScore()
	if st.IsActive {
		t.Errorf("target without 90-day news must be inactive")
	}
}

func TestDiscoveryRun_Aggregates(t *testing.T) {
	var run DiscoveryRun
	run.AddAPICall("grok", 1000, 500, 0.01, true)
	run.AddAPICall("grok", 2000, 100, 0.02, false)
	run.AddAPICall("anthropic", 10, 10, 0.001, true)

	if run.TotalRequests != 3 {
		t.Errorf("total requests = %d", run.TotalRequests)
	}
	if run.TotalInputTokens != 3010 || run.TotalOutputTokens != 610 {
		t.Errorf("token totals = %d/%d", run.TotalInputTokens, run.TotalOutputTokens)
	}
	grok := run.ProviderStats["grok"]
	if grok.Requests != 2 || grok.Errors != 1 {
		t.Errorf("grok stats = %+v", grok)
	}
}

func TestDiscoveryRun_Efficiency(t *testing.T) {
	run := DiscoveryRun{NewsFound: 10, EstimatedCostUSD: 0.5}
	if got := run.Efficiency(); got != 20 {
		t.Errorf("efficiency = %v, want 20 news per dollar", got)
	}
	if (DiscoveryRun{NewsFound: 5}).Efficiency() != 0 {
		t.Errorf("zero cost must yield zero efficiency, not a division blowup")
	}
}

func TestNewsItem_IsPublished(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	if !(NewsItem{Status: StatusPublished, PubDate: past}).IsPublished() {
		t.Errorf("published item with past pub date must be visible")
	}
	if (NewsItem{Status: StatusPublished, PubDate: future}).IsPublished() {
		t.Errorf("future pub date must hide the item")
	}
	if (NewsItem{Status: StatusDraft, PubDate: past}).IsPublished() {
		t.Errorf("drafts are never visible")
	}
}

func TestNewsSource_Discoverable(t *testing.T) {
	if (NewsSource{SourceType: SourceTypeManual}).Discoverable() {
		t.Errorf("manual sources must not be discoverable")
	}
	if !(NewsSource{SourceType: SourceTypeAuto}).Discoverable() {
		t.Errorf("auto sources must be discoverable")
	}
	if !(NewsSource{SourceType: SourceTypeHybrid}).Discoverable() {
		t.Errorf("hybrid sources must be discoverable")
	}
}
