package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	RunsStarted       int64
	RunsCompleted     int64
	RunsFailed        int64
	ProviderCalls     map[string]int64
	ProviderErrors    map[string]int64
	NewsCreated       int64
	SentinelsCreated  int64
	DuplicatesSkipped int64

	// Timings
	LastRunDuration    time.Duration
	TotalRunDuration   time.Duration
	AverageRunDuration time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{
	IsHealthy:      true,
	ProviderCalls:  make(map[string]int64),
	ProviderErrors: make(map[string]int64),
}

func (m *Metrics) IncrementRunsStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunsStarted++
}

func (m *Metrics) IncrementNewsCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewsCreated++
}

func (m *Metrics) IncrementSentinelsCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentinelsCreated++
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) RecordProviderCall(provider string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProviderCalls[provider]++
	if !success {
		m.ProviderErrors[provider]++
	}
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetRunCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunsCompleted++
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunsFailed++
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make(map[string]int64, len(m.ProviderCalls))
	for p, n := range m.ProviderCalls {
		calls[p] = n
	}
	errs := make(map[string]int64, len(m.ProviderErrors))
	for p, n := range m.ProviderErrors {
		errs[p] = n
	}

	return map[string]interface{}{
		"runs_started":            m.RunsStarted,
		"runs_completed":          m.RunsCompleted,
		"runs_failed":             m.RunsFailed,
		"provider_calls":          calls,
		"provider_errors":         errs,
		"news_created":            m.NewsCreated,
		"sentinels_created":       m.SentinelsCreated,
		"duplicates_skipped":      m.DuplicatesSkipped,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}

// Package-level helpers on the global collector.
func RecordProviderCall(provider string, success bool) { Global.RecordProviderCall(provider, success) }
func IncrementNewsCreated()                            { Global.IncrementNewsCreated() }
func IncrementSentinelsCreated()                       { Global.IncrementSentinelsCreated() }
func IncrementDuplicatesSkipped()                      { Global.IncrementDuplicatesSkipped() }
