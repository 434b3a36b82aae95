package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesProcessed    int64
	GenerativeSummaries  int64
	ExtractiveSummaries  int64
	LanguageRechecks     int64
	GenerativeEntities   int64
	ClassicalEntities    int64
	DegradedResults      int64
	DuplicatesFiltered   int64
	MessagesDelivered    int64
	DeliveryFailures     int64
	ExpiredRecordsPurged int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) add(field *int64, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field += n
}

func (m *Metrics) IncrementArticlesProcessed()   { m.add(&m.ArticlesProcessed, 1) }
func (m *Metrics) IncrementGenerativeSummaries() { m.add(&m.GenerativeSummaries, 1) }
func (m *Metrics) IncrementExtractiveSummaries() { m.add(&m.ExtractiveSummaries, 1) }
func (m *Metrics) IncrementLanguageRechecks()    { m.add(&m.LanguageRechecks, 1) }
func (m *Metrics) IncrementGenerativeEntities()  { m.add(&m.GenerativeEntities, 1) }
func (m *Metrics) IncrementClassicalEntities()   { m.add(&m.ClassicalEntities, 1) }
func (m *Metrics) IncrementDegradedResults()     { m.add(&m.DegradedResults, 1) }
func (m *Metrics) IncrementDuplicatesFiltered()  { m.add(&m.DuplicatesFiltered, 1) }
func (m *Metrics) AddMessagesDelivered(n int)    { m.add(&m.MessagesDelivered, int64(n)) }
func (m *Metrics) IncrementDeliveryFailures()    { m.add(&m.DeliveryFailures, 1) }
func (m *Metrics) AddExpiredRecordsPurged(n int) { m.add(&m.ExpiredRecordsPurged, int64(n)) }

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"articles_processed":         m.ArticlesProcessed,
		"generative_summaries":       m.GenerativeSummaries,
		"extractive_summaries":       m.ExtractiveSummaries,
		"language_rechecks":          m.LanguageRechecks,
		"generative_entities":        m.GenerativeEntities,
		"classical_entities":         m.ClassicalEntities,
		"degraded_results":           m.DegradedResults,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"messages_delivered":         m.MessagesDelivered,
		"delivery_failures":          m.DeliveryFailures,
		"expired_records_purged":     m.ExpiredRecordsPurged,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}

// Handler serves the counters as JSON.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.GetStats())
	}
}
