// Package metrics provides metrics collection and reporting functionality.
package metrics

import (
	"sync"
	"time"
)

// Metrics holds the crawl metrics.
type Metrics struct {
	// RoundsCompleted is the number of finished crawl rounds.
	RoundsCompleted int64
	// FeedsSucceeded is the number of feed crawls that completed successfully.
	FeedsSucceeded int64
	// ErrorCount is the number of feed crawls that ended in an error.
	ErrorCount int64
	// ItemsDelivered is the number of items handed to the handler.
	ItemsDelivered int64
	// LastDeliveryTime is the time of the last successful feed crawl.
	LastDeliveryTime time.Time
	// StartTime is when the metrics collection began.
	StartTime time.Time
	// roundTotal is the number of feeds dispatched in the current round.
	roundTotal int
	// roundReported is the number of feeds reported back in the current round.
	roundReported int
	// mu protects concurrent access to metrics.
	mu sync.Mutex
}

// NewMetrics creates a new Metrics instance with default values.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// GetStartTime returns the time when metrics collection began.
func (m *Metrics) GetStartTime() time.Time {
	return m.StartTime
}

// BeginRound records the start of a crawl round over total feeds.
func (m *Metrics) BeginRound(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roundTotal = total
	m.roundReported = 0
}

// FeedReported records the outcome of one feed crawl in the current round.
func (m *Metrics) FeedReported(success bool, items int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roundReported++
	if !success {
		m.ErrorCount++
		return
	}
	m.FeedsSucceeded++
	m.ItemsDelivered += int64(items)
	m.LastDeliveryTime = time.Now()
}

// EndRound records the completion of a crawl round.
func (m *Metrics) EndRound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RoundsCompleted++
	m.roundTotal = 0
	m.roundReported = 0
}

// Progress returns the reported and total feed counts for the current round.
func (m *Metrics) Progress() (reported, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roundReported, m.roundTotal
}

// GetRoundsCompleted returns the number of finished crawl rounds.
func (m *Metrics) GetRoundsCompleted() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RoundsCompleted
}

// GetFeedsSucceeded returns the number of successful feed crawls.
func (m *Metrics) GetFeedsSucceeded() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FeedsSucceeded
}

// GetErrorCount returns the number of failed feed crawls.
func (m *Metrics) GetErrorCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ErrorCount
}

// GetItemsDelivered returns the number of items handed to the handler.
func (m *Metrics) GetItemsDelivered() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ItemsDelivered
}

// GetLastDeliveryTime returns the time of the last successful feed crawl.
func (m *Metrics) GetLastDeliveryTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastDeliveryTime
}

// ResetMetrics resets all metrics to their initial values.
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RoundsCompleted = 0
	m.FeedsSucceeded = 0
	m.ErrorCount = 0
	m.ItemsDelivered = 0
	m.LastDeliveryTime = time.Time{}
	m.roundTotal = 0
	m.roundReported = 0
}
