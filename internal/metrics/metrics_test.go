package metrics_test

import (
	"sync"
	"testing"

	"github.com/jonesrussell/feedcrawl/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	assert.NotNil(t, m)
	assert.False(t, m.GetStartTime().IsZero())
}

func TestFeedReported(t *testing.T) {
	m := metrics.NewMetrics()
	m.BeginRound(2)

	// Successful crawl delivering three items
	m.FeedReported(true, 3)
	assert.Equal(t, int64(1), m.GetFeedsSucceeded())
	assert.Equal(t, int64(3), m.GetItemsDelivered())
	assert.Equal(t, int64(0), m.GetErrorCount())
	assert.False(t, m.GetLastDeliveryTime().IsZero())

	// Failed crawl
	m.FeedReported(false, 0)
	assert.Equal(t, int64(1), m.GetFeedsSucceeded())
	assert.Equal(t, int64(1), m.GetErrorCount())
}

func TestProgress(t *testing.T) {
	m := metrics.NewMetrics()

	reported, total := m.Progress()
	assert.Equal(t, 0, reported)
	assert.Equal(t, 0, total)

	m.BeginRound(3)
	m.FeedReported(true, 1)
	m.FeedReported(false, 0)

	reported, total = m.Progress()
	assert.Equal(t, 2, reported)
	assert.Equal(t, 3, total)

	m.EndRound()
	reported, total = m.Progress()
	assert.Equal(t, 0, reported)
	assert.Equal(t, 0, total)
	assert.Equal(t, int64(1), m.GetRoundsCompleted())
}

func TestResetMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	m.BeginRound(1)
	m.FeedReported(true, 2)
	m.EndRound()

	m.ResetMetrics()

	assert.Equal(t, int64(0), m.GetRoundsCompleted())
	assert.Equal(t, int64(0), m.GetFeedsSucceeded())
	assert.Equal(t, int64(0), m.GetItemsDelivered())
	assert.Equal(t, int64(0), m.GetErrorCount())
	assert.True(t, m.GetLastDeliveryTime().IsZero())
}

func TestFeedReportedConcurrently(t *testing.T) {
	m := metrics.NewMetrics()
	m.BeginRound(10)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.FeedReported(true, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), m.GetFeedsSucceeded())
	assert.Equal(t, int64(10), m.GetItemsDelivered())
}
