package crawl

import (
	"time"

	"github.com/jonesrussell/feedcrawl/internal/feed"
)

// Outcome is the immutable result of one single-feed crawl. It is either a
// success (Feed set, Err nil) or a failure (Err set, no feed or items);
// the engine consumes each outcome exactly once.
type Outcome struct {
	URL string
	// Body is the raw response body of the feed's head page.
	Body []byte
	// Feed is the parsed head page.
	Feed *feed.Feed
	// Items are the accepted new items across all traversed pages, in
	// parse order.
	Items []feed.Item
	// Cache is the worker's candidate dedup cache, to be reconciled by
	// the engine on commit.
	Cache *Cache
	// CrawlTime is the fetch time of the head page.
	CrawlTime time.Time
	Err       *CrawlError
}

// failure builds a failed outcome carrying only the error.
func failure(url string, crawlErr *CrawlError) *Outcome {
	return &Outcome{URL: url, Err: crawlErr}
}
