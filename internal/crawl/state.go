package crawl

import "time"

// Source is the mutable per-feed crawl state. It is owned by the engine
// and only ever read or written between round boundaries.
type Source struct {
	URL           string
	LastCrawlTime time.Time
	FirstPass     bool
	DeepTraverse  bool
	AllowRSS      bool
	Cache         *Cache
}

// newSource creates first-pass state for a newly tracked feed URL.
func newSource(url string, baseline time.Time, deepTraverse, allowRSS bool) *Source {
	return &Source{
		URL:           url,
		LastCrawlTime: baseline,
		FirstPass:     true,
		DeepTraverse:  deepTraverse,
		AllowRSS:      allowRSS,
		Cache:         NewCache(),
	}
}

// Snapshot is the immutable view of a Source handed to a worker for one
// crawl. Its cache is a private clone the worker may record into; the
// engine reconciles it back on success.
type Snapshot struct {
	URL           string
	LastCrawlTime time.Time
	FirstPass     bool
	DeepTraverse  bool
	AllowRSS      bool
	Cache         *Cache
}

// snapshot copies the source state for a worker, cloning the cache so the
// canonical copy is never touched off the engine goroutine.
func (s *Source) snapshot() Snapshot {
	return Snapshot{
		URL:           s.URL,
		LastCrawlTime: s.LastCrawlTime,
		FirstPass:     s.FirstPass,
		DeepTraverse:  s.DeepTraverse,
		AllowRSS:      s.AllowRSS,
		Cache:         s.Cache.Clone(),
	}
}
