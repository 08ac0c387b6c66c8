// Package crawl implements the feed crawl engine: per-feed state, the
// single-feed crawl protocol, and the round scheduler that dispatches a
// bounded worker pool and delivers outcomes to a Handler.
package crawl

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/feedcrawl/internal/config"
	"github.com/jonesrussell/feedcrawl/internal/feed"
	"github.com/jonesrussell/feedcrawl/internal/logger"
	"github.com/jonesrussell/feedcrawl/internal/metrics"
)

// Engine crawls a set of feeds in rounds. Each round it snapshots every
// feed's state, fans the snapshots out to a bounded worker pool, and
// applies the resulting outcomes one at a time in arrival order. All
// state mutation and every Handler callback happens on the goroutine that
// called Start, so handlers never need locking.
type Engine struct {
	cfg     *config.Config
	handler Handler
	log     logger.Interface
	metrics *metrics.Metrics
	proto   *protocol

	mu         sync.Mutex
	sources    map[string]*Source
	stopCh     chan struct{}
	stopClosed bool

	running       atomic.Bool
	stopRequested atomic.Bool
	abandon       atomic.Bool
	deepNextRound atomic.Bool

	inflight sync.WaitGroup
}

// NewEngine creates an engine. A nil handler gets no-op callbacks and a
// nil log discards output.
func NewEngine(cfg *config.Config, fetcher feed.Fetcher, handler Handler, log logger.Interface) *Engine {
	if handler == nil {
		handler = BaseHandler{}
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	log = log.WithComponent("crawl")

	return &Engine{
		cfg:     cfg,
		handler: handler,
		log:     log,
		metrics: metrics.NewMetrics(),
		proto: &protocol{
			fetcher:      fetcher,
			userAgent:    cfg.UserAgent,
			maxRedirects: cfg.MaxRedirects,
			maxItems:     cfg.MaxItemsPerPage,
			cacheTTL:     cfg.CacheTTL,
			log:          log,
		},
		sources: make(map[string]*Source),
	}
}

// Metrics exposes the engine's metrics collector.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Progress reports the fraction of the current round's feeds that have
// reported an outcome, in [0, 1]. It is 0 when no round is in flight.
func (e *Engine) Progress() float64 {
	reported, total := e.metrics.Progress()
	if total == 0 {
		return 0
	}
	return float64(reported) / float64(total)
}

// SetLinks replaces the tracked feed set. Known URLs keep their state;
// new URLs start a first pass with the current time as baseline; URLs no
// longer listed are dropped along with their dedup cache.
func (e *Engine) SetLinks(urls []string) {
	e.setLinks(urls, time.Now().UTC())
}

func (e *Engine) setLinks(urls []string, baseline time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keep := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		keep[url] = struct{}{}
		if _, ok := e.sources[url]; !ok {
			e.sources[url] = newSource(url, baseline, e.cfg.DeepTraverse, e.cfg.AllowRSS)
			e.log.Info("tracking feed", "url", url)
		}
	}

	for url := range e.sources {
		if _, ok := keep[url]; !ok {
			delete(e.sources, url)
			e.log.Info("dropped feed", "url", url)
		}
	}
}

// RequestDeepTraverse arms full pagination traversal for every feed on
// the next round only. Safe to call from any goroutine.
func (e *Engine) RequestDeepTraverse() {
	e.deepNextRound.Store(true)
}

// Start runs the crawl loop until Stop is called or ctx is cancelled.
// The given URLs seed the feed set; when empty, the configured links are
// used. Start blocks for the engine's lifetime and owns all handler
// callbacks; OnShutdown is the final call before it returns.
func (e *Engine) Start(ctx context.Context, urls ...string) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine is already running")
	}
	defer e.running.Store(false)

	e.stopRequested.Store(false)
	e.abandon.Store(false)
	e.mu.Lock()
	e.stopCh = make(chan struct{})
	e.stopClosed = false
	e.mu.Unlock()

	if len(urls) == 0 {
		urls = e.cfg.Links
	}
	baseline := e.cfg.StartTime.UTC()
	if e.cfg.StartTime.IsZero() {
		baseline = time.Now().UTC()
	}
	e.setLinks(urls, baseline)

	e.log.Info("engine started",
		"feeds", len(urls),
		"pool_size", e.cfg.PoolSize,
		"round_interval", e.cfg.RoundInterval,
	)

	e.mu.Lock()
	stopCh := e.stopCh
	e.mu.Unlock()

	for {
		e.runRound(ctx)
		if e.stopRequested.Load() || ctx.Err() != nil {
			break
		}
		select {
		case <-time.After(e.cfg.RoundInterval):
		case <-stopCh:
		case <-ctx.Done():
		}
		if e.stopRequested.Load() || ctx.Err() != nil {
			break
		}
	}

	e.mu.Lock()
	e.sources = make(map[string]*Source)
	e.mu.Unlock()

	e.log.Info("engine stopped")
	e.handler.OnShutdown()
	return nil
}

// Stop ends the crawl loop. A graceful stop blocks until the in-flight
// round has delivered its outcomes; an immediate stop returns at once and
// abandons any undelivered outcomes, leaving feed state at its last
// committed values.
func (e *Engine) Stop(immediate bool) {
	e.stopRequested.Store(true)
	if immediate {
		e.abandon.Store(true)
	}

	e.mu.Lock()
	if e.stopCh != nil && !e.stopClosed {
		close(e.stopCh)
		e.stopClosed = true
	}
	e.mu.Unlock()

	if !immediate {
		e.inflight.Wait()
	}
}

// runRound executes one crawl round: snapshot, dispatch, collect, apply.
func (e *Engine) runRound(ctx context.Context) {
	if e.stopRequested.Load() {
		return
	}
	e.inflight.Add(1)
	defer e.inflight.Done()

	roundLog := e.log.With("round_id", uuid.NewString())

	if links := e.handler.OnRoundStart(); links != nil {
		e.SetLinks(links)
	}

	deep := e.deepNextRound.Swap(false)
	snaps := e.snapshotAll(deep)
	if len(snaps) == 0 {
		e.handler.OnRoundFinish()
		return
	}

	roundLog.Debug("round started", "feeds", len(snaps), "deep_traverse", deep)
	e.metrics.BeginRound(len(snaps))

	roundCtx, cancel := context.WithTimeout(ctx, e.cfg.RoundTimeout)
	defer cancel()

	// Buffered to the round size so a worker can always deliver its
	// outcome, even after the collector has given up on it.
	results := make(chan *Outcome, len(snaps))
	sem := make(chan struct{}, e.cfg.PoolSize)

	for _, snap := range snaps {
		go func() {
			select {
			case sem <- struct{}{}:
			case <-roundCtx.Done():
				results <- failure(snap.URL, timeoutError())
				return
			}
			defer func() { <-sem }()
			results <- e.proto.run(roundCtx, snap)
		}()
	}

	e.collect(roundCtx, roundLog, snaps, results)

	e.metrics.EndRound()
	roundLog.Debug("round finished")
	e.handler.OnRoundFinish()
}

// snapshotAll captures the per-feed state for one round in stable URL
// order. deep forces full pagination traversal for this round.
func (e *Engine) snapshotAll(deep bool) []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snaps := make([]Snapshot, 0, len(e.sources))
	for _, src := range e.sources {
		snap := src.snapshot()
		if deep {
			snap.DeepTraverse = true
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].URL < snaps[j].URL })
	return snaps
}

// collect applies worker outcomes as they arrive until every dispatched
// feed has reported, the round deadline passes, or an immediate stop
// abandons the round.
func (e *Engine) collect(
	roundCtx context.Context,
	roundLog logger.Interface,
	snaps []Snapshot,
	results <-chan *Outcome,
) {
	e.mu.Lock()
	stopped := e.stopCh
	e.mu.Unlock()

	pending := make(map[string]struct{}, len(snaps))
	for _, snap := range snaps {
		pending[snap.URL] = struct{}{}
	}

	for len(pending) > 0 {
		if e.abandon.Load() {
			roundLog.Warn("abandoning round", "pending", len(pending))
			return
		}

		select {
		case out := <-results:
			if _, ok := pending[out.URL]; !ok {
				continue
			}
			delete(pending, out.URL)
			e.applyOutcome(roundLog, out)
		case <-stopped:
			// A graceful stop keeps collecting; an immediate stop is
			// caught by the abandon check above.
			stopped = nil
		case <-roundCtx.Done():
			for url := range pending {
				roundLog.Warn("feed missed the round deadline", "url", url)
				e.metrics.FeedReported(false, 0)
				e.handler.OnError(url, *timeoutError())
			}
			return
		}
	}
}

// applyOutcome commits one feed's outcome: callbacks first, then the
// state commit, so a panicking handler never leaves half-applied state.
func (e *Engine) applyOutcome(roundLog logger.Interface, out *Outcome) {
	if out.Err != nil {
		roundLog.Debug("feed crawl failed",
			"url", out.URL,
			"code", out.Err.Code,
			"description", out.Err.Description,
		)
		e.metrics.FeedReported(false, 0)
		e.handler.OnError(out.URL, *out.Err)

		// An error still consumes the feed's first pass, except when the
		// crawl never ran to completion.
		if !out.Err.isTimeout() {
			e.mu.Lock()
			if src, ok := e.sources[out.URL]; ok {
				src.FirstPass = false
			}
			e.mu.Unlock()
		}
		return
	}

	e.mu.Lock()
	src, ok := e.sources[out.URL]
	e.mu.Unlock()
	if !ok {
		// The feed was dropped mid-round; its outcome no longer has a home.
		roundLog.Debug("discarding outcome for dropped feed", "url", out.URL)
		return
	}

	out.Cache.Evict(out.CrawlTime)

	if out.Body != nil {
		e.handler.OnData(out.URL, out.Body)
	}
	var channel feed.Channel
	if out.Feed != nil {
		channel = out.Feed.Channel
		e.handler.OnFeedMeta(out.URL, channel)
		for _, field := range channel.Fields {
			e.handler.OnInfo(out.URL, field)
		}
	}
	for i := range out.Items {
		e.handler.OnItem(out.URL, channel, out.Items[i])
	}

	e.mu.Lock()
	src.LastCrawlTime = out.CrawlTime
	src.FirstPass = false
	src.Cache = out.Cache
	e.mu.Unlock()

	e.metrics.FeedReported(true, len(out.Items))
}
