package crawl

import "github.com/jonesrussell/feedcrawl/internal/feed"

// Handler receives crawl lifecycle and content events. Every method is
// invoked from the engine goroutine, so implementations need no locking
// but must not block for long.
type Handler interface {
	// OnRoundStart is called before each round. A non-nil return value
	// replaces the engine's feed list for this and later rounds.
	OnRoundStart() []string
	// OnRoundFinish is called after each round's outcomes are applied.
	OnRoundFinish()
	// OnShutdown is the last call before the engine's loop exits.
	OnShutdown()
	// OnData delivers the raw head-page body of a successfully crawled feed.
	OnData(url string, body []byte)
	// OnFeedMeta delivers the feed's aggregated channel metadata.
	OnFeedMeta(url string, channel feed.Channel)
	// OnInfo delivers one channel metadata field, in document order.
	OnInfo(url string, field feed.Field)
	// OnItem delivers one accepted item, in accepted order.
	OnItem(url string, channel feed.Channel, item feed.Item)
	// OnError reports a feed-scoped crawl failure. The feed's state is
	// left unchanged and retried next round.
	OnError(url string, crawlErr CrawlError)
}

// BaseHandler provides no-op implementations of every Handler method for
// embedding, so consumers implement only the callbacks they need.
type BaseHandler struct{}

func (BaseHandler) OnRoundStart() []string                 { return nil }
func (BaseHandler) OnRoundFinish()                         {}
func (BaseHandler) OnShutdown()                            {}
func (BaseHandler) OnData(string, []byte)                  {}
func (BaseHandler) OnFeedMeta(string, feed.Channel)        {}
func (BaseHandler) OnInfo(string, feed.Field)              {}
func (BaseHandler) OnItem(string, feed.Channel, feed.Item) {}
func (BaseHandler) OnError(string, CrawlError)             {}
