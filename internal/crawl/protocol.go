package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/jonesrussell/feedcrawl/internal/feed"
	"github.com/jonesrussell/feedcrawl/internal/logger"
)

// protocol runs the single-feed crawl sequence: conditional fetch with
// bounded redirect following, parse, freshness filtering, and pagination
// traversal. A protocol value is shared by all workers; it holds only
// immutable configuration.
type protocol struct {
	fetcher      feed.Fetcher
	userAgent    string
	maxRedirects int
	maxItems     int
	cacheTTL     time.Duration
	log          logger.Interface
}

// run executes the full crawl protocol for one feed snapshot. It never
// panics: any fault while parsing or filtering is converted into a failure
// outcome so a single malformed feed cannot destabilize the pool.
func (p *protocol) run(ctx context.Context, snap Snapshot) (out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("crawl worker recovered", "url", snap.URL, "panic", r)
			out = failure(snap.URL, internalError(r))
		}
	}()

	out = &Outcome{URL: snap.URL, Cache: snap.Cache}
	visited := make(map[string]struct{})

	if crawlErr := p.crawlPage(ctx, &snap, snap.URL, true, visited, out); crawlErr != nil {
		return failure(snap.URL, crawlErr)
	}

	return out
}

// crawlPage fetches, parses, and filters one feed page, then recurses into
// the next page when the pagination policy allows it.
func (p *protocol) crawlPage(
	ctx context.Context,
	snap *Snapshot,
	pageURL string,
	isHead bool,
	visited map[string]struct{},
	out *Outcome,
) *CrawlError {
	visited[pageURL] = struct{}{}

	fetchTime := time.Now().UTC()

	resp, fetchErr := p.fetch(ctx, snap, pageURL)
	if fetchErr != nil {
		return fetchErr
	}

	if isHead {
		out.CrawlTime = fetchTime
	}

	if resp.StatusCode == http.StatusNotModified {
		// Nothing new on this page; for the head page this is the whole
		// crawl, for a later page it ends the traversal.
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}

	parsed, parseErr := feed.Parse(resp.Body, snap.AllowRSS)
	if parseErr != nil {
		return classifyParseError(parseErr)
	}

	if isHead {
		out.Body = resp.Body
		out.Feed = parsed
	}

	if filterErr := p.filterItems(snap, parsed, resp.Header, out); filterErr != nil {
		return filterErr
	}

	next := parsed.NextPage
	if next == "" {
		return nil
	}

	// A feed is traversed past the current page only from its head page,
	// during its first-pass backfill, or under the deep-traverse policy.
	isHeadPage := parsed.Channel.Link == pageURL
	if !isHeadPage && !snap.DeepTraverse && !snap.FirstPass {
		return nil
	}

	if _, seen := visited[next]; seen {
		// A next_node cycle would recurse forever; treat it as the end
		// of the chain.
		p.log.Warn("pagination cycle detected", "url", snap.URL, "page", next)
		return nil
	}

	return p.crawlPage(ctx, snap, next, false, visited, out)
}

// classifyParseError maps parser failures onto the crawl error taxonomy.
func classifyParseError(parseErr error) *CrawlError {
	switch {
	case errors.Is(parseErr, feed.ErrNoChannel):
		return noChannelError()
	case errors.Is(parseErr, feed.ErrRSSNotAllowed):
		return rssNotAllowedError()
	default:
		return malformedError()
	}
}

// fetch performs the conditional GET for one page, following 301 redirects
// up to the configured limit.
func (p *protocol) fetch(ctx context.Context, snap *Snapshot, pageURL string) (*feed.Response, *CrawlError) {
	header := http.Header{}
	header.Set("User-Agent", p.userAgent)
	if !snap.FirstPass {
		header.Set("If-Modified-Since", snap.LastCrawlTime.UTC().Format(http.TimeFormat))
	}

	current := pageURL

	for hops := 0; ; {
		resp, err := p.fetcher.Fetch(ctx, current, header)
		if err != nil {
			return nil, connectionError()
		}

		if resp.StatusCode != http.StatusMovedPermanently {
			return resp, nil
		}

		if hops >= p.maxRedirects {
			return nil, redirectError(resp.StatusCode)
		}
		hops++

		location := resp.Header.Get("Location")
		if location == "" {
			return nil, statusError(resp.StatusCode)
		}

		redirected, resolveErr := resolveRedirect(current, location)
		if resolveErr != nil {
			return nil, statusError(resp.StatusCode)
		}

		p.log.Debug("following redirect",
			"url", snap.URL,
			"from", current,
			"to", redirected,
			"hop", hops,
		)
		current = redirected
	}
}

// resolveRedirect resolves a Location header value against the current URL.
func resolveRedirect(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(ref).String(), nil
}

// filterItems applies the freshness and dedup rules to one page's items.
// Accepted items and their fingerprints are committed to the outcome only
// once the whole page passes, so an overflow discards the page cleanly.
func (p *protocol) filterItems(
	snap *Snapshot,
	parsed *feed.Feed,
	header http.Header,
	out *Outcome,
) *CrawlError {
	loc := headerLocation(header)

	examined := len(parsed.Channel.Fields)
	accepted := make([]feed.Item, 0, len(parsed.Items))
	fingerprints := make([]string, 0, len(parsed.Items))

	for i := range parsed.Items {
		examined++
		if examined > p.maxItems {
			return overflowError()
		}

		ok, acceptErr := p.acceptItem(snap, &parsed.Items[i], loc)
		if acceptErr != nil {
			return acceptErr
		}
		if !ok {
			continue
		}

		accepted = append(accepted, parsed.Items[i])
		fingerprints = append(fingerprints, Fingerprint(parsed.Items[i].Description))
	}

	for _, fingerprint := range fingerprints {
		out.Cache.Record(fingerprint, out.CrawlTime, p.cacheTTL)
	}
	out.Items = append(out.Items, accepted...)

	return nil
}

// acceptItem decides whether a single item is new. On the feed's first
// pass every item is accepted regardless of publish date; afterwards an
// item must carry a parseable pubdate at or after the last crawl time and
// a fingerprint the dedup cache has not seen.
func (p *protocol) acceptItem(snap *Snapshot, item *feed.Item, loc *time.Location) (bool, *CrawlError) {
	if snap.FirstPass {
		return true, nil
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else {
		parsedTime, err := parsePubDate(item.Published, loc)
		if err != nil {
			// Freshness cannot be determined; the whole crawl is unsafe.
			return false, pubdateError(item.Published)
		}
		published = parsedTime
	}

	if published.Before(snap.LastCrawlTime) {
		return false, nil
	}

	return snap.Cache.IsNew(Fingerprint(item.Description)), nil
}
