package crawl

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/feedcrawl/internal/feed"
	"github.com/jonesrussell/feedcrawl/internal/logger"
)

// requireNoError fails the test immediately if err is non-nil.
func requireNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// requireLen fails the test immediately if the slice length does not match.
func requireLen[T any](t *testing.T, items []T, expected int) {
	t.Helper()

	if len(items) != expected {
		t.Fatalf("expected %d items, got %d", expected, len(items))
	}
}

// assertEqual reports a test error if the two values differ.
func assertEqual[T comparable](t *testing.T, expected, actual T) {
	t.Helper()

	if expected != actual {
		t.Errorf("expected %v, got %v", expected, actual)
	}
}

// requireSuccess fails the test immediately if the outcome carries an error.
func requireSuccess(t *testing.T, out *Outcome) {
	t.Helper()

	if out.Err != nil {
		t.Fatalf("expected success, got error %d: %s", out.Err.Code, out.Err.Description)
	}
}

// requireFailure fails the test immediately unless the outcome carries an
// error with the given code and description.
func requireFailure(t *testing.T, out *Outcome, code int, description string) {
	t.Helper()

	if out.Err == nil {
		t.Fatalf("expected error %q, got success with %d items", description, len(out.Items))
	}
	if out.Err.Code != code || out.Err.Description != description {
		t.Fatalf("expected error %d %q, got %d %q", code, description, out.Err.Code, out.Err.Description)
	}
}

// testItem is the raw material for one item element in a built page.
type testItem struct {
	guid        string
	description string
	pubdate     string
}

// microblogPage builds a microblog feed document. link becomes the
// channel's link field; next, when non-empty, becomes the next_node
// pagination pointer.
func microblogPage(link, next string, items ...testItem) string {
	var b strings.Builder
	b.WriteString("<microblog><channel>")
	b.WriteString("<user_name>alice</user_name>")
	fmt.Fprintf(&b, "<link>%s</link>", link)
	for _, it := range items {
		fmt.Fprintf(&b,
			"<item><guid>%s</guid><description>%s</description><pubdate>%s</pubdate></item>",
			it.guid, it.description, it.pubdate,
		)
	}
	if next != "" {
		fmt.Fprintf(&b, "<next_node>%s</next_node>", next)
	}
	b.WriteString("</channel></microblog>")
	return b.String()
}

// newTestProtocol builds a protocol with small limits suitable for tests.
func newTestProtocol() *protocol {
	return &protocol{
		fetcher:      feed.NewHTTPFetcher(0),
		userAgent:    "feedcrawl-test/1.0",
		maxRedirects: 2,
		maxItems:     10,
		cacheTTL:     time.Minute,
		log:          logger.NewNoOp(),
	}
}

// firstPassSnapshot is the state of a feed that has never been crawled.
func firstPassSnapshot(url string) Snapshot {
	return Snapshot{
		URL:           url,
		LastCrawlTime: time.Now().UTC(),
		FirstPass:     true,
		Cache:         NewCache(),
	}
}

// steadySnapshot is the state of a feed past its first pass, with the
// given last crawl time.
func steadySnapshot(url string, lastCrawl time.Time) Snapshot {
	return Snapshot{
		URL:           url,
		LastCrawlTime: lastCrawl.UTC(),
		Cache:         NewCache(),
	}
}
