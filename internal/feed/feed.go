// Package feed provides fetching and parsing for microblog and RSS feeds.
package feed

import "time"

// Field is one channel-level metadata element, in document order.
type Field struct {
	Name  string
	Value string
}

// Channel describes a feed's channel/user block.
// Well-known fields are promoted to struct members; Fields retains every
// metadata element in document order.
type Channel struct {
	Username string
	UserID   string
	Link     string
	Relocate string
	Fields   []Field
}

// Item is a single post entry extracted from a feed page.
type Item struct {
	GUID        string
	Description string
	// Published is the raw pubdate text as it appeared in the feed.
	Published string
	// PublishedParsed is set when the source format already carries a
	// parseable timestamp (RSS/Atom via gofeed); nil for the microblog dialect.
	PublishedParsed *time.Time
}

// Feed is one page of a microblog or RSS feed.
type Feed struct {
	Channel Channel
	Items   []Item
	// NextPage is the URL of the next (older) page, if the feed paginates.
	NextPage string
}

// ElementCount returns the number of channel child elements on this page,
// metadata fields and items combined.
func (f *Feed) ElementCount() int {
	return len(f.Channel.Fields) + len(f.Items)
}
