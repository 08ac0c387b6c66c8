package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
)

// ErrNoChannel is returned when a document contains no channel element.
var ErrNoChannel = errors.New("no channel element found")

// ErrRSSNotAllowed is returned for RSS/Atom documents when the caller has
// not opted in to plain syndication feeds.
var ErrRSSNotAllowed = errors.New("rss feeds not allowed")

// Channel field names promoted to Channel struct members.
const (
	fieldUsername = "user_name"
	fieldUserID   = "user_id"
	fieldLink     = "link"
	fieldRelocate = "relocate"
)

// Parse converts a raw feed document into a Feed.
//
// Documents with an rss or Atom root are handed to gofeed when allowRSS is
// set. Anything else is treated as the microblog dialect: a channel element
// whose children are metadata fields, item elements, and an optional
// next_node pagination pointer, all kept in document order.
func Parse(data []byte, allowRSS bool) (*Feed, error) {
	root, err := rootName(data)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	if root == "rss" || root == "feed" {
		if !allowRSS {
			return nil, ErrRSSNotAllowed
		}
		return parseSyndication(data)
	}

	return parseMicroblog(data)
}

// rootName returns the local name of the document's root element.
func rootName(data []byte) (string, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// microblogItem mirrors an item element of the microblog dialect.
// Some feeds use RSS-style pubDate capitalization; both spellings are read.
type microblogItem struct {
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubdate"`
	PubDateRSS  string `xml:"pubDate"`
}

// parseMicroblog walks the document to its channel element and decodes the
// channel's direct children in order.
func parseMicroblog(data []byte) (*Feed, error) {
	d := xml.NewDecoder(bytes.NewReader(data))

	if err := skipToChannel(d); err != nil {
		return nil, err
	}

	f := &Feed{}

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return f, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse feed: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if decodeErr := decodeChannelChild(d, f, el); decodeErr != nil {
				return nil, fmt.Errorf("parse feed: %w", decodeErr)
			}
		case xml.EndElement:
			if el.Name.Local == "channel" {
				return f, nil
			}
		}
	}
}

// skipToChannel advances the decoder to just inside the first channel element.
func skipToChannel(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return ErrNoChannel
		}
		if err != nil {
			return fmt.Errorf("parse feed: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "channel" {
			return nil
		}
	}
}

// decodeChannelChild decodes one direct child of the channel element into f.
func decodeChannelChild(d *xml.Decoder, f *Feed, el xml.StartElement) error {
	switch el.Name.Local {
	case "item":
		var raw microblogItem
		if err := d.DecodeElement(&raw, &el); err != nil {
			return err
		}
		pub := raw.PubDate
		if pub == "" {
			pub = raw.PubDateRSS
		}
		f.Items = append(f.Items, Item{
			GUID:        strings.TrimSpace(raw.GUID),
			Description: raw.Description,
			Published:   strings.TrimSpace(pub),
		})
	case "next_node":
		var next string
		if err := d.DecodeElement(&next, &el); err != nil {
			return err
		}
		f.NextPage = strings.TrimSpace(next)
	default:
		var value string
		if err := d.DecodeElement(&value, &el); err != nil {
			return err
		}
		addField(&f.Channel, el.Name.Local, strings.TrimSpace(value))
	}
	return nil
}

// addField appends a metadata field and promotes well-known names.
func addField(ch *Channel, name, value string) {
	ch.Fields = append(ch.Fields, Field{Name: name, Value: value})

	switch name {
	case fieldUsername:
		ch.Username = value
	case fieldUserID:
		ch.UserID = value
	case fieldLink:
		// The first link is the feed's head page; later links are ignored.
		if ch.Link == "" {
			ch.Link = value
		}
	case fieldRelocate:
		ch.Relocate = value
	}
}

// parseSyndication parses an RSS or Atom document with gofeed and maps it
// onto the Feed shape. Syndication feeds carry no next_node pointer, so
// NextPage is always empty.
func parseSyndication(data []byte) (*Feed, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	f := &Feed{}
	addField(&f.Channel, fieldUsername, parsed.Title)
	addField(&f.Channel, fieldLink, parsed.Link)
	if parsed.Description != "" {
		addField(&f.Channel, "description", parsed.Description)
	}

	f.Items = make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		description := entry.Description
		if description == "" {
			description = entry.Title
		}
		f.Items = append(f.Items, Item{
			GUID:            entry.GUID,
			Description:     description,
			Published:       entry.Published,
			PublishedParsed: entry.PublishedParsed,
		})
	}

	return f, nil
}
