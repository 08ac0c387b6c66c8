package crawl

import (
	"errors"
	"net/http"
	"time"
)

// pubdateZonedLayouts are tried first; they carry explicit zone information.
var pubdateZonedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700",
}

// pubdateBareLayouts carry no zone; such timestamps are interpreted in the
// fallback location.
var pubdateBareLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var errUnparseablePubdate = errors.New("unparseable pubdate")

// parsePubDate parses a raw pubdate string and normalizes it to UTC.
// Timestamps without an explicit zone are interpreted in loc, which
// callers derive from the response's Date header.
func parsePubDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errUnparseablePubdate
	}

	for _, layout := range pubdateZonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	for _, layout := range pubdateBareLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errUnparseablePubdate
}

// headerLocation extracts the timezone of the response's Date header.
// Falls back to UTC when the header is absent or unparseable.
func headerLocation(header http.Header) *time.Location {
	v := header.Get("Date")
	if v == "" {
		return time.UTC
	}

	t, err := http.ParseTime(v)
	if err != nil {
		return time.UTC
	}

	return t.Location()
}
