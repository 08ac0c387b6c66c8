package crawl

import "fmt"

// CodeNonHTTP marks failures that carry no HTTP status code: connection
// refused, parse failures, missing channel, element overflow, pagination
// and pubdate errors.
const CodeNonHTTP = -1

// CrawlError describes a feed-scoped crawl failure. Code is the HTTP
// status when applicable, CodeNonHTTP otherwise.
type CrawlError struct {
	Code        int
	Description string
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl error %d: %s", e.Code, e.Description)
}

func connectionError() *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: "Connection refused"}
}

func redirectError(status int) *CrawlError {
	return &CrawlError{Code: status, Description: "Too many redirects"}
}

func statusError(status int) *CrawlError {
	return &CrawlError{Code: status, Description: "Bad request"}
}

func malformedError() *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: "Parsing error. Malformed feed."}
}

func noChannelError() *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: "No channel element found."}
}

func rssNotAllowedError() *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: "RSS feeds not allowed."}
}

func overflowError() *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: "Overflow of elements."}
}

func pubdateError(raw string) *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: fmt.Sprintf("Error parsing pubdate %q.", raw)}
}

func timeoutError() *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: descRoundTimeout}
}

const descRoundTimeout = "Round timeout."

// isTimeout reports whether the error is a round-deadline expiry, which
// leaves the feed's first-pass state untouched.
func (e *CrawlError) isTimeout() bool {
	return e.Description == descRoundTimeout
}

func internalError(v any) *CrawlError {
	return &CrawlError{Code: CodeNonHTTP, Description: fmt.Sprintf("Internal crawl failure: %v.", v)}
}
