package crawler

import (
	"time"

	"golang.org/x/net/html"
)

// PageData represents a crawled page record.
type PageData struct {
	URL          string
	Depth        int           // Link depth from the seed URL
	StatusCode   int           // HTTP status code
	Title        string        // HTML <title> tag content
	ContentHash  string        // SHA-256 of the raw body, for duplicate detection
	TTFB         time.Duration // Time to First Byte
	DownloadTime time.Duration // Total download time
	ResponseSize int64         // Response body size in bytes
	ContentType  string        // HTTP Content-Type header
	CrawledAt    time.Time     // Timestamp when crawled (UTC)
}

// LinkData represents a discovered link relationship.
type LinkData struct {
	SourceURL  string    // URL of the page containing the link
	TargetURL  string    // Resolved absolute URL the link points to
	AnchorText string    // Text content of the <a> tag
	LinkType   string    // 'internal' (seed domain) or 'external'
	CrawledAt  time.Time // Timestamp when the link was discovered
}

// CrawlError represents a non-fatal per-page failure.
type CrawlError struct {
	URL          string    // URL where the error occurred
	ErrorType    string    // network_error, http_status, parse_error
	ErrorMessage string    // Detailed error message
	OccurredAt   time.Time // Error occurrence timestamp (UTC)
}

// PageResult is the transient outcome of processing a single URL. Exactly
// one of Page or Error is set: a failed fetch or parse produces Error and
// nothing else, so the controller skips the page without writing output.
type PageResult struct {
	Page  *PageData
	Body  []byte     // Raw HTML bytes, for the output sink
	Root  *html.Node // Parsed document tree, for content extraction
	Links []*LinkData
	Error *CrawlError
}

// CrawlStats represents run counters, used for progress reporting only.
type CrawlStats struct {
	PagesProcessed int
	PagesFailed    int
	LinksFound     int
	StartTime      time.Time
	Duration       time.Duration
}

// ProgressSnapshot is handed to the Reporter once per loop iteration.
type ProgressSnapshot struct {
	PagesProcessed int
	PagesFailed    int
	FrontierSize   int
	VisitedCount   int
}
