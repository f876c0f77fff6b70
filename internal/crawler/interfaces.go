package crawler

import (
	"context"
	"log/slog"

	"golang.org/x/net/html"
)

// PageProcessor handles fetching and parsing of a single URL.
type PageProcessor interface {
	Process(ctx context.Context, url string) (*PageResult, error)
}

// ContentExtractor extracts selector-targeted text from a parsed document.
type ContentExtractor interface {
	Extract(root *html.Node, pageURL string) string
}

// Sink consumes the controller's output stream: raw HTML per page, extracted
// text per page, and a one-shot finalization step after the crawl.
type Sink interface {
	WriteHTML(url string, body []byte) error
	WriteExtracted(url, text string) error
	Finalize() error
	Close() error
}

// Storage records the crawl: page results, the link graph, errors, and run
// metadata. The frontier itself is in-memory and never persisted.
type Storage interface {
	RecordPage(page *PageData) error
	RecordLinks(links []*LinkData) error
	RecordError(crawlErr *CrawlError) error
	SetMeta(key, value string) error
	GetMeta(key string) (string, error)
	Close() error
}

// Reporter receives progress snapshots. It is observability only and never
// a control input.
type Reporter interface {
	ReportProgress(snapshot ProgressSnapshot)
}

// LogReporter reports progress through slog.
type LogReporter struct{}

// ReportProgress logs the snapshot at info level.
func (LogReporter) ReportProgress(s ProgressSnapshot) {
	slog.Info("Crawl progress",
		"processed", s.PagesProcessed,
		"failed", s.PagesFailed,
		"frontier", s.FrontierSize,
		"visited", s.VisitedCount)
}

// NopStorage is a Storage that records nothing. It backs runs with the
// crawl record disabled.
type NopStorage struct{}

// RecordPage implements Storage.
func (NopStorage) RecordPage(*PageData) error { return nil }

// RecordLinks implements Storage.
func (NopStorage) RecordLinks([]*LinkData) error { return nil }

// RecordError implements Storage.
func (NopStorage) RecordError(*CrawlError) error { return nil }

// SetMeta implements Storage.
func (NopStorage) SetMeta(string, string) error { return nil }

// GetMeta implements Storage.
func (NopStorage) GetMeta(string) (string, error) { return "", nil }

// Close implements Storage.
func (NopStorage) Close() error { return nil }
