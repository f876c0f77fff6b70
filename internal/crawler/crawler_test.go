package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sitescribe/internal/config"
)

// memorySink collects sink writes in memory for assertions.
type memorySink struct {
	mu        sync.Mutex
	htmlPages []string
	extracted map[string]string
	finalized bool
}

func newMemorySink() *memorySink {
	return &memorySink{extracted: make(map[string]string)}
}

func (s *memorySink) WriteHTML(url string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.htmlPages = append(s.htmlPages, url)
	return nil
}

func (s *memorySink) WriteExtracted(url, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracted[url] = text
	return nil
}

func (s *memorySink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = true
	return nil
}

func (s *memorySink) Close() error { return nil }

// memoryStorage records pages, links and errors in memory.
type memoryStorage struct {
	NopStorage
	mu     sync.Mutex
	pages  []*PageData
	links  []*LinkData
	errors []*CrawlError
	meta   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{meta: make(map[string]string)}
}

func (m *memoryStorage) RecordPage(page *PageData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, page)
	return nil
}

func (m *memoryStorage) RecordLinks(links []*LinkData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, links...)
	return nil
}

func (m *memoryStorage) RecordError(crawlErr *CrawlError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, crawlErr)
	return nil
}

func (m *memoryStorage) SetMeta(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = value
	return nil
}

func (m *memoryStorage) GetMeta(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta[key], nil
}

// testSite serves a small site of interlinked pages.
func testSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func runTestCrawl(t *testing.T, cfg *config.ScrapeConfig) (*memorySink, *memoryStorage, *Controller) {
	t.Helper()

	filter, err := NewLinkFilter(cfg.URL, cfg.SubPath, cfg.Sublinks, cfg.StrictURL)
	if err != nil {
		t.Fatalf("NewLinkFilter failed: %v", err)
	}

	client := NewHTTPClient(cfg.UserAgent, 10*time.Second, false)
	t.Cleanup(client.Close)

	sink := newMemorySink()
	store := newMemoryStorage()

	controller, err := NewController(cfg, filter, NewPageProcessor(client, filter), nil, sink, store, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	if err := controller.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	return sink, store, controller
}

func TestCrawlVisitsEachPageOnce(t *testing.T) {
	server := testSite(t, map[string]string{
		"/": `<html><body>
			<a href="/a">A</a>
			<a href="/b">B</a>
		</body></html>`,
		"/a": `<html><body><a href="/b">B</a><a href="/">Home</a></body></html>`,
		"/b": `<html><body><a href="/a">A</a></body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false

	sink, _, controller := runTestCrawl(t, cfg)

	if len(sink.htmlPages) != 3 {
		t.Fatalf("Expected 3 pages written, got %d: %v", len(sink.htmlPages), sink.htmlPages)
	}

	seen := make(map[string]int)
	for _, u := range sink.htmlPages {
		seen[u]++
	}
	for u, n := range seen {
		if n != 1 {
			t.Errorf("Page %s written %d times, want 1", u, n)
		}
	}

	stats := controller.GetStats()
	if stats.PagesProcessed != 3 {
		t.Errorf("PagesProcessed = %d, want 3", stats.PagesProcessed)
	}
	if stats.PagesFailed != 0 {
		t.Errorf("PagesFailed = %d, want 0", stats.PagesFailed)
	}
	if !sink.finalized {
		t.Error("Sink was not finalized after the crawl")
	}
}

func TestCrawlDepthBound(t *testing.T) {
	server := testSite(t, map[string]string{
		"/":   `<html><body><a href="/d1">next</a></body></html>`,
		"/d1": `<html><body><a href="/d2">next</a></body></html>`,
		"/d2": `<html><body><a href="/d3">next</a></body></html>`,
		"/d3": `<html><body>end</body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false
	cfg.MaxDepth = 1

	sink, _, _ := runTestCrawl(t, cfg)

	// Seed is depth 0; only /d1 at depth 1 is within the ceiling
	if len(sink.htmlPages) != 2 {
		t.Fatalf("Expected 2 pages with max depth 1, got %d: %v", len(sink.htmlPages), sink.htmlPages)
	}
	for _, u := range sink.htmlPages {
		if strings.HasSuffix(u, "/d2") || strings.HasSuffix(u, "/d3") {
			t.Errorf("Page %s beyond depth ceiling was crawled", u)
		}
	}
}

func TestCrawlStaysOnDomain(t *testing.T) {
	server := testSite(t, map[string]string{
		"/": `<html><body>
			<a href="/local">Local</a>
			<a href="https://other.example.org/away">Away</a>
			<a href="mailto:info@example.com">Mail</a>
		</body></html>`,
		"/local": `<html><body>done</body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false
	cfg.MaxDepth = 1

	sink, store, _ := runTestCrawl(t, cfg)

	if len(sink.htmlPages) != 2 {
		t.Fatalf("Expected 2 pages, got %d: %v", len(sink.htmlPages), sink.htmlPages)
	}
	for _, u := range sink.htmlPages {
		if strings.Contains(u, "other.example.org") {
			t.Errorf("External page %s was crawled", u)
		}
	}

	// The external link is still recorded in the link graph
	var sawExternal bool
	for _, l := range store.links {
		if l.TargetURL == "https://other.example.org/away" {
			sawExternal = true
			if l.LinkType != "external" {
				t.Errorf("Expected link type 'external', got '%s'", l.LinkType)
			}
		}
		if strings.HasPrefix(l.TargetURL, "mailto:") {
			t.Errorf("mailto link recorded: %s", l.TargetURL)
		}
	}
	if !sawExternal {
		t.Error("External link missing from the link graph")
	}
}

func TestCrawlSublinkFilter(t *testing.T) {
	server := testSite(t, map[string]string{
		"/": `<html><body>
			<a href="/docs/intro">Docs</a>
			<a href="/blog/post">Blog</a>
		</body></html>`,
		"/docs/intro": `<html><body>docs</body></html>`,
		"/blog/post":  `<html><body>blog</body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false
	cfg.Sublinks = []string{"/docs/"}

	sink, _, _ := runTestCrawl(t, cfg)

	if len(sink.htmlPages) != 2 {
		t.Fatalf("Expected seed plus one docs page, got %d: %v", len(sink.htmlPages), sink.htmlPages)
	}
	for _, u := range sink.htmlPages {
		if strings.Contains(u, "/blog/") {
			t.Errorf("Filtered page %s was crawled", u)
		}
	}
}

func TestCrawlContinuesPastFailedPages(t *testing.T) {
	server := testSite(t, map[string]string{
		"/": `<html><body>
			<a href="/missing">Broken</a>
			<a href="/ok">OK</a>
		</body></html>`,
		"/ok": `<html><body>fine</body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false

	sink, store, controller := runTestCrawl(t, cfg)

	// /missing 404s but the crawl carries on to /ok
	if len(sink.htmlPages) != 2 {
		t.Fatalf("Expected 2 successful pages, got %d: %v", len(sink.htmlPages), sink.htmlPages)
	}

	stats := controller.GetStats()
	if stats.PagesFailed != 1 {
		t.Errorf("PagesFailed = %d, want 1", stats.PagesFailed)
	}

	if len(store.errors) != 1 {
		t.Fatalf("Expected 1 recorded error, got %d", len(store.errors))
	}
	if store.errors[0].ErrorType != "http_status" {
		t.Errorf("Expected error type 'http_status', got '%s'", store.errors[0].ErrorType)
	}
}

func TestCrawlStrictPathPrefix(t *testing.T) {
	server := testSite(t, map[string]string{
		"/docs/":     `<html><body><a href="/docs/page">In</a><a href="/blog/post">Out</a></body></html>`,
		"/docs/page": `<html><body>in scope</body></html>`,
		"/blog/post": `<html><body>out of scope</body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/docs/"
	cfg.StrictURL = true

	sink, _, _ := runTestCrawl(t, cfg)

	if len(sink.htmlPages) != 2 {
		t.Fatalf("Expected 2 pages under /docs/, got %d: %v", len(sink.htmlPages), sink.htmlPages)
	}
	for _, u := range sink.htmlPages {
		if strings.Contains(u, "/blog/") {
			t.Errorf("Out-of-prefix page %s was crawled", u)
		}
	}
}

func TestCrawlRecordsDepthAndMeta(t *testing.T) {
	server := testSite(t, map[string]string{
		"/":  `<html><head><title>Root</title></head><body><a href="/a">A</a></body></html>`,
		"/a": `<html><head><title>A</title></head><body></body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false

	_, store, _ := runTestCrawl(t, cfg)

	depths := make(map[string]int)
	for _, p := range store.pages {
		depths[p.Title] = p.Depth
	}
	if depths["Root"] != 0 {
		t.Errorf("Seed depth = %d, want 0", depths["Root"])
	}
	if depths["A"] != 1 {
		t.Errorf("Linked page depth = %d, want 1", depths["A"])
	}

	if store.meta["seed_url"] != server.URL+"/" {
		t.Errorf("seed_url meta = %q, want %q", store.meta["seed_url"], server.URL+"/")
	}
	if store.meta["pages_crawled"] != "2" {
		t.Errorf("pages_crawled meta = %q, want \"2\"", store.meta["pages_crawled"])
	}
	if store.meta["started_at"] == "" || store.meta["finished_at"] == "" {
		t.Error("Expected started_at and finished_at meta to be recorded")
	}
}

// recordingReporter captures progress snapshots for assertions.
type recordingReporter struct {
	snapshots []ProgressSnapshot
}

func (r *recordingReporter) ReportProgress(s ProgressSnapshot) {
	r.snapshots = append(r.snapshots, s)
}

func TestCrawlReportsProgressPerIteration(t *testing.T) {
	server := testSite(t, map[string]string{
		"/":  `<html><body><a href="/a">A</a></body></html>`,
		"/a": `<html><body></body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false

	filter, err := NewLinkFilter(cfg.URL, "", nil, false)
	if err != nil {
		t.Fatalf("NewLinkFilter failed: %v", err)
	}
	client := NewHTTPClient(cfg.UserAgent, 10*time.Second, false)
	defer client.Close()

	reporter := &recordingReporter{}
	controller, err := NewController(cfg, filter, NewPageProcessor(client, filter), nil, newMemorySink(), nil, reporter)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	if err := controller.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// One snapshot per dequeued URL
	if len(reporter.snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(reporter.snapshots))
	}
	last := reporter.snapshots[len(reporter.snapshots)-1]
	if last.PagesProcessed != 2 {
		t.Errorf("Final PagesProcessed = %d, want 2", last.PagesProcessed)
	}
	if last.FrontierSize != 0 {
		t.Errorf("Final FrontierSize = %d, want 0", last.FrontierSize)
	}
	if last.VisitedCount != 2 {
		t.Errorf("Final VisitedCount = %d, want 2", last.VisitedCount)
	}
}

func TestCrawlCancellation(t *testing.T) {
	server := testSite(t, map[string]string{
		"/":  `<html><body><a href="/a">A</a></body></html>`,
		"/a": `<html><body></body></html>`,
	})

	cfg := config.DefaultConfig()
	cfg.URL = server.URL + "/"
	cfg.StrictURL = false

	filter, err := NewLinkFilter(cfg.URL, "", nil, false)
	if err != nil {
		t.Fatalf("NewLinkFilter failed: %v", err)
	}
	client := NewHTTPClient(cfg.UserAgent, 10*time.Second, false)
	defer client.Close()

	sink := newMemorySink()
	controller, err := NewController(cfg, filter, NewPageProcessor(client, filter), nil, sink, nil, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context stops the loop before any page is fetched, but
	// finalization still runs.
	if err := controller.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sink.htmlPages) != 0 {
		t.Errorf("Expected no pages after immediate cancellation, got %d", len(sink.htmlPages))
	}
	if !sink.finalized {
		t.Error("Sink should be finalized even on cancellation")
	}
}
