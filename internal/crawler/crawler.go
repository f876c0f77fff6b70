// Package crawler provides the core crawling functionality of sitescribe.
// It implements a single-threaded, queue-driven controller that fetches one
// URL at a time, streams raw HTML and extracted text to the output sink,
// and feeds filtered links back into the frontier until it drains or the
// depth ceiling cuts off discovery.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"sitescribe/internal/config"
)

// Controller orchestrates the crawl. Exactly one URL is in flight at any
// moment; that is a deliberate simplicity and politeness trade-off, so the
// frontier and visited set need no synchronization.
type Controller struct {
	cfg       *config.ScrapeConfig
	frontier  *Frontier
	filter    *LinkFilter
	processor PageProcessor
	extractor ContentExtractor
	sink      Sink
	storage   Storage
	reporter  Reporter

	stats CrawlStats
}

// NewController creates a crawl controller. The filter must be the same one
// the page processor resolves links with. The extractor may be nil when no
// target selector is configured; storage and reporter always have working
// defaults.
func NewController(cfg *config.ScrapeConfig, filter *LinkFilter, processor PageProcessor, extractor ContentExtractor, sink Sink, storage Storage, reporter Reporter) (*Controller, error) {
	if filter == nil {
		return nil, fmt.Errorf("link filter is required")
	}

	if storage == nil {
		storage = NopStorage{}
	}
	if reporter == nil {
		reporter = LogReporter{}
	}

	return &Controller{
		cfg:       cfg,
		frontier:  NewFrontier(cfg.MaxDepth),
		filter:    filter,
		processor: processor,
		extractor: extractor,
		sink:      sink,
		storage:   storage,
		reporter:  reporter,
	}, nil
}

// Run drives the crawl until the frontier is empty or the context is
// cancelled. Individual page failures are logged and recorded but never
// abort the run. After the loop the sink is finalized, which performs the
// one-shot markdown conversion of the accumulated HTML.
func (c *Controller) Run(ctx context.Context) error {
	c.stats.StartTime = time.Now()

	seed := c.filter.SeedURL()
	slog.Info("Starting crawl", "seed", seed, "max_depth", c.cfg.MaxDepth, "strict", c.cfg.StrictURL, "sublinks", c.cfg.Sublinks)

	if err := c.storage.SetMeta("seed_url", seed); err != nil {
		slog.Error("Failed to record run metadata", "error", err)
	}
	if err := c.storage.SetMeta("started_at", c.stats.StartTime.UTC().Format(time.RFC3339)); err != nil {
		slog.Error("Failed to record run metadata", "error", err)
	}

	c.frontier.Seed(seed)

loop:
	for {
		select {
		case <-ctx.Done():
			slog.Info("Crawl cancelled", "processed", c.stats.PagesProcessed)
			break loop
		default:
		}

		item, ok := c.frontier.Next()
		if !ok {
			break
		}

		c.processItem(ctx, item)

		c.reporter.ReportProgress(ProgressSnapshot{
			PagesProcessed: c.stats.PagesProcessed,
			PagesFailed:    c.stats.PagesFailed,
			FrontierSize:   c.frontier.Len(),
			VisitedCount:   c.frontier.VisitedCount(),
		})
	}

	c.stats.Duration = time.Since(c.stats.StartTime)

	if err := c.storage.SetMeta("finished_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Error("Failed to record run metadata", "error", err)
	}
	if err := c.storage.SetMeta("pages_crawled", strconv.Itoa(c.stats.PagesProcessed)); err != nil {
		slog.Error("Failed to record run metadata", "error", err)
	}

	slog.Info("Crawl complete",
		"processed", c.stats.PagesProcessed,
		"failed", c.stats.PagesFailed,
		"visited", c.frontier.VisitedCount(),
		"duration", c.stats.Duration)

	return c.sink.Finalize()
}

// processItem runs the per-URL pipeline: fetch, persist HTML, parse, enqueue
// filtered links, extract targeted content, record the page.
func (c *Controller) processItem(ctx context.Context, item FrontierItem) {
	slog.Debug("Processing URL", "url", item.URL, "depth", item.Depth)

	result, err := c.processor.Process(ctx, item.URL)
	if err != nil {
		// Processor contract places page failures inside the result; an
		// error here means the pipeline itself is broken. Still non-fatal.
		slog.Error("Processor failed", "url", item.URL, "error", err)
		c.stats.PagesFailed++
		return
	}

	if result.Error != nil {
		slog.Warn("Skipping page", "url", item.URL, "type", result.Error.ErrorType, "reason", result.Error.ErrorMessage)
		if err := c.storage.RecordError(result.Error); err != nil {
			slog.Error("Failed to record crawl error", "url", item.URL, "error", err)
		}
		c.stats.PagesFailed++
		return
	}

	if err := c.sink.WriteHTML(result.Page.URL, result.Body); err != nil {
		slog.Error("Failed to write HTML output", "url", item.URL, "error", err)
	}

	c.enqueueLinks(result, item.Depth)

	if c.extractor != nil {
		if text := c.extractor.Extract(result.Root, item.URL); text != "" {
			if err := c.sink.WriteExtracted(item.URL, text); err != nil {
				slog.Error("Failed to write extracted data", "url", item.URL, "error", err)
			}
		} else {
			slog.Warn("No data found for selector", "url", item.URL, "selector", c.cfg.TargetSelector)
		}
	}

	result.Page.Depth = item.Depth
	if err := c.storage.RecordPage(result.Page); err != nil {
		slog.Error("Failed to record page", "url", item.URL, "error", err)
	}

	c.stats.PagesProcessed++
}

// enqueueLinks offers internal links that pass the filter rules to the
// frontier at depth+1 and records the full link graph.
func (c *Controller) enqueueLinks(result *PageResult, depth int) {
	added := 0
	for _, link := range result.Links {
		if link.LinkType != "internal" {
			continue
		}
		if !c.filter.Allow(link.TargetURL) {
			continue
		}
		if c.frontier.Offer(link.TargetURL, depth+1) {
			added++
		}
	}

	c.stats.LinksFound += len(result.Links)
	slog.Debug("Enqueued links", "url", result.Page.URL, "found", len(result.Links), "added", added, "frontier", c.frontier.Len())

	if err := c.storage.RecordLinks(result.Links); err != nil {
		slog.Error("Failed to record links", "url", result.Page.URL, "error", err)
	}
}

// GetStats returns the current run counters.
func (c *Controller) GetStats() CrawlStats {
	stats := c.stats
	if !stats.StartTime.IsZero() && stats.Duration == 0 {
		stats.Duration = time.Since(stats.StartTime)
	}
	return stats
}
