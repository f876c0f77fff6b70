package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"sitescribe/internal/parser"
)

// DefaultPageProcessor implements the PageProcessor interface. It fetches a
// URL, parses the body, and resolves every anchor href against the final
// URL after redirects.
type DefaultPageProcessor struct {
	httpClient *HTTPClient
	filter     *LinkFilter
}

// NewPageProcessor creates a new page processor.
func NewPageProcessor(httpClient *HTTPClient, filter *LinkFilter) PageProcessor {
	return &DefaultPageProcessor{
		httpClient: httpClient,
		filter:     filter,
	}
}

// Process fetches and parses a single page. Fetch and parse failures are
// returned inside the result as a CrawlError, never as a hard error: one
// failed page must not abort the run.
func (p *DefaultPageProcessor) Process(ctx context.Context, pageURL string) (*PageResult, error) {
	resp, err := p.httpClient.Get(ctx, pageURL)
	if err != nil {
		return &PageResult{
			Error: &CrawlError{
				URL:          pageURL,
				ErrorType:    "network_error",
				ErrorMessage: err.Error(),
				OccurredAt:   time.Now().UTC(),
			},
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &PageResult{
			Error: &CrawlError{
				URL:          pageURL,
				ErrorType:    "http_status",
				ErrorMessage: fmt.Sprintf("unexpected status %d", resp.StatusCode),
				OccurredAt:   time.Now().UTC(),
			},
		}, nil
	}

	parseResult, err := parser.Parse(resp.Body)
	if err != nil {
		return &PageResult{
			Error: &CrawlError{
				URL:          pageURL,
				ErrorType:    "parse_error",
				ErrorMessage: err.Error(),
				OccurredAt:   time.Now().UTC(),
			},
		}, nil
	}

	pageData := &PageData{
		URL:          pageURL,
		StatusCode:   resp.StatusCode,
		Title:        parseResult.Title,
		ContentHash:  parseResult.ContentHash,
		TTFB:         resp.Metrics.TTFB,
		DownloadTime: resp.Metrics.DownloadTime,
		ResponseSize: int64(len(resp.Body)),
		ContentType:  resp.ContentType,
		CrawledAt:    time.Now().UTC(),
	}

	result := &PageResult{
		Page:  pageData,
		Body:  resp.Body,
		Root:  parseResult.Root,
		Links: []*LinkData{},
	}

	final, err := url.Parse(resp.FinalURL)
	if err != nil {
		slog.Warn("Skipping link resolution, unparsable final URL", "url", resp.FinalURL, "error", err)
		return result, nil
	}

	for _, raw := range parseResult.Links {
		resolved, ok := p.filter.Resolve(final, raw.Href)
		if !ok {
			continue
		}

		linkType := "external"
		if u, err := url.Parse(resolved); err == nil && p.filter.SameDomain(u) {
			linkType = "internal"
		}

		result.Links = append(result.Links, &LinkData{
			SourceURL:  resp.FinalURL,
			TargetURL:  resolved,
			AnchorText: raw.AnchorText,
			LinkType:   linkType,
			CrawledAt:  time.Now().UTC(),
		})
	}

	return result, nil
}
