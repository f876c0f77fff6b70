// Package output owns the files the crawl writes: the accumulated HTML
// stream, the selector data stream, and the final markdown conversion. Both
// streams are opened once, appended to per page, and flushed immediately so
// a mid-run crash leaves partial but valid output.
package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sitescribe/internal/markdown"
)

const ruleLine = "================================================================================"

// FileSink writes crawl output to disk.
type FileSink struct {
	htmlPath string
	mdPath   string
	dataPath string
	selector string

	htmlFile *os.File
	dataFile *os.File
}

// NewFileSink creates the output directory, truncates the HTML file, and,
// when a selector is configured, initializes the data file with its run
// header.
func NewFileSink(outputDir, htmlPath, mdPath, dataPath, selector string) (*FileSink, error) {
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	htmlFile, err := os.OpenFile(htmlPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HTML file: %w", err)
	}

	sink := &FileSink{
		htmlPath: htmlPath,
		mdPath:   mdPath,
		dataPath: dataPath,
		selector: selector,
		htmlFile: htmlFile,
	}

	if selector != "" {
		if err := sink.initDataFile(); err != nil {
			_ = htmlFile.Close()
			return nil, err
		}
	}

	slog.Debug("Initialized output sink", "html", htmlPath, "data", dataPath)
	return sink, nil
}

// initDataFile creates the data file and writes the run header.
func (s *FileSink) initDataFile() error {
	if dir := filepath.Dir(s.dataPath); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dataFile, err := os.OpenFile(s.dataPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to initialize data file: %w", err)
	}

	header := fmt.Sprintf("Extracted data for selector '%s'\nStarted at: %s\n\n",
		s.selector, time.Now().Format("2006-01-02 15:04:05"))
	if _, err := dataFile.WriteString(header); err != nil {
		_ = dataFile.Close()
		return fmt.Errorf("failed to write data file header: %w", err)
	}

	s.dataFile = dataFile
	return nil
}

// WriteHTML appends a page's raw HTML to the cumulative HTML file, prefixed
// with a source-URL marker so pages stay traceable in the concatenated
// output.
func (s *FileSink) WriteHTML(url string, body []byte) error {
	var b strings.Builder
	b.WriteString("<!-- PAGE: " + url + " -->\n")
	b.Write(body)
	if len(body) == 0 || body[len(body)-1] != '\n' {
		b.WriteByte('\n')
	}

	if _, err := s.htmlFile.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}
	return nil
}

// WriteExtracted appends one page's extracted text to the data file with the
// page-delimiter framing: a rule line, the source URL, a rule line, a blank
// line, then the text.
func (s *FileSink) WriteExtracted(url, text string) error {
	if s.dataFile == nil {
		return nil
	}

	block := fmt.Sprintf("\n%s\nPAGE: %s\n%s\n\n%s\n", ruleLine, url, ruleLine, text)
	if _, err := s.dataFile.WriteString(block); err != nil {
		return fmt.Errorf("failed to write extracted data: %w", err)
	}

	slog.Debug("Wrote extracted data", "url", url, "chars", len(text))
	return nil
}

// Finalize syncs the streams and converts the accumulated HTML file to
// markdown, producing the sibling .md file. It runs once, after the crawl
// loop ends.
func (s *FileSink) Finalize() error {
	if err := s.htmlFile.Sync(); err != nil {
		slog.Warn("Failed to sync HTML file", "error", err)
	}

	slog.Info("Converting HTML to Markdown", "source", s.htmlPath, "target", s.mdPath)
	if err := markdown.ConvertFile(s.htmlPath, s.mdPath); err != nil {
		return fmt.Errorf("failed to convert %s to markdown: %w", s.htmlPath, err)
	}
	return nil
}

// Close closes both streams.
func (s *FileSink) Close() error {
	var firstErr error
	if err := s.htmlFile.Close(); err != nil {
		firstErr = err
	}
	if s.dataFile != nil {
		if err := s.dataFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
