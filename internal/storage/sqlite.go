// Package storage provides the SQLite crawl record. It persists page
// results, the discovered link graph, per-page failures, and run metadata.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sitescribe/internal/crawler"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the crawler.Storage interface using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance and initializes
// the schema.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	storage := &SQLiteStorage{db: db}

	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the database schema.
func (s *SQLiteStorage) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// RecordPage stores the result of a crawled page, upserting by URL so a
// page first seen as a link target gains its crawl fields.
func (s *SQLiteStorage) RecordPage(page *crawler.PageData) error {
	_, err := s.db.Exec(`
		INSERT INTO pages (
			url, depth, status_code, title, content_hash,
			ttfb_ms, download_time_ms, response_size_bytes, content_type, crawled_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			depth = excluded.depth,
			status_code = excluded.status_code,
			title = excluded.title,
			content_hash = excluded.content_hash,
			ttfb_ms = excluded.ttfb_ms,
			download_time_ms = excluded.download_time_ms,
			response_size_bytes = excluded.response_size_bytes,
			content_type = excluded.content_type,
			crawled_at = excluded.crawled_at
	`,
		page.URL,
		page.Depth,
		page.StatusCode,
		page.Title,
		page.ContentHash,
		page.TTFB.Milliseconds(),
		page.DownloadTime.Milliseconds(),
		page.ResponseSize,
		page.ContentType,
		page.CrawledAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record page %s: %w", page.URL, err)
	}
	return nil
}

// RecordLinks stores link relationships in a single transaction, creating
// placeholder page rows for URLs not crawled yet.
func (s *SQLiteStorage) RecordLinks(links []*crawler.LinkData) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Resolve or create all page IDs up front
	urlSet := make(map[string]bool)
	for _, link := range links {
		urlSet[link.SourceURL] = true
		urlSet[link.TargetURL] = true
	}

	urlToID := make(map[string]int64)
	for url := range urlSet {
		id, err := getOrCreatePageID(tx, url)
		if err != nil {
			return err
		}
		urlToID[url] = id
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO links (
			source_page_id, target_page_id, anchor_text, link_type, crawled_at
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, link := range links {
		if _, err := stmt.Exec(
			urlToID[link.SourceURL],
			urlToID[link.TargetURL],
			link.AnchorText,
			link.LinkType,
			link.CrawledAt,
		); err != nil {
			return fmt.Errorf("failed to insert link %s -> %s: %w", link.SourceURL, link.TargetURL, err)
		}
	}

	return tx.Commit()
}

// RecordError stores a per-page failure and mirrors it onto the page row.
func (s *SQLiteStorage) RecordError(crawlErr *crawler.CrawlError) error {
	_, err := s.db.Exec(`
		INSERT INTO crawl_errors (url, error_type, error_message, occurred_at)
		VALUES (?, ?, ?, ?)
	`,
		crawlErr.URL,
		crawlErr.ErrorType,
		crawlErr.ErrorMessage,
		crawlErr.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO pages (url, error_type, error_message)
		VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			error_type = excluded.error_type,
			error_message = excluded.error_message
	`, crawlErr.URL, crawlErr.ErrorType, crawlErr.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to mark page error: %w", err)
	}

	return nil
}

// SetMeta stores a run metadata value.
func (s *SQLiteStorage) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO crawl_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

// GetMeta retrieves a run metadata value; missing keys return "".
func (s *SQLiteStorage) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM crawl_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// PageCount returns the number of pages with a recorded crawl result.
func (s *SQLiteStorage) PageCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM pages WHERE crawled_at IS NOT NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// LinkCount returns the number of recorded link relationships.
func (s *SQLiteStorage) LinkCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM links").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// getOrCreatePageID gets the page ID for a URL inside the transaction,
// creating a placeholder row if the URL is new.
func getOrCreatePageID(tx *sql.Tx, url string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM pages WHERE url = ?", url).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query page ID for %s: %w", url, err)
	}

	result, err := tx.Exec("INSERT OR IGNORE INTO pages (url) VALUES (?)", url)
	if err != nil {
		return 0, fmt.Errorf("failed to insert page %s: %w", url, err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for %s: %w", url, err)
	}

	if id == 0 {
		if err := tx.QueryRow("SELECT id FROM pages WHERE url = ?", url).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to get existing page ID for %s: %w", url, err)
		}
	}

	return id, nil
}
