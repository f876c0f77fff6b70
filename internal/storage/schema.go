package storage

const schemaSQL = `
-- Crawl record: one row per URL the crawler touched or discovered.
-- The frontier itself is in-memory; rows here are results, not work items.
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,

    -- Crawl result fields (NULL for pages only discovered via links)
    depth INTEGER,
    status_code INTEGER,
    title TEXT,
    content_hash TEXT,
    ttfb_ms INTEGER,
    download_time_ms INTEGER,
    response_size_bytes INTEGER,
    content_type TEXT,
    crawled_at DATETIME,

    -- Failure tracking
    error_type TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
CREATE INDEX IF NOT EXISTS idx_pages_content_hash ON pages(content_hash) WHERE content_hash IS NOT NULL;

-- Link graph between pages, internal and external targets alike
CREATE TABLE IF NOT EXISTS links (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_page_id INTEGER NOT NULL REFERENCES pages(id),
    target_page_id INTEGER NOT NULL REFERENCES pages(id),
    anchor_text TEXT,
    link_type TEXT CHECK (link_type IN ('internal', 'external')),
    crawled_at DATETIME,
    UNIQUE(source_page_id, target_page_id, anchor_text)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_page_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_page_id);

-- Per-page failures, kept separately so repeated runs accumulate history
CREATE TABLE IF NOT EXISTS crawl_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    error_type TEXT,
    error_message TEXT,
    occurred_at DATETIME
);

-- Run metadata (seed URL, timestamps, page counts)
CREATE TABLE IF NOT EXISTS crawl_meta (
    key TEXT PRIMARY KEY,
    value TEXT
);
`
