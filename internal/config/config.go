// Package config provides configuration management for sitescribe.
// It defines the scrape configuration structure, defaults, and validation.
package config

import (
	"path/filepath"
	"strings"
	"time"
)

// ScrapeConfig holds the configuration for a single scrape run.
// It is built once at startup and treated as read-only afterwards.
type ScrapeConfig struct {
	// Target
	URL     string `mapstructure:"url" yaml:"url"`           // Seed URL to scrape
	SubPath string `mapstructure:"sub_path" yaml:"sub_path"` // Optional starting path appended to the seed

	// Link filtering
	Sublinks  []string `mapstructure:"sublinks" yaml:"sublinks"`     // Substring patterns a candidate URL must contain (OR-matched)
	StrictURL bool     `mapstructure:"strict_url" yaml:"strict_url"` // Require candidate paths to share the seed's path prefix
	MaxDepth  int      `mapstructure:"max_depth" yaml:"max_depth"`   // Maximum link depth from the seed

	// Extraction
	TargetSelector string `mapstructure:"target_selector" yaml:"target_selector"` // CSS selector (.class, #id or tag) for data extraction

	// Output
	FileName  string `mapstructure:"file_name" yaml:"file_name"`   // Output HTML file name
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"` // Directory for all output files

	// HTTP
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // HTTP request timeout
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header
	SkipTLSVerify  bool          `mapstructure:"skip_tls_verify" yaml:"skip_tls_verify"` // Disable TLS certificate validation

	// Crawl record
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // SQLite crawl record path (empty disables it)

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn or error
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`   // Optional log file path
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *ScrapeConfig {
	return &ScrapeConfig{
		FileName:       "output.html",
		OutputDir:      "output",
		StrictURL:      true,
		MaxDepth:       10,
		RequestTimeout: 30 * time.Second,
		UserAgent:      "Sitescribe/1.0",
		LogLevel:       "info",
	}
}

// Validate checks if the configuration is valid. It is called once at
// startup, before any network activity.
func (c *ScrapeConfig) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}

	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return ErrInvalidURLScheme
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.FileName == "" {
		return ErrEmptyFileName
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// HTMLPath returns the path of the accumulated HTML output file.
func (c *ScrapeConfig) HTMLPath() string {
	return filepath.Join(c.OutputDir, c.FileName)
}

// MarkdownPath returns the path of the converted Markdown file, a sibling
// of the HTML output file.
func (c *ScrapeConfig) MarkdownPath() string {
	name := c.FileName
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return filepath.Join(c.OutputDir, name+".md")
}

// DataPath returns the path of the extraction data file for the configured
// selector. Leading selector punctuation is stripped from the file name.
func (c *ScrapeConfig) DataPath() string {
	sel := strings.TrimLeft(c.TargetSelector, ".#")
	return filepath.Join(c.OutputDir, "data_"+sel+".txt")
}
