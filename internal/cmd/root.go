// Package cmd provides the command-line interface for sitescribe.
// It handles flag parsing, configuration loading, and runs the crawl.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sitescribe/internal/config"
	"sitescribe/internal/crawler"
	"sitescribe/internal/extractor"
	"sitescribe/internal/logging"
	"sitescribe/internal/output"
	"sitescribe/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sitescribe --url URL",
	Short: "Scrape a website into HTML, Markdown and extracted text",
	Long: `Sitescribe crawls a website from a seed URL, one page at a time.

It appends every fetched page to a single HTML file, optionally extracts
selector-targeted text to a data file, converts the accumulated HTML to
Markdown when the crawl finishes, and records pages and links in a SQLite
crawl database.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
	// Config errors are reported once by main, not echoed by cobra too
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sitescribe.yml)")

	// Configuration management flags
	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Target flags
	rootCmd.Flags().StringP("url", "u", "", "Seed URL to scrape (required)")
	rootCmd.Flags().String("sub-path", "", "Starting path appended to the seed URL")

	// Link filtering flags
	rootCmd.Flags().StringSlice("sublinks", []string{}, "Comma-separated substring filters for candidate URLs")
	rootCmd.Flags().Bool("strict-url", true, "Require candidate URLs to share the seed's path prefix")
	rootCmd.Flags().IntP("max-depth", "d", 10, "Maximum link depth from the seed")

	// Extraction flags
	rootCmd.Flags().StringP("target-selector", "s", "", "CSS selector (.class, #id or tag) for data extraction")

	// Output flags
	rootCmd.Flags().StringP("file-name", "f", "output.html", "Output HTML file name")
	rootCmd.Flags().StringP("output-dir", "o", "output", "Directory for output files")

	// HTTP flags
	rootCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.Flags().String("user-agent", "Sitescribe/1.0", "HTTP User-Agent header")
	rootCmd.Flags().Bool("skip-tls-verify", false, "Disable TLS certificate validation")

	// Crawl record flags
	rootCmd.Flags().String("database", "crawl.db", "SQLite crawl record file, relative to the output directory (empty disables)")

	// Logging flags
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-file", "", "Optional log file path")

	// Bind flags to viper
	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"url", "url"},
		{"sub_path", "sub-path"},
		{"sublinks", "sublinks"},
		{"strict_url", "strict-url"},
		{"max_depth", "max-depth"},
		{"target_selector", "target-selector"},
		{"file_name", "file-name"},
		{"output_dir", "output-dir"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
		{"skip_tls_verify", "skip-tls-verify"},
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			// Non-critical for operation
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("sitescribe")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func showCurrentConfig(cfg *config.ScrapeConfig) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current sitescribe configuration\n")
	fmt.Printf("# Config file search path: ./sitescribe.yml\n")
	fmt.Printf("# Environment variable prefix: SS_\n\n")
	fmt.Print(string(yamlData))

	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	// Fatal before any network activity
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg)
}

// loadConfig merges defaults, config file, environment and flags.
func loadConfig() (*config.ScrapeConfig, error) {
	cfg := config.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Sublink patterns may arrive as one comma-separated value from config
	// files or env vars
	cfg.Sublinks = splitSublinks(cfg.Sublinks)

	// The crawl record lives under the output directory unless an explicit
	// path is given
	if cfg.DatabasePath != "" && !strings.ContainsRune(cfg.DatabasePath, os.PathSeparator) {
		cfg.DatabasePath = filepath.Join(cfg.OutputDir, cfg.DatabasePath)
	}

	return cfg, nil
}

// splitSublinks normalizes the sublink patterns: entries may themselves be
// comma separated, and blank entries are dropped.
func splitSublinks(raw []string) []string {
	var patterns []string
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				patterns = append(patterns, part)
			}
		}
	}
	return patterns
}

// runCrawl wires the components together and drives the crawl to completion.
func runCrawl(ctx context.Context, cfg *config.ScrapeConfig) error {
	filter, err := crawler.NewLinkFilter(cfg.URL, cfg.SubPath, cfg.Sublinks, cfg.StrictURL)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sink, err := output.NewFileSink(cfg.OutputDir, cfg.HTMLPath(), cfg.MarkdownPath(), cfg.DataPath(), cfg.TargetSelector)
	if err != nil {
		return fmt.Errorf("failed to initialize output: %w", err)
	}
	defer func() { _ = sink.Close() }()

	var store crawler.Storage = crawler.NopStorage{}
	if cfg.DatabasePath != "" {
		sqlStore, err := storage.NewSQLiteStorage(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize crawl record: %w", err)
		}
		store = sqlStore
	}
	defer func() { _ = store.Close() }()

	httpClient := crawler.NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout, cfg.SkipTLSVerify)
	defer httpClient.Close()

	processor := crawler.NewPageProcessor(httpClient, filter)

	var contentExtractor crawler.ContentExtractor
	if cfg.TargetSelector != "" {
		contentExtractor = extractor.New(cfg.TargetSelector)
	}

	controller, err := crawler.NewController(cfg, filter, processor, contentExtractor, sink, store, crawler.LogReporter{})
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}

	if err := controller.Run(ctx); err != nil {
		// The loop itself never fails on page errors; this is the final
		// markdown conversion step
		slog.Error("Finalization failed", "error", err)
		return err
	}

	return nil
}
