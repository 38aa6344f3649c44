package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/volbyscrape/internal/config"
	"github.com/IshaanNene/volbyscrape/internal/engine"
	"github.com/IshaanNene/volbyscrape/internal/fetcher"
	"github.com/IshaanNene/volbyscrape/internal/storage"
	"github.com/IshaanNene/volbyscrape/internal/types"
)

// rootFlags holds the command-line flags of one root command.
type rootFlags struct {
	cfgFile     string
	verbose     bool
	timeout     time.Duration
	userAgent   string
	fetcherType string
	collation   string
	lineEnding  string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

// newRootCmd creates the root command together with the flag state it binds.
func newRootCmd() (*cobra.Command, *rootFlags) {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "volbyscrape <url> <output.csv>",
		Short: "Scrape Czech parliamentary election results from volby.cz into CSV",
		Long: `volbyscrape downloads election results published on volby.cz and writes
them as one semicolon-delimited CSV (UTF-8 with BOM).

The URL may point at a district's municipality listing, in which case every
municipality is scraped in listing order, or at a single municipality's
results page.`,
		Example: `  volbyscrape "https://www.volby.cz/pls/ps2017nss/ps32?xjazyk=CZ&xkraj=12&xnumnuts=7103" prostejov.csv`,
		Args:          cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, flags, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.cfgFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-request timeout (e.g. 30s)")
	cmd.Flags().StringVar(&flags.userAgent, "user-agent", "", "custom User-Agent string")
	cmd.Flags().StringVar(&flags.fetcherType, "fetcher", "", "page fetcher: http or browser")
	cmd.Flags().StringVar(&flags.collation, "collation", "", "party column order: binary or czech")
	cmd.Flags().StringVar(&flags.lineEnding, "line-ending", "", "CSV line ending: auto, lf or crlf")

	cmd.AddCommand(versionCmd())
	cmd.AddCommand(configCmd(flags))
	return cmd, flags
}

// runScrape executes the root command.
func runScrape(cmd *cobra.Command, flags *rootFlags, args []string) error {
	rawURL, outputPath := args[0], args[1]

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	if err := config.ValidateURL(rawURL, cfg.Scraper.AllowedHosts); err != nil {
		return fmt.Errorf("provide a valid volby.cz URL (with or without 'www'): %w", err)
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output file path is empty")
	}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("fetcher close error", "error", err)
		}
	}()

	scraper := engine.New(cfg, f, logger)
	scraper.OnClassified(func(url string, kind types.PageKind) {
		fmt.Printf("Page kind: %s\n", kind)
	})
	scraper.OnDetail(func(i, total int, entry types.IndexEntry) {
		logger.Debug("scraping municipality", "n", i, "of", total, "code", entry.Code, "name", entry.Name)
	})

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Printf("Downloading data from the provided URL: %s\n", rawURL)
	start := time.Now()

	store := &announcingStorage{CSVStorage: storage.NewCSVStorage(outputPath, cfg.Output.LineEnding, logger)}
	table, err := scraper.Run(ctx, rawURL, store)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\nProcess interrupted by user.")
			return nil
		}
		if errors.Is(err, types.ErrNotFoundPage) {
			return fmt.Errorf("the page indicates it was not found, the URL might be wrong: %w", err)
		}
		return err
	}

	stats := scraper.Stats().Snapshot()
	fmt.Printf("Data successfully saved to: %s\n", outputPath)
	fmt.Printf("   Municipalities: %d\n", table.Len())
	fmt.Printf("   Parties:        %d\n", len(table.Columns))
	fmt.Printf("   Pages:          %v fetched, %v bytes\n", stats["pages_fetched"], stats["bytes_downloaded"])
	fmt.Printf("   Elapsed:        %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// announcingStorage prints the output path before the table is written.
type announcingStorage struct {
	*storage.CSVStorage
}

func (s *announcingStorage) Store(table *types.ResultTable) error {
	fmt.Printf("Saving to: %s\n", s.Path())
	return s.CSVStorage.Store(table)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("volbyscrape %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Fetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  User Agent:        %s\n", cfg.Fetcher.UserAgent)
			fmt.Printf("  Follow Redirects:  %v (max %d)\n", cfg.Fetcher.FollowRedirects, cfg.Fetcher.MaxRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  Stealth:           %v\n", cfg.Fetcher.Stealth)
			fmt.Printf("\nScraper:\n")
			fmt.Printf("  Allowed Hosts:     %s\n", strings.Join(cfg.Scraper.AllowedHosts, ", "))
			fmt.Printf("  Not Found Marker:  %q\n", cfg.Scraper.NotFoundMarker)
			fmt.Printf("  Listing Headers:   %s\n", strings.Join(cfg.Scraper.IndexHeaderLabels, ", "))
			fmt.Printf("\nOutput:\n")
			fmt.Printf("  Line Ending:       %s\n", cfg.Output.LineEnding)
			fmt.Printf("  Collation:         %s\n", cfg.Output.Collation)
			fmt.Printf("\nLogging:\n")
			fmt.Printf("  Level:             %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:            %s\n", cfg.Logging.Format)
			return nil
		},
	}
}

// loadConfig loads the config file, applies flag overrides and validates
// the result.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cmd, flags, cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) {
	if cmd.Flags().Changed("timeout") {
		cfg.Fetcher.RequestTimeout = flags.timeout
	}
	if flags.userAgent != "" {
		cfg.Fetcher.UserAgent = flags.userAgent
	}
	if flags.fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(flags.fetcherType)
	}
	if flags.collation != "" {
		cfg.Output.Collation = strings.ToLower(flags.collation)
	}
	if flags.lineEnding != "" {
		cfg.Output.LineEnding = strings.ToLower(flags.lineEnding)
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
