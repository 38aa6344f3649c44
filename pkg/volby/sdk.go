// Package volby provides a public SDK for embedding volbyscrape as a library.
//
// Example usage:
//
//	client := volby.NewClient(
//	    volby.WithTimeout(20*time.Second),
//	    volby.WithCollation("czech"),
//	)
//
//	res, err := client.Scrape(ctx, "https://www.volby.cz/pls/ps2017nss/ps32?xjazyk=CZ&xkraj=12&xnumnuts=7103")
//	if err != nil {
//	    return err
//	}
//	for i, row := range res.Table.Rows {
//	    fmt.Println(row.Name, res.Table.VoteCount(i, "ANO 2011"))
//	}
//	return res.WriteCSV("prostejov.csv")
package volby

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/volbyscrape/internal/config"
	"github.com/IshaanNene/volbyscrape/internal/engine"
	"github.com/IshaanNene/volbyscrape/internal/fetcher"
	"github.com/IshaanNene/volbyscrape/internal/pipeline"
	"github.com/IshaanNene/volbyscrape/internal/storage"
	"github.com/IshaanNene/volbyscrape/internal/types"
)

type (
	// Record holds one municipality's results.
	Record = types.MunicipalityRecord

	// Table is the aggregated result of a run.
	Table = types.ResultTable

	// PageKind tells whether a URL was a listing or a single municipality.
	PageKind = types.PageKind
)

const (
	PageIndex  = types.PageIndex
	PageDetail = types.PageDetail
)

// Option configures a Client.
type Option func(*config.Config)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Fetcher.RequestTimeout = d }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgent = ua }
}

// WithBrowser fetches pages with a headless browser instead of plain HTTP.
func WithBrowser(stealth bool) Option {
	return func(c *config.Config) {
		c.Fetcher.Type = "browser"
		c.Fetcher.Stealth = stealth
	}
}

// WithAllowedHosts replaces the hosts URLs may point at.
func WithAllowedHosts(hosts ...string) Option {
	return func(c *config.Config) { c.Scraper.AllowedHosts = hosts }
}

// WithCollation sets the party column order: "binary" or "czech".
func WithCollation(collation string) Option {
	return func(c *config.Config) { c.Output.Collation = collation }
}

// WithLineEnding sets the CSV line ending: "auto", "lf" or "crlf".
func WithLineEnding(lineEnding string) Option {
	return func(c *config.Config) { c.Output.LineEnding = lineEnding }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Client scrapes results pages.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewClient creates a new Client with the given options.
func NewClient(opts ...Option) *Client {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Client{cfg: cfg, logger: logger}
}

// Result is the outcome of a Scrape call.
type Result struct {
	// Kind is the kind of the scraped URL.
	Kind PageKind

	// Table holds the municipalities in listing order and the party columns.
	Table *Table

	// Stats are the run statistics.
	Stats map[string]any

	lineEnding string
	logger     *slog.Logger
}

// Scrape downloads every municipality reachable from rawURL.
func (c *Client) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	if err := config.Validate(c.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := config.ValidateURL(rawURL, c.cfg.Scraper.AllowedHosts); err != nil {
		return nil, err
	}

	f, err := fetcher.New(c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	scraper := engine.New(c.cfg, f, c.logger)
	res, err := scraper.Scrape(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:       res.Kind,
		Table:      pipeline.Aggregate(res.Records, c.cfg.Output.Collation),
		Stats:      scraper.Stats().Snapshot(),
		lineEnding: c.cfg.Output.LineEnding,
		logger:     c.logger,
	}, nil
}

// WriteCSV writes the table to path in the volbyscrape CSV format.
func (r *Result) WriteCSV(path string) error {
	return storage.NewCSVStorage(path, r.lineEnding, r.logger).Store(r.Table)
}

// Scrape is a shorthand for NewClient(opts...).Scrape(ctx, rawURL).
func Scrape(ctx context.Context, rawURL string, opts ...Option) (*Result, error) {
	return NewClient(opts...).Scrape(ctx, rawURL)
}
