package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/volbyscrape/internal/config"
	"github.com/IshaanNene/volbyscrape/internal/parser"
	"github.com/IshaanNene/volbyscrape/internal/pipeline"
	"github.com/IshaanNene/volbyscrape/internal/types"
)

// State represents the scraper's lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
	StateStopped State = 2
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats tracks run statistics.
type Stats struct {
	PagesFetched    atomic.Int64
	PagesFailed     atomic.Int64
	BytesDownloaded atomic.Int64
	RecordsParsed   atomic.Int64
	Parties         atomic.Int64
	StartTime       time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"pages_fetched":    s.PagesFetched.Load(),
		"pages_failed":     s.PagesFailed.Load(),
		"bytes_downloaded": s.BytesDownloaded.Load(),
		"records_parsed":   s.RecordsParsed.Load(),
		"parties":          s.Parties.Load(),
		"elapsed":          time.Since(s.StartTime).Round(time.Millisecond).String(),
	}
}

// Fetcher is the interface for all fetcher implementations.
type Fetcher interface {
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)
}

// Pipeline is the interface for the record checks.
type Pipeline interface {
	Process(record *types.MunicipalityRecord) error
}

// Storage is the interface for all storage backends.
type Storage interface {
	Store(table *types.ResultTable) error
	Close() error
}

// ClassifiedCallback is called once the start page's kind is known.
type ClassifiedCallback func(url string, kind types.PageKind)

// DetailCallback is called before each municipality of a listing is fetched.
// i counts from 1.
type DetailCallback func(i, total int, entry types.IndexEntry)

// Result is the outcome of scraping one start page.
type Result struct {
	// URL is the start page.
	URL string

	// Kind is the start page's kind.
	Kind types.PageKind

	// Records are the parsed municipalities in visitation order.
	Records []*types.MunicipalityRecord
}

// Scraper drives one run: fetch the start page, classify it, then collect
// one record per municipality. Detail pages are fetched one at a time in
// listing order.
type Scraper struct {
	fetcher   Fetcher
	parser    *parser.Parser
	pipeline  Pipeline
	collation string
	timeout   time.Duration
	logger    *slog.Logger

	state        atomic.Int32
	stats        *Stats
	onClassified ClassifiedCallback
	onDetail     DetailCallback
}

// New creates a Scraper with the default record checks.
func New(cfg *config.Config, f Fetcher, logger *slog.Logger) *Scraper {
	return &Scraper{
		fetcher:   f,
		parser:    parser.New(&cfg.Scraper, logger),
		pipeline:  pipeline.NewDefault(logger),
		collation: cfg.Output.Collation,
		timeout:   cfg.Fetcher.RequestTimeout,
		logger:    logger.With("component", "engine"),
		stats:     &Stats{},
	}
}

// OnClassified registers a callback for the start page's kind.
func (s *Scraper) OnClassified(cb ClassifiedCallback) {
	s.onClassified = cb
}

// OnDetail registers a callback run before each detail page fetch.
func (s *Scraper) OnDetail(cb DetailCallback) {
	s.onDetail = cb
}

// Stats returns the current run statistics.
func (s *Scraper) Stats() *Stats {
	return s.stats
}

// GetState returns the current scraper state.
func (s *Scraper) GetState() State {
	return State(s.state.Load())
}

// Scrape collects every municipality reachable from rawURL. Any error
// aborts the run and no partial result is returned.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, fmt.Errorf("scraper is in state %s, cannot start", State(s.state.Load()))
	}
	defer s.state.Store(int32(StateStopped))

	s.stats.StartTime = time.Now()
	s.logger.Info("scrape starting", "url", rawURL)

	req, err := s.newRequest(rawURL, types.TagSeed, "")
	if err != nil {
		return nil, err
	}

	resp, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	kind, err := s.parser.Classify(resp)
	if err != nil {
		return nil, err
	}
	s.logger.Info("start page classified", "url", rawURL, "kind", kind)
	if s.onClassified != nil {
		s.onClassified(rawURL, kind)
	}

	result := &Result{URL: rawURL, Kind: kind}
	switch kind {
	case types.PageIndex:
		result.Records, err = s.scrapeIndex(ctx, resp)
	case types.PageDetail:
		var record *types.MunicipalityRecord
		record, err = s.scrapeDetail(resp, "", "")
		if err == nil {
			result.Records = []*types.MunicipalityRecord{record}
		}
	default:
		err = &types.UnrecognizedPageError{URL: rawURL}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("scrape finished", "stats", s.stats.Snapshot())
	return result, nil
}

// Run scrapes rawURL, aggregates the records and hands the table to store.
// Nothing is stored unless every page was fetched and parsed.
func (s *Scraper) Run(ctx context.Context, rawURL string, store Storage) (*types.ResultTable, error) {
	result, err := s.Scrape(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	table := pipeline.Aggregate(result.Records, s.collation)
	s.stats.Parties.Store(int64(len(table.Columns)))

	if err := store.Store(table); err != nil {
		return nil, err
	}
	if err := store.Close(); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *Scraper) scrapeIndex(ctx context.Context, resp *types.Response) ([]*types.MunicipalityRecord, error) {
	entries, err := s.parser.ExtractLinks(resp)
	if err != nil {
		return nil, err
	}
	s.logger.Info("municipalities listed", "url", resp.Request.URLString(), "count", len(entries))

	records := make([]*types.MunicipalityRecord, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.onDetail != nil {
			s.onDetail(i+1, len(entries), entry)
		}

		req, err := s.newRequest(entry.URL, types.TagDetail, resp.BaseURL())
		if err != nil {
			return nil, err
		}

		detail, err := s.fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		record, err := s.scrapeDetail(detail, entry.Code, entry.Name)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// newRequest builds a request carrying the per-request timeout. Detail pages
// name the listing they were found on as Referer.
func (s *Scraper) newRequest(rawURL, tag, parentURL string) (*types.Request, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.Tag = tag
	req.Timeout = s.timeout
	if parentURL != "" {
		req.ParentURL = parentURL
		req.Headers.Set("Referer", parentURL)
	}
	return req, nil
}

func (s *Scraper) scrapeDetail(resp *types.Response, code, name string) (*types.MunicipalityRecord, error) {
	record, err := s.parser.ParseDetail(resp, code, name)
	if err != nil {
		return nil, err
	}
	if s.pipeline != nil {
		if err := s.pipeline.Process(record); err != nil {
			return nil, err
		}
	}
	s.stats.RecordsParsed.Add(1)
	return record, nil
}

func (s *Scraper) fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		s.stats.PagesFailed.Add(1)
		s.logger.Error("fetch failed", "url", req.URLString(), "tag", req.Tag, "listing", req.ParentURL, "error", err)
		return nil, err
	}
	s.stats.PagesFetched.Add(1)
	s.stats.BytesDownloaded.Add(int64(len(resp.Body)))
	return resp, nil
}
