// Package parser reads the two page shapes of the election results site:
// municipality listings (index pages) and per-municipality results (detail
// pages). The site has no machine-readable ids, so everything is located by
// table structure and cell position.
package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/volbyscrape/internal/config"
)

// Parser classifies and extracts results pages.
type Parser struct {
	notFoundMarker string
	headerLabels   []string
	logger         *slog.Logger
}

// New creates a parser for the site described by cfg.
func New(cfg *config.ScraperConfig, logger *slog.Logger) *Parser {
	labels := make([]string, 0, len(cfg.IndexHeaderLabels))
	for _, l := range cfg.IndexHeaderLabels {
		if l = normalizeLabel(l); l != "" {
			labels = append(labels, l)
		}
	}
	return &Parser{
		notFoundMarker: cfg.NotFoundMarker,
		headerLabels:   labels,
		logger:         logger.With("component", "parser"),
	}
}

// cellText returns the whitespace-collapsed text of a selection.
func cellText(sel *goquery.Selection) string {
	return collapseSpace(sel.Text())
}

// collapseSpace trims s and folds every run of whitespace (NBSP included)
// into a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeLabel(s string) string {
	return strings.ToLower(collapseSpace(s))
}

// isPlaceholder reports whether a cell value is the site's filler for an
// empty slot in a side-by-side table.
func isPlaceholder(s string) bool {
	return s == "" || s == "-"
}
