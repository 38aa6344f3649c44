package parser

import (
	"bytes"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

const (
	// Rows of a municipality listing: the first cell links to the results page.
	listingRowXPath = "//table//tr[td[1]//a[@href]]"

	// Summary figures sit in a data row of the first table, wider than any
	// listing row.
	summaryRowXPath = "(//table)[1]//tr[count(td) >= 4]"

	tablesWithHeadersXPath = "//table[.//th]"
)

// Classify decides whether resp is a municipality listing or a single
// municipality's results page.
//
// A page with at least one listing row whose first cell is a numeric code is
// an index. Otherwise a page with a summary table is a detail page. A page
// with neither, but whose table headers carry the listing labels, is an
// index with no data rows. Anything else is an *types.UnrecognizedPageError.
func (p *Parser) Classify(resp *types.Response) (types.PageKind, error) {
	pageURL := resp.Request.URLString()

	if p.notFoundMarker != "" && bytes.Contains(resp.Body, []byte(p.notFoundMarker)) {
		return 0, &types.UnrecognizedPageError{URL: pageURL, Err: types.ErrNotFoundPage}
	}

	doc, err := htmlquery.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return 0, &types.UnrecognizedPageError{URL: pageURL, Err: err}
	}

	if p.hasListingRows(doc) {
		p.logger.Debug("page classified", "url", pageURL, "kind", types.PageIndex)
		return types.PageIndex, nil
	}
	if htmlquery.FindOne(doc, summaryRowXPath) != nil {
		p.logger.Debug("page classified", "url", pageURL, "kind", types.PageDetail)
		return types.PageDetail, nil
	}
	if p.hasListingHeader(doc) {
		p.logger.Debug("page classified", "url", pageURL, "kind", types.PageIndex, "empty", true)
		return types.PageIndex, nil
	}

	return 0, &types.UnrecognizedPageError{URL: pageURL}
}

func (p *Parser) hasListingRows(doc *html.Node) bool {
	for _, row := range htmlquery.Find(doc, listingRowXPath) {
		first := htmlquery.FindOne(row, "./td[1]")
		if first == nil {
			continue
		}
		if isCode(collapseSpace(htmlquery.InnerText(first))) {
			return true
		}
	}
	return false
}

// hasListingHeader reports whether some table's header cells contain every
// configured listing label.
func (p *Parser) hasListingHeader(doc *html.Node) bool {
	if len(p.headerLabels) == 0 {
		return false
	}
	for _, table := range htmlquery.Find(doc, tablesWithHeadersXPath) {
		seen := make(map[string]bool)
		for _, th := range htmlquery.Find(table, ".//th") {
			seen[normalizeLabel(htmlquery.InnerText(th))] = true
		}
		all := true
		for _, label := range p.headerLabels {
			if !seen[label] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// isCode reports whether s looks like a municipality code.
func isCode(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}
