package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"
	"github.com/andybalholm/cascadia"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

var (
	rowMatcher  = cascadia.MustCompile("tr")
	cellMatcher = cascadia.MustCompile("td")
	linkMatcher = cascadia.MustCompile("a[href]")
)

// ExtractLinks walks the listing tables of an index page in document order
// and returns one entry per municipality row. Detail links are resolved
// against the page's own URL.
//
// Header rows and filler rows (every cell empty or "-") are skipped. A data
// row without a code, a name or a resolvable link is an
// *types.MalformedIndexError.
func (p *Parser) ExtractLinks(resp *types.Response) ([]types.IndexEntry, error) {
	pageURL := resp.Request.URLString()

	doc, err := resp.Document()
	if err != nil {
		return nil, &types.MalformedIndexError{URL: pageURL, Err: err}
	}

	base, err := url.Parse(resp.BaseURL())
	if err != nil {
		return nil, &types.MalformedIndexError{URL: pageURL, Err: err}
	}

	var (
		entries []types.IndexEntry
		rowErr  error
		rowNum  int
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !isListingTable(table) {
			return true
		}
		table.FindMatcher(rowMatcher).EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.ChildrenMatcher(cellMatcher)
			if cells.Length() == 0 || isFillerRow(cells) {
				return true
			}
			rowNum++

			entry, err := listingEntry(cells, base)
			if err != nil {
				rowErr = &types.MalformedIndexError{URL: pageURL, Row: rowNum, Err: err}
				return false
			}
			entries = append(entries, entry)
			return true
		})
		return rowErr == nil
	})

	if rowErr != nil {
		return nil, rowErr
	}

	p.logger.Debug("listing extracted", "url", pageURL, "municipalities", len(entries))
	return entries, nil
}

// isListingTable reports whether any row of table starts with a linked cell.
func isListingTable(table *goquery.Selection) bool {
	found := false
	table.FindMatcher(rowMatcher).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		first := row.ChildrenMatcher(cellMatcher).First()
		if first.FindMatcher(linkMatcher).Length() > 0 {
			found = true
		}
		return !found
	})
	return found
}

func isFillerRow(cells *goquery.Selection) bool {
	filler := true
	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if !isPlaceholder(cellText(cell)) {
			filler = false
		}
		return filler
	})
	return filler
}

func listingEntry(cells *goquery.Selection, base *url.URL) (types.IndexEntry, error) {
	codeCell := cells.Eq(0)

	code := cellText(codeCell)
	if isPlaceholder(code) {
		return types.IndexEntry{}, errors.New("missing municipality code")
	}
	if cells.Length() < 2 {
		return types.IndexEntry{}, fmt.Errorf("municipality %s: missing name cell", code)
	}
	name := cellText(cells.Eq(1))

	href, ok := codeCell.FindMatcher(linkMatcher).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return types.IndexEntry{}, fmt.Errorf("municipality %s: missing detail link", code)
	}

	detailURL, err := resolveLink(base, href)
	if err != nil {
		return types.IndexEntry{}, fmt.Errorf("municipality %s: %w", code, err)
	}

	return types.IndexEntry{Code: code, Name: name, URL: detailURL}, nil
}

// resolveLink resolves href against base and normalizes the result.
func resolveLink(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", types.ErrInvalidURL, href, err)
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("%w %q: not an http(s) link", types.ErrInvalidURL, href)
	}
	resolved.Fragment = ""
	return purell.NormalizeURL(resolved, purell.FlagsSafe), nil
}
