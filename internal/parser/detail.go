package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

// Cell positions in the first data row of the summary table.
const (
	registeredCell = 3
	envelopesCell  = 4
	validCell      = 7
)

// Cell positions in a party table row.
const (
	partyNameCell  = 1
	partyVotesCell = 2
)

// municipalityQueryParam carries the municipality code in results page URLs.
const municipalityQueryParam = "xobec"

var headingMatcher = cascadia.MustCompile("h2, h3")

// ParseDetail extracts one municipality's results from a detail page.
//
// code and name, when non-empty, are used as given (they come from the
// listing the page was reached from). When empty they are read from the
// page: the code from the URL's xobec parameter and the name from the
// "Obec:" heading.
//
// Party rows from every table after the summary are merged. A party listed
// twice keeps the last count.
func (p *Parser) ParseDetail(resp *types.Response, code, name string) (*types.MunicipalityRecord, error) {
	pageURL := resp.Request.URLString()

	doc, err := resp.Document()
	if err != nil {
		return nil, &types.MalformedDetailError{URL: pageURL, Err: err}
	}

	if code == "" {
		code = codeFromURL(resp.BaseURL())
	}
	if name == "" {
		name = nameFromHeading(doc)
	}

	record := types.NewMunicipalityRecord(code, name)
	record.SourceURL = pageURL

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, &types.MalformedDetailError{URL: pageURL, Field: "summary", Err: errors.New("summary table not found")}
	}

	if err := readSummary(tables.First(), record); err != nil {
		err.URL = pageURL
		return nil, err
	}

	if tables.Length() < 2 {
		return nil, &types.MalformedDetailError{URL: pageURL, Field: "parties", Err: errors.New("party table not found")}
	}

	var partyErr *types.MalformedDetailError
	tables.Slice(1, tables.Length()).EachWithBreak(func(_ int, table *goquery.Selection) bool {
		partyErr = p.readParties(table, record, pageURL)
		return partyErr == nil
	})
	if partyErr != nil {
		partyErr.URL = pageURL
		return nil, partyErr
	}
	if len(record.Votes) == 0 {
		return nil, &types.MalformedDetailError{URL: pageURL, Field: "parties", Err: errors.New("no party rows found")}
	}

	p.logger.Debug("detail parsed",
		"url", pageURL,
		"code", record.Code,
		"registered", record.Registered,
		"parties", len(record.Votes),
	)
	return record, nil
}

// readSummary fills the turnout figures from the first data row of table.
func readSummary(table *goquery.Selection, record *types.MunicipalityRecord) *types.MalformedDetailError {
	var cells *goquery.Selection
	table.FindMatcher(rowMatcher).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if c := row.ChildrenMatcher(cellMatcher); c.Length() > 0 {
			cells = c
			return false
		}
		return true
	})
	if cells == nil {
		return &types.MalformedDetailError{Field: "summary", Err: errors.New("summary row not found")}
	}

	fields := []struct {
		name string
		pos  int
		dst  *int
	}{
		{"registered", registeredCell, &record.Registered},
		{"envelopes", envelopesCell, &record.Envelopes},
		{"valid", validCell, &record.Valid},
	}
	for _, f := range fields {
		if cells.Length() <= f.pos {
			return &types.MalformedDetailError{
				Field: f.name,
				Err:   fmt.Errorf("summary cell %d missing (row has %d cells)", f.pos, cells.Length()),
			}
		}
		n, err := ParseCount(cellText(cells.Eq(f.pos)))
		if err != nil {
			return &types.MalformedDetailError{Field: f.name, Err: err}
		}
		*f.dst = n
	}
	return nil
}

// readParties merges the party rows of one table into record.Votes.
func (p *Parser) readParties(table *goquery.Selection, record *types.MunicipalityRecord, pageURL string) *types.MalformedDetailError {
	var rowErr *types.MalformedDetailError
	table.FindMatcher(rowMatcher).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.ChildrenMatcher(cellMatcher)
		if cells.Length() <= partyVotesCell {
			return true
		}
		party := cellText(cells.Eq(partyNameCell))
		if isPlaceholder(party) {
			return true
		}

		votes, err := ParseCount(cellText(cells.Eq(partyVotesCell)))
		if err != nil {
			rowErr = &types.MalformedDetailError{Field: party, Err: err}
			return false
		}

		if prev, dup := record.Votes[party]; dup {
			p.logger.Warn("party listed twice, keeping last count",
				"url", pageURL,
				"party", party,
				"previous", prev,
				"votes", votes,
			)
		}
		record.Votes[party] = votes
		return true
	})
	return rowErr
}

func codeFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(municipalityQueryParam)
}

// nameFromHeading returns the municipality name from a heading such as
// "Obec: Alojzov".
func nameFromHeading(doc *goquery.Document) string {
	name := ""
	doc.FindMatcher(headingMatcher).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := cellText(h)
		if rest, ok := strings.CutPrefix(text, "Obec:"); ok {
			name = strings.TrimSpace(rest)
			return false
		}
		return true
	})
	return name
}
