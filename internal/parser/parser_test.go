package parser

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/volbyscrape/internal/config"
	"github.com/IshaanNene/volbyscrape/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	indexURL  = "https://www.volby.cz/pls/ps2017nss/ps32?xjazyk=CZ&xkraj=12&xnumnuts=7103"
	detailURL = "https://www.volby.cz/pls/ps2017nss/ps311?xjazyk=CZ&xkraj=12&xobec=506761&xvyber=7103"
)

func newTestParser() *Parser {
	return New(&config.DefaultConfig().Scraper, testLogger)
}

func makeResp(url, body string) *types.Response {
	req, _ := types.NewRequest(url)
	return &types.Response{
		Request:     req,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
		FinalURL:    url,
	}
}

func fixture(t *testing.T, name, url string) *types.Response {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return makeResp(url, string(body))
}

// --- Classifier ---

func TestClassifyIndex(t *testing.T) {
	kind, err := newTestParser().Classify(fixture(t, "index.html", indexURL))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if kind != types.PageIndex {
		t.Errorf("expected index, got %s", kind)
	}
}

func TestClassifyDetail(t *testing.T) {
	kind, err := newTestParser().Classify(fixture(t, "detail.html", detailURL))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if kind != types.PageDetail {
		t.Errorf("expected detail, got %s", kind)
	}
}

func TestClassifyEmptyIndex(t *testing.T) {
	kind, err := newTestParser().Classify(fixture(t, "index_empty.html", indexURL))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if kind != types.PageIndex {
		t.Errorf("expected index for header-only listing, got %s", kind)
	}
}

func TestClassifyDetailWithMissingCell(t *testing.T) {
	kind, err := newTestParser().Classify(fixture(t, "detail_missing_valid.html", detailURL))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if kind != types.PageDetail {
		t.Errorf("expected detail, got %s", kind)
	}
}

func TestClassifyToleratesMarkupVariation(t *testing.T) {
	page := `<html><body><TABLE>
<tr ><th>Obec</th></tr>
<tr><td   class='cislo'
      headers="x"   ><a  title="obec" href = 'ps311?xobec=1'  > 500011 </a></td><td>Á</td></tr>
</TABLE></body></html>`
	kind, err := newTestParser().Classify(makeResp(indexURL, page))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if kind != types.PageIndex {
		t.Errorf("expected index, got %s", kind)
	}
}

func TestClassifyNotFound(t *testing.T) {
	_, err := newTestParser().Classify(fixture(t, "notfound.html", indexURL))
	var upe *types.UnrecognizedPageError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnrecognizedPageError, got %v", err)
	}
	if !errors.Is(err, types.ErrNotFoundPage) {
		t.Errorf("expected ErrNotFoundPage in chain, got %v", err)
	}
}

func TestClassifyUnrelated(t *testing.T) {
	_, err := newTestParser().Classify(fixture(t, "unrelated.html", "https://www.volby.cz/"))
	var upe *types.UnrecognizedPageError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnrecognizedPageError, got %v", err)
	}
	if upe.URL != "https://www.volby.cz/" {
		t.Errorf("error should carry the page URL, got %q", upe.URL)
	}
}

// --- Link extractor ---

func TestExtractLinks(t *testing.T) {
	entries, err := newTestParser().ExtractLinks(fixture(t, "index.html", indexURL))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := []types.IndexEntry{
		{Code: "589268", Name: "Zdětín", URL: "https://www.volby.cz/pls/ps2017nss/ps311?xjazyk=CZ&xkraj=12&xobec=589268&xvyber=7103"},
		{Code: "506761", Name: "Alojzov", URL: "https://www.volby.cz/pls/ps2017nss/ps311?xjazyk=CZ&xkraj=12&xobec=506761&xvyber=7103"},
		{Code: "589250", Name: "Bedihošť", URL: "https://www.volby.cz/pls/ps2017nss/ps311?xjazyk=CZ&xkraj=12&xobec=589250&xvyber=7103"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinksUsesRedirectedBase(t *testing.T) {
	resp := fixture(t, "index.html", "https://volby.cz/old")
	resp.FinalURL = "https://www.volby.cz/pls/ps2017nss/ps32"

	entries, err := newTestParser().ExtractLinks(resp)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(entries[0].URL, "https://www.volby.cz/pls/ps2017nss/ps311?") {
		t.Errorf("expected link resolved against final URL, got %q", entries[0].URL)
	}
}

func TestExtractLinksEmptyListing(t *testing.T) {
	entries, err := newTestParser().ExtractLinks(fixture(t, "index_empty.html", indexURL))
	if err != nil {
		t.Fatalf("expected no error for header-only listing, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestExtractLinksMissingLink(t *testing.T) {
	page := `<html><body><table>
<tr><th>číslo</th><th>název</th></tr>
<tr><td><a href="ps311?xobec=1">500001</a></td><td>Prvni</td></tr>
<tr><td>500002</td><td>Druha</td></tr>
</table></body></html>`

	_, err := newTestParser().ExtractLinks(makeResp(indexURL, page))
	var mie *types.MalformedIndexError
	if !errors.As(err, &mie) {
		t.Fatalf("expected MalformedIndexError, got %v", err)
	}
	if mie.Row != 2 {
		t.Errorf("expected failure on row 2, got %d", mie.Row)
	}
	if !strings.Contains(err.Error(), "500002") {
		t.Errorf("error should name the municipality: %v", err)
	}
}

func TestExtractLinksMissingCode(t *testing.T) {
	page := `<html><body><table>
<tr><td><a href="ps311?xobec=1">500001</a></td><td>Prvni</td></tr>
<tr><td><a href="ps311?xobec=2"></a></td><td>Druha</td></tr>
</table></body></html>`

	_, err := newTestParser().ExtractLinks(makeResp(indexURL, page))
	var mie *types.MalformedIndexError
	if !errors.As(err, &mie) {
		t.Fatalf("expected MalformedIndexError, got %v", err)
	}
}

// --- Detail parser ---

func TestParseDetail(t *testing.T) {
	rec, err := newTestParser().ParseDetail(fixture(t, "detail.html", detailURL), "", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rec.Code != "506761" {
		t.Errorf("expected code from URL, got %q", rec.Code)
	}
	if rec.Name != "Alojzov" {
		t.Errorf("expected name from heading, got %q", rec.Name)
	}
	if rec.Registered != 1205 || rec.Envelopes != 826 || rec.Valid != 821 {
		t.Errorf("unexpected summary %d/%d/%d", rec.Registered, rec.Envelopes, rec.Valid)
	}

	wantVotes := map[string]int{
		"Občanská demokratická strana":  79,
		"Řád národa - Vlastenecká unie": 1,
		"ANO 2011":                      1012,
	}
	if len(rec.Votes) != len(wantVotes) {
		t.Fatalf("expected %d parties across both tables, got %v", len(wantVotes), rec.Votes)
	}
	for party, votes := range wantVotes {
		if rec.Votes[party] != votes {
			t.Errorf("%s: got %d, want %d", party, rec.Votes[party], votes)
		}
	}
	if _, ok := rec.Votes["-"]; ok {
		t.Error("filler row should not produce a party")
	}
	if rec.SourceURL != detailURL {
		t.Errorf("unexpected source URL %q", rec.SourceURL)
	}
}

func TestParseDetailExternalIdentityWins(t *testing.T) {
	rec, err := newTestParser().ParseDetail(fixture(t, "detail.html", detailURL), "0506761", "Alojzov (okres Prostějov)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Code != "0506761" || rec.Name != "Alojzov (okres Prostějov)" {
		t.Errorf("expected supplied code/name, got %q/%q", rec.Code, rec.Name)
	}
}

func TestParseDetailMissingValid(t *testing.T) {
	_, err := newTestParser().ParseDetail(fixture(t, "detail_missing_valid.html", detailURL), "", "")
	var mde *types.MalformedDetailError
	if !errors.As(err, &mde) {
		t.Fatalf("expected MalformedDetailError, got %v", err)
	}
	if mde.Field != "valid" {
		t.Errorf("expected valid field to be reported, got %q", mde.Field)
	}
	if mde.URL != detailURL {
		t.Errorf("expected URL in error, got %q", mde.URL)
	}
}

func TestParseDetailNoTables(t *testing.T) {
	_, err := newTestParser().ParseDetail(makeResp(detailURL, "<html><body><p>nic</p></body></html>"), "", "")
	var mde *types.MalformedDetailError
	if !errors.As(err, &mde) || mde.Field != "summary" {
		t.Fatalf("expected summary MalformedDetailError, got %v", err)
	}
}

func TestParseDetailNoPartyTable(t *testing.T) {
	page := `<table><tr><td>1</td><td>1</td><td>100</td><td>370</td><td>256</td><td>69</td><td>256</td><td>254</td><td>99</td></tr></table>`
	_, err := newTestParser().ParseDetail(makeResp(detailURL, page), "", "")
	var mde *types.MalformedDetailError
	if !errors.As(err, &mde) || mde.Field != "parties" {
		t.Fatalf("expected parties MalformedDetailError, got %v", err)
	}
}

func TestParseDetailBadVoteCount(t *testing.T) {
	page := `<table><tr><td>1</td><td>1</td><td>100</td><td>370</td><td>256</td><td>69</td><td>256</td><td>254</td><td>99</td></tr></table>
<table><tr><td>1</td><td>PartyA</td><td>sedm</td></tr></table>`
	_, err := newTestParser().ParseDetail(makeResp(detailURL, page), "", "")
	var mde *types.MalformedDetailError
	if !errors.As(err, &mde) {
		t.Fatalf("expected MalformedDetailError, got %v", err)
	}
	if mde.Field != "PartyA" {
		t.Errorf("expected failing party in error, got %q", mde.Field)
	}
}

func TestParseDetailDuplicatePartyLastWins(t *testing.T) {
	page := `<table><tr><td>1</td><td>1</td><td>100</td><td>370</td><td>256</td><td>69</td><td>256</td><td>254</td><td>99</td></tr></table>
<table><tr><td>1</td><td>PartyA</td><td>79</td></tr></table>
<table><tr><td>2</td><td>PartyA</td><td>80</td></tr></table>`
	rec, err := newTestParser().ParseDetail(makeResp(detailURL, page), "1", "X")
	if err != nil {
		t.Fatalf("duplicate party should not be an error: %v", err)
	}
	if rec.Votes["PartyA"] != 80 {
		t.Errorf("expected last value 80, got %d", rec.Votes["PartyA"])
	}
}

func TestParseDetailKeepsInconsistentTotals(t *testing.T) {
	// envelopes > registered is passed through untouched.
	page := `<table><tr><td>1</td><td>1</td><td>100</td><td>10</td><td>20</td><td>200</td><td>20</td><td>30</td><td>99</td></tr></table>
<table><tr><td>1</td><td>PartyA</td><td>30</td></tr></table>`
	rec, err := newTestParser().ParseDetail(makeResp(detailURL, page), "1", "X")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Registered != 10 || rec.Envelopes != 20 || rec.Valid != 30 {
		t.Errorf("figures should be kept as printed, got %d/%d/%d", rec.Registered, rec.Envelopes, rec.Valid)
	}
}

// --- Counts ---

func TestParseCount(t *testing.T) {
	good := map[string]int{
		"370":         370,
		"1 205":       1205,
		"1\u00a0205":  1205,
		"12\u202f345": 12345,
		"1,205":       1205,
		"1.234.567":   1234567,
		"12'345":      12345,
		" 0 ":         0,
	}
	for in, want := range good {
		got, err := ParseCount(in)
		if err != nil {
			t.Errorf("ParseCount(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseCount(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"", "-", "abc", "-5", " "} {
		if _, err := ParseCount(in); err == nil {
			t.Errorf("ParseCount(%q) should fail", in)
		}
	}
}
