package types

// PageKind identifies which of the two results page shapes a document has.
type PageKind int

const (
	PageIndex  PageKind = 1
	PageDetail PageKind = 2
)

func (k PageKind) String() string {
	switch k {
	case PageIndex:
		return "index"
	case PageDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// IndexEntry is one municipality row of a listing page.
type IndexEntry struct {
	Code string
	Name string
	URL  string
}

// MunicipalityRecord holds the results of one municipality.
//
// Records are built by the detail parser and are not modified afterwards.
// Votes only contains parties that ran in this municipality.
type MunicipalityRecord struct {
	// Code is the municipality identifier exactly as printed by the site.
	Code string

	// Name is the municipality display name.
	Name string

	// Registered is the number of registered voters.
	Registered int

	// Envelopes is the number of issued envelopes.
	Envelopes int

	// Valid is the number of valid votes.
	Valid int

	// Votes maps party name to vote count.
	Votes map[string]int

	// SourceURL is the results page the record was parsed from.
	SourceURL string
}

// NewMunicipalityRecord creates an empty record for a municipality.
func NewMunicipalityRecord(code, name string) *MunicipalityRecord {
	return &MunicipalityRecord{
		Code:  code,
		Name:  name,
		Votes: make(map[string]int),
	}
}

// ResultTable is the aggregated output of a run: the records in visitation
// order and the party columns shared by every row.
type ResultTable struct {
	Rows    []*MunicipalityRecord
	Columns []string
}

// VoteCount returns the votes for party in row i, or 0 when the party did
// not run there.
func (t *ResultTable) VoteCount(i int, party string) int {
	return t.Rows[i].Votes[party]
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	return len(t.Rows)
}
