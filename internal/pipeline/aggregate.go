package pipeline

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

// Party column orderings.
const (
	CollationBinary = "binary"
	CollationCzech  = "czech"
)

// Aggregate builds the result table for a run. Rows keep the order the
// records were collected in, repeated codes included. Columns are the union
// of all party names, sorted by collation (byte order unless "czech").
//
// The records and the input slice are left untouched.
func Aggregate(records []*types.MunicipalityRecord, collation string) *types.ResultTable {
	rows := make([]*types.MunicipalityRecord, len(records))
	copy(rows, records)

	seen := make(map[string]struct{})
	columns := make([]string, 0)
	for _, r := range rows {
		for party := range r.Votes {
			if _, ok := seen[party]; ok {
				continue
			}
			seen[party] = struct{}{}
			columns = append(columns, party)
		}
	}
	sortColumns(columns, collation)

	return &types.ResultTable{Rows: rows, Columns: columns}
}

func sortColumns(columns []string, collation string) {
	switch collation {
	case CollationCzech:
		collate.New(language.Czech).SortStrings(columns)
	default:
		sort.Strings(columns)
	}
}
