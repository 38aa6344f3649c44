package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var errEmptyCount = errors.New("empty count")

// ParseCount parses a vote or voter count as printed by the site. Digits may
// be grouped in thousands by spaces, NBSP, narrow NBSP, commas, dots or
// apostrophes. Every group after the first must hold exactly three digits,
// so decimals such as "68,55" are rejected.
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyCount
	}

	runes := []rune(s)
	if isGroupSeparator(runes[0]) || isGroupSeparator(runes[len(runes)-1]) {
		return 0, fmt.Errorf("invalid count %q: stray separator", s)
	}

	groups := strings.FieldsFunc(s, isGroupSeparator)
	if len(groups) > 1 {
		if len(groups[0]) > 3 {
			return 0, fmt.Errorf("invalid count %q: bad digit grouping", s)
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, fmt.Errorf("invalid count %q: bad digit grouping", s)
			}
		}
	}

	n, err := strconv.Atoi(strings.Join(groups, ""))
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid count %q: negative", s)
	}
	return n, nil
}

func isGroupSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '.' || r == '\''
}
