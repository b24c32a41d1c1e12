package domain

import (
	"slices"
	"strings"

	"github.com/juju/naturalsort"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders backup names. It returns a negative number when a sorts
// before b, zero when they are equal and a positive number otherwise.
type Comparator func(a, b string) int

// Lexical orders names byte by byte.
func Lexical(a, b string) int {
	return strings.Compare(a, b)
}

// CaseInsensitive orders names ignoring case. Names that only differ in case
// fall back to byte order so the result is deterministic.
func CaseInsensitive(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Natural orders embedded numbers by value, so "backup-9" sorts before
// "backup-10".
func Natural(a, b string) int {
	if a == b {
		return 0
	}
	ab := naturalsort.Sort([]string{a, b})
	ba := naturalsort.Sort([]string{b, a})
	if ab[0] != ba[0] {
		// neither is naturally smaller
		return strings.Compare(a, b)
	}
	if ab[0] == a {
		return -1
	}
	return 1
}

// Collated returns a locale-aware comparator for the given language.
func Collated(tag language.Tag) Comparator {
	c := collate.New(tag)
	return func(a, b string) int {
		if r := c.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	}
}

// ComparatorByName resolves a configured ordering. The empty string and
// "lexical" select byte order, "case-insensitive" and "natural" select the
// matching comparators, anything else is parsed as a BCP 47 language tag.
func ComparatorByName(name string) (Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lexical", "byte":
		return Lexical, nil
	case "case-insensitive":
		return CaseInsensitive, nil
	case "natural":
		return Natural, nil
	}

	tag, err := language.Parse(name)
	if err != nil {
		return nil, Wrapf(err, ErrArgument, "invalid collation %q", name)
	}
	return Collated(tag), nil
}

func sortedCopy(names []string, cmp Comparator) []string {
	sorted := slices.Clone(names)
	slices.SortStableFunc(sorted, cmp)
	return sorted
}
