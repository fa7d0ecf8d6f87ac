package storage

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeName prepares a name for matching: trim, collapse internal
// whitespace and case-fold. Both stored names and queries go through this so
// exact matching is a plain string compare.
func NormalizeName(s string) string {
	return foldCaser.String(strings.Join(strings.Fields(s), " "))
}

// NameContains reports substring containment in either direction over
// normalized names.
func NameContains(storedNorm, queryNorm string) bool {
	if storedNorm == "" || queryNorm == "" {
		return false
	}
	return strings.Contains(storedNorm, queryNorm) || strings.Contains(queryNorm, storedNorm)
}
