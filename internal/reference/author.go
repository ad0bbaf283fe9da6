// Package reference models the people and names behind a bibliography entry.
package reference

import (
	"strings"

	"github.com/matsen/reffix/internal/textnorm"
)

// Author is a parsed author name.
type Author struct {
	First string `json:"first"` // First/given name(s), including middle names
	Last  string `json:"last"`  // Last/family name, with von-particles and suffixes
}

// FullName returns "First Last", or just the last name.
func (a Author) FullName() string {
	if a.First == "" {
		return a.Last
	}
	if a.Last == "" {
		return a.First
	}
	return a.First + " " + a.Last
}

// Canonical returns the ASCII "Firstname Lastname" form used in merged entries.
func (a Author) Canonical() string {
	return textnorm.Fold(a.FullName())
}

// SurnameKey returns the normalized surname used for author matching.
func (a Author) SurnameKey() string {
	return textnorm.Normalize(a.Last)
}

// FormatList joins authors in canonical form with the given separator.
// Multi-word names without a first name (organizations) are kept in braces
// so they still parse as a single name.
func FormatList(authors []Author, sep string) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		name := a.Canonical()
		if name == "" {
			continue
		}
		if a.First == "" && strings.ContainsAny(name, " \t") {
			name = "{" + name + "}"
		}
		names = append(names, name)
	}
	return strings.Join(names, sep)
}
