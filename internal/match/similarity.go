// Package match decides whether a looked-up record is the same paper as a
// bibliography entry and ranks the records that are.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/reference"
	"github.com/matsen/reffix/internal/textnorm"
)

const (
	// DefaultTitleThreshold is the minimum title similarity for a match.
	// Titles identify papers precisely, so only near-exact matches pass
	// (about one edit per twenty characters).
	DefaultTitleThreshold = 0.95

	titleWeight  = 0.7
	authorWeight = 0.3
)

// Surname particles that never identify an author on their own.
var particles = map[string]bool{
	"van": true, "von": true, "der": true, "den": true, "de": true,
	"del": true, "della": true, "di": true, "da": true, "du": true,
	"des": true, "la": true, "le": true, "ten": true, "ter": true,
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// Result is a candidate with its similarity to the source entry.
type Result struct {
	Candidate   bibtex.Entry
	Index       int        // position in the lookup results
	Score       float64    // combined score in [0,1]
	TitleScore  float64    // title similarity in [0,1]
	AuthorScore float64    // fraction of source authors found on the candidate
	Provenance  Provenance // provenance of the candidate
	Accepted    bool       // title above threshold and at least one author in common
}

// Comparator scores candidates against a source entry.
type Comparator struct {
	TitleThreshold float64
}

// NewComparator returns a comparator; a non-positive threshold selects the default.
func NewComparator(threshold float64) Comparator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultTitleThreshold
	}
	return Comparator{TitleThreshold: threshold}
}

func (c Comparator) threshold() float64 {
	if c.TitleThreshold <= 0 || c.TitleThreshold > 1 {
		return DefaultTitleThreshold
	}
	return c.TitleThreshold
}

// Score compares a candidate with the source entry. Missing titles or
// authors on either side give a zero, non-accepted result.
func (c Comparator) Score(src, cand bibtex.Entry) Result {
	res := Result{Candidate: cand, Provenance: ProvenanceOf(cand)}

	srcAuthors := reference.ParseAuthors(src.Get(bibtex.FieldAuthor))
	candAuthors := reference.ParseAuthors(cand.Get(bibtex.FieldAuthor))
	if len(srcAuthors) == 0 || len(candAuthors) == 0 {
		return res
	}

	title := TitleSimilarity(src.Get(bibtex.FieldTitle), cand.Get(bibtex.FieldTitle))
	if title == 0 {
		return res
	}

	res.TitleScore = title
	res.AuthorScore = AuthorOverlap(srcAuthors, candAuthors)
	res.Score = titleWeight*res.TitleScore + authorWeight*res.AuthorScore
	res.Accepted = res.TitleScore >= c.threshold() && res.AuthorScore > 0
	return res
}

// TitleSimilarity is 1 for titles equal after normalization (case,
// accents, braces and punctuation ignored) and otherwise the edit-distance
// ratio of their compact forms. Blank titles score 0.
func TitleSimilarity(a, b string) float64 {
	ca, cb := textnorm.Compact(a), textnorm.Compact(b)
	if ca == "" || cb == "" {
		return 0
	}
	if ca == cb {
		return 1
	}

	longest := max(utf8.RuneCountInString(ca), utf8.RuneCountInString(cb))
	dist := levenshtein.ComputeDistance(ca, cb)
	return 1 - float64(dist)/float64(longest)
}

// AuthorOverlap returns the fraction of source authors whose surname
// appears among the candidate's surnames.
//
// Surnames are compared normalized (case and accents ignored). A surname
// matches when the whole normalized surnames are equal, or when one of them
// equals a non-particle word of the other, so "van Beethoven" matches
// "Beethoven" and "García Márquez" matches "Garcia".
func AuthorOverlap(src, cand []reference.Author) float64 {
	if len(src) == 0 || len(cand) == 0 {
		return 0
	}

	candKeys := make(map[string]bool)
	for _, a := range cand {
		for _, k := range surnameKeys(a) {
			candKeys[k] = true
		}
	}

	found := 0
	for _, a := range src {
		for _, k := range surnameKeys(a) {
			if candKeys[k] {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(src))
}

// surnameKeys returns the full normalized surname followed by its
// significant words.
func surnameKeys(a reference.Author) []string {
	full := a.SurnameKey()
	if full == "" {
		return nil
	}
	keys := []string{full}
	words := strings.Fields(full)
	if len(words) == 1 {
		return keys
	}
	for _, w := range words {
		if !particles[w] && len(w) > 1 {
			keys = append(keys, w)
		}
	}
	return keys
}
