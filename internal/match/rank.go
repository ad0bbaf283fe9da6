package match

import (
	"sort"
	"strings"
	"time"

	"github.com/matsen/reffix/internal/bibtex"
)

// dblpTimestampLayout is the layout of DBLP's "timestamp" field,
// e.g. "Mon, 08 Nov 2021 13:22:30 +0100".
const dblpTimestampLayout = time.RFC1123Z

// Rank scores all candidates, keeps the accepted ones and orders them best first.
//
// Ordering keys, in priority order:
//  1. provenance: with preferPublished, published versions first; otherwise
//     candidates with the same provenance as the source first
//  2. score, descending
//  3. equivalence with the source (same year and pages, or same year and venue)
//  4. newer DBLP timestamp, newer year, more fields, citation key ascending
//
// An empty result means "no update" and is not an error.
func (c Comparator) Rank(src bibtex.Entry, candidates []bibtex.Entry, preferPublished bool) []Result {
	srcProv := ProvenanceOf(src)

	var accepted []Result
	for i, cand := range candidates {
		res := c.Score(src, cand)
		res.Index = i
		if res.Accepted {
			accepted = append(accepted, res)
		}
	}
	if len(accepted) == 0 {
		return []Result{}
	}

	provRank := func(r Result) int {
		if preferPublished {
			if r.Provenance == Published {
				return 0
			}
			return 1
		}
		if r.Provenance == srcProv {
			return 0
		}
		return 1
	}
	equivRank := func(r Result) int {
		if IsEquivalent(r.Candidate, src) {
			return 0
		}
		return 1
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		a, b := accepted[i], accepted[j]
		if pa, pb := provRank(a), provRank(b); pa != pb {
			return pa < pb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ea, eb := equivRank(a), equivRank(b); ea != eb {
			return ea < eb
		}
		ta, tb := timestamp(a.Candidate), timestamp(b.Candidate)
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		if ya, yb := a.Candidate.Get(bibtex.FieldYear), b.Candidate.Get(bibtex.FieldYear); ya != yb {
			return ya > yb
		}
		if na, nb := a.Candidate.Fields.Len(), b.Candidate.Fields.Len(); na != nb {
			return na > nb
		}
		return a.Candidate.Key < b.Candidate.Key
	})

	return accepted
}

// Selection is the outcome of choosing a replacement for one entry.
type Selection struct {
	Best   Result   // valid only when Found
	Found  bool     // at least one candidate was accepted
	Ranked []Result // all accepted candidates, best first

	// PublishedAvailable is set when the source is a preprint, a published
	// version was accepted, but preferPublished kept the preprint.
	PublishedAvailable bool

	// PreprintOnly is set when preferPublished was requested but only
	// preprint versions matched.
	PreprintOnly bool
}

// Select ranks candidates and picks the best one.
func (c Comparator) Select(src bibtex.Entry, candidates []bibtex.Entry, preferPublished bool) Selection {
	ranked := c.Rank(src, candidates, preferPublished)
	sel := Selection{Ranked: ranked}
	if len(ranked) == 0 {
		return sel
	}

	sel.Best = ranked[0]
	sel.Found = true

	hasPublished := false
	for _, r := range ranked {
		if r.Provenance == Published {
			hasPublished = true
			break
		}
	}
	if !preferPublished && ProvenanceOf(src) == Preprint && sel.Best.Provenance == Preprint && hasPublished {
		sel.PublishedAvailable = true
	}
	if preferPublished && !hasPublished {
		sel.PreprintOnly = true
	}
	return sel
}

// IsEquivalent reports whether two records describe the same publication
// event: same year and pages, or same year and one booktitle containing the other.
func IsEquivalent(a, b bibtex.Entry) bool {
	yearA, yearB := a.Get(bibtex.FieldYear), b.Get(bibtex.FieldYear)
	if yearA == "" || yearA != yearB {
		return false
	}

	pagesA, pagesB := a.Get(bibtex.FieldPages), b.Get(bibtex.FieldPages)
	if pagesA != "" && pagesA == pagesB {
		return true
	}

	venueA, okA := a.Fields.Lookup(bibtex.FieldBooktitle)
	venueB, okB := b.Fields.Lookup(bibtex.FieldBooktitle)
	if !okA || !okB {
		return false
	}
	return strings.Contains(venueA, venueB) || strings.Contains(venueB, venueA)
}

func timestamp(e bibtex.Entry) time.Time {
	raw := strings.Join(strings.Fields(e.Get("timestamp")), " ")
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(dblpTimestampLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
