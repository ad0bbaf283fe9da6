package fixer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/matsen/reffix/internal/bibtex"
)

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|` +
	`jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec`

var (
	// "15-18 December 2020", "1st May, 2019"
	dayFirstDate = regexp.MustCompile(`(?i)[1-3]?[0-9](?:st|rd|nd|th)?(?: *[-–] *[1-3]?[0-9](?:st|rd|nd|th)?)? +(?:` +
		monthNames + `)\.?,? +[12][90][0-9]{2}`)

	// "December 15-18, 2020", "July 29 - August 2, 2019"
	monthFirstDate = regexp.MustCompile(`(?i)\b(?:` + monthNames + `)\.? +[1-3]?[0-9](?:st|rd|nd|th)?` +
		`(?: *[-–] *(?:(?:` + monthNames + `)\.? +)?[1-3]?[0-9](?:st|rd|nd|th)?)?,? +[12][90][0-9]{2}`)

	// Trailing proceedings qualifiers kept at the end of the booktitle.
	proceedingsSuffix = regexp.MustCompile(`(?i)(?:(?:\b(?:volume|and|long|demo|demonstration|short|papers|selected|proceedings|part|[IVX]{1,4})\b| [0-9]\b|[,;:()]) *)+$`)

	knownPlaces = regexp.MustCompile(`(?i)\b(?:` + strings.Join([]string{
		"Copenhagen",
		"Groningen",
		"Heraklion",
		"Hersonissos",
		"Online Event",
		"Online",
		"Pisa",
		"Punta Cana",
		"Santa Fe",
		"Schloss Dagstuhl",
		"Tilburg University",
		"Virtual Event",
	}, "|") + `)\b`)
)

// Words that mark a comma-separated booktitle segment as part of the venue
// name rather than a place.
var venueWords = map[string]bool{
	"annual": true, "association": true, "chapter": true, "computational": true,
	"computing": true, "conference": true, "congress": true, "data": true,
	"generation": true, "intelligence": true, "international": true, "joint": true,
	"language": true, "learning": true, "linguistics": true, "machine": true,
	"meeting": true, "natural": true, "papers": true, "proceedings": true,
	"processing": true, "research": true, "society": true, "symposium": true,
	"systems": true, "track": true, "vision": true, "volume": true,
	"workshop": true, "workshops": true,
}

// Maximum number of comma-separated words in a guessed place segment.
const maxPlaceWords = 3

type span struct {
	start, end int
	date       bool
}

// ProcessConfLocation moves the conference location found at the end of a
// booktitle into the address field and drops the conference dates:
//
//	"Proceedings of INLG 2020, Dublin, Ireland, December 15-18, 2020"
//
// becomes booktitle "Proceedings of INLG 2020" and address "Dublin, Ireland".
// Trailing qualifiers such as ", Volume 1: Long Papers" stay at the end of the
// booktitle. It reports whether the entry changed.
func ProcessConfLocation(e bibtex.Entry) bool {
	raw, ok := e.Fields.Lookup(bibtex.FieldBooktitle)
	if !ok || e.Fields.IsBare(bibtex.FieldBooktitle) {
		return false
	}

	title := strings.Join(strings.Fields(raw), " ")
	suffix := ""
	if loc := proceedingsSuffix.FindStringIndex(title); loc != nil {
		suffix = title[loc[0]:]
		title = trimSeparators(title[:loc[0]])
	}

	spans := findSpans(title)

	// The booktitle typically ends with location and date: take the trailing
	// run of dates, then the run of places just before it.
	var dates, places []span
	for len(spans) > 0 {
		last := spans[len(spans)-1]
		if !last.date || (len(dates) > 0 && last.end+3 < dates[0].start) {
			break
		}
		dates = append([]span{last}, dates...)
		spans = spans[:len(spans)-1]
	}

	boundary := len(title)
	if len(dates) > 0 {
		boundary = dates[0].start
	}
	for len(spans) > 0 {
		last := spans[len(spans)-1]
		if last.date || last.end+3 < boundary {
			break
		}
		places = append([]span{last}, places...)
		boundary = last.start
		spans = spans[:len(spans)-1]
	}

	switch {
	case len(places) > 0 && places[0].start > 0:
		e.Fields.Set(bibtex.FieldAddress, title[places[0].start:places[len(places)-1].end])
		e.Fields.Set(bibtex.FieldBooktitle, trimSeparators(title[:places[0].start])+suffix)
	case len(dates) > 0 && dates[0].start > 0:
		e.Fields.Set(bibtex.FieldBooktitle, trimSeparators(title[:dates[0].start])+suffix)
	default:
		return false
	}
	return true
}

// findSpans returns the date and place spans of a booktitle, ordered by position.
func findSpans(title string) []span {
	var spans []span
	dateAt := make(map[int]bool)
	for _, re := range []*regexp.Regexp{dayFirstDate, monthFirstDate} {
		for _, loc := range re.FindAllStringIndex(title, -1) {
			if !dateAt[loc[0]] {
				dateAt[loc[0]] = true
				spans = append(spans, span{start: loc[0], end: loc[1], date: true})
			}
		}
	}

	placeAt := make(map[int]bool)
	for _, loc := range knownPlaces.FindAllStringIndex(title, -1) {
		placeAt[loc[0]] = true
		spans = append(spans, span{start: loc[0], end: loc[1]})
	}
	for _, seg := range segments(title) {
		if !placeAt[seg.start] && looksLikePlace(title[seg.start:seg.end]) {
			spans = append(spans, seg)
		}
	}

	spans = dropOverlaps(spans)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// segments splits a booktitle at commas, trimming spaces.
func segments(title string) []span {
	var out []span
	start := 0
	for i := 0; i <= len(title); i++ {
		if i < len(title) && title[i] != ',' {
			continue
		}
		s, e := start, i
		for s < e && title[s] == ' ' {
			s++
		}
		for e > s && title[e-1] == ' ' {
			e--
		}
		if s < e {
			out = append(out, span{start: s, end: e})
		}
		start = i + 1
	}
	return out
}

// looksLikePlace accepts short segments of capitalized words without digits,
// braces or venue vocabulary: "Dublin", "Ireland", "New Orleans".
func looksLikePlace(seg string) bool {
	if strings.ContainsAny(seg, "{}()[]:;") {
		return false
	}
	words := strings.Fields(seg)
	if len(words) == 0 || len(words) > maxPlaceWords {
		return false
	}
	for _, w := range words {
		if venueWords[strings.ToLower(strings.Trim(w, "."))] {
			return false
		}
		for i, r := range w {
			if unicode.IsDigit(r) {
				return false
			}
			if i == 0 && !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return true
}

// dropOverlaps removes spans overlapping an earlier date span, so a date is
// never also read as a place.
func dropOverlaps(spans []span) []span {
	var out []span
	for _, s := range spans {
		overlaps := false
		for _, o := range out {
			if s.start < o.end && o.start < s.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, s)
		}
	}
	return out
}

func trimSeparators(s string) string {
	return strings.TrimRight(s, ",; ")
}
