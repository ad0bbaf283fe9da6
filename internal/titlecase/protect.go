// Package titlecase protects title capitalization from BibTeX styles that
// lowercase titles, and restores title case where it was lost.
package titlecase

import (
	"strings"
	"unicode"
)

// Apply returns a BibTeX-safe version of title.
//
// The capitalization of title words is taken from reference (the looked-up
// title when there is one, otherwise title itself). With force, a reference
// that is not already title-cased is title-cased first. Capital letters are
// then protected with braces.
func Apply(title, reference string, force bool) string {
	if strings.TrimSpace(reference) == "" {
		reference = title
	}
	if force && !IsTitlecased(reference) {
		reference = Titlecase(reference)
	}
	return Protect(align(title, reference))
}

// align copies the casing of reference words onto the matching title words.
// Words are matched in order, ignoring case; unmatched title words and
// words with braces are kept.
func align(title, reference string) string {
	words := strings.Fields(title)
	refs := strings.Fields(reference)

	next := 0
	for i, w := range words {
		if strings.Contains(w, "{") {
			continue
		}
		for k := next; k < len(refs); k++ {
			if strings.EqualFold(w, refs[k]) {
				words[i] = refs[k]
				next = k + 1
				break
			}
		}
	}
	return strings.Join(words, " ")
}

// Protect wraps capital letters in braces, one letter per group: "NeRF"
// becomes "{N}e{R}{F}".
//
// Left unchanged:
//   - words that already contain braces, LaTeX commands or math
//   - the first letter of the first word and of a word after a colon,
//     which styles never lowercase
//   - the capital starting a lowercase part of a hyphenated word whose
//     first part is longer than one letter ("Spatially-Varying", but not
//     "U-Net")
//
// Protect is idempotent.
func Protect(title string) string {
	words := strings.Fields(title)
	for i, w := range words {
		if strings.ContainsAny(w, `{}\$`) {
			continue
		}
		initial := i == 0 || strings.HasSuffix(words[i-1], ":")
		words[i] = protectWord(w, initial)
	}
	return strings.Join(words, " ")
}

func protectWord(word string, initial bool) string {
	runes := []rune(word)
	firstLetter := -1
	if initial {
		for i, r := range runes {
			if unicode.IsLetter(r) {
				firstLetter = i
				break
			}
		}
	}

	hyphenated := false
	if idx := strings.IndexRune(word, '-'); idx > 0 {
		hyphenated = len([]rune(word[:idx])) > 1
	}

	var b strings.Builder
	for i, r := range runes {
		protect := unicode.IsUpper(r) && i != firstLetter
		if protect && hyphenated && i > 0 && runes[i-1] == '-' && allLower(runes[i+1:]) {
			protect = false
		}
		if protect {
			b.WriteByte('{')
			b.WriteRune(r)
			b.WriteByte('}')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allLower(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}
