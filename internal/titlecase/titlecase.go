package titlecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words kept lowercase inside a title.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "en": true, "for": true, "if": true,
	"in": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "v": true, "v.": true, "via": true, "vs": true,
	"vs.": true,
}

// Titlecase capitalizes a title using English title-case rules: small words
// stay lowercase except at the start, the end and after a colon; hyphenated
// words are capitalized part by part. Words with inner capitals, digits,
// braces or URL-like content are kept as written.
func Titlecase(s string) string {
	caser := cases.Title(language.English, cases.NoLower)

	words := strings.Fields(s)
	for i, w := range words {
		first := i == 0 || strings.HasSuffix(words[i-1], ":")
		last := i == len(words)-1
		words[i] = titlecaseWord(caser, w, first || last)
	}
	return strings.Join(words, " ")
}

func titlecaseWord(caser cases.Caser, word string, edge bool) string {
	if keepAsIs(word) {
		return word
	}
	if !strings.Contains(word, "-") {
		return capitalize(caser, word, edge)
	}

	parts := strings.Split(word, "-")
	for i, p := range parts {
		parts[i] = capitalize(caser, p, edge && i == 0)
	}
	return strings.Join(parts, "-")
}

func capitalize(caser cases.Caser, word string, edge bool) string {
	if word == "" || hasInnerCapital(word) {
		return word
	}
	if !edge && smallWords[strings.ToLower(strings.Trim(word, `,;:"'()`))] {
		return strings.ToLower(word)
	}
	return caser.String(word)
}

func keepAsIs(word string) bool {
	if strings.ContainsAny(word, `{}\$/@`) || strings.HasPrefix(strings.ToLower(word), "www.") {
		return true
	}
	hasDigit, hasLetter := false, false
	for _, r := range word {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
		}
	}
	return hasDigit && hasLetter
}

// hasInnerCapital reports an uppercase letter after the first letter,
// as in "iPhone", "NeRF" or "BERT".
func hasInnerCapital(word string) bool {
	seenLetter := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if seenLetter && unicode.IsUpper(r) {
			return true
		}
		seenLetter = true
	}
	return false
}

// IsTitlecased guesses whether a title is already title-cased: titles of up
// to two words need every word capitalized, up to four words at least two,
// longer titles at least three.
func IsTitlecased(title string) bool {
	words := strings.Fields(title)
	upper := 0
	for _, w := range words {
		if r, _ := utf8.DecodeRuneInString(strings.TrimLeft(w, `{"'(`)); unicode.IsUpper(r) {
			upper++
		}
	}

	switch {
	case len(words) <= 2:
		return upper == len(words)
	case len(words) <= 4:
		return upper >= 2
	default:
		return upper >= 3
	}
}
