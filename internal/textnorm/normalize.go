// Package textnorm canonicalizes bibliographic text for comparison.
//
// Nothing produced here is meant for display: titles and names are folded
// to lowercase ASCII so that "Du{\v{s}}ek", "Dušek" and "DUSEK" compare equal.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Letters with no canonical decomposition to ASCII.
var foldTable = strings.NewReplacer(
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"ı", "i", "ȷ", "j",
	"ħ", "h", "Ħ", "H",
	"ŧ", "t", "Ŧ", "T",
	"–", "-", "—", "-",
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	" ", " ",
)

// Fold transliterates s to ASCII where possible, keeping case.
func Fold(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return foldTable.Replace(out)
}

// Normalize returns the comparison form of s: LaTeX decoded, lowercased,
// accent-folded, punctuation replaced by spaces, whitespace collapsed.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = Fold(strings.ToLower(DecodeLatex(s)))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Compact is Normalize without any separators. Titles are compared in this
// form so that "Data-to-Text" and "Data to Text" agree.
func Compact(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

// Tokens splits the normalized form of s into words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}
