package reference

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/reffix/internal/textnorm"
)

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// ParseAuthors splits a BibTeX author field into names.
//
// Supported forms follow BibTeX: "First von Last", "von Last, First" and
// "von Last, Jr, First", separated by "and" outside braces. "and others"
// is dropped. Brace groups such as "{World Health Organization}" stay one
// last name. LaTeX escapes are decoded; accents are kept.
func ParseAuthors(field string) []Author {
	field = strings.ReplaceAll(field, "~", " ")
	var authors []Author
	for _, raw := range splitDepthZero(field, isAndSeparator) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.EqualFold(raw, "others") {
			continue
		}
		a := parseName(raw)
		if a.First == "" && a.Last == "" {
			continue
		}
		authors = append(authors, a)
	}
	return authors
}

func parseName(raw string) Author {
	parts := splitDepthZero(raw, func(s string, i int) int {
		if s[i] == ',' {
			return 1
		}
		return 0
	})
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		return splitFirstLast(parts[0])
	case 2:
		return Author{First: decode(parts[1]), Last: decode(parts[0])}
	default:
		// von Last, Jr, First
		last := parts[0]
		if parts[1] != "" {
			last += " " + parts[1]
		}
		return Author{First: decode(strings.Join(parts[2:], " ")), Last: decode(last)}
	}
}

// splitFirstLast handles the "First von Last" form.
func splitFirstLast(name string) Author {
	words := splitDepthZero(name, func(s string, i int) int {
		if isSpaceByte(s[i]) {
			return 1
		}
		return 0
	})
	tokens := words[:0]
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			tokens = append(tokens, w)
		}
	}

	switch len(tokens) {
	case 0:
		return Author{}
	case 1:
		return Author{Last: decode(tokens[0])}
	}

	// DBLP disambiguates homonyms with a numeric suffix ("Wei Wang 0001").
	if len(tokens) > 2 && isDigits(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}

	end := len(tokens)
	if nameSuffixes[strings.ToLower(tokens[end-1])] && end > 2 {
		end--
	}

	// The von part starts at the first lowercase word that is not the last name.
	lastStart := end - 1
	for i := 1; i < end-1; i++ {
		if startsLower(tokens[i]) {
			lastStart = i
			break
		}
	}

	return Author{
		First: decode(strings.Join(tokens[:lastStart], " ")),
		Last:  decode(strings.Join(tokens[lastStart:], " ")),
	}
}

func decode(s string) string {
	return strings.Join(strings.Fields(textnorm.DecodeLatex(s)), " ")
}

func startsLower(word string) bool {
	if strings.HasPrefix(word, "{") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(textnorm.DecodeLatex(word))
	return unicode.IsLower(r)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isAndSeparator matches a whitespace-delimited "and" (any case) at s[i].
func isAndSeparator(s string, i int) int {
	if !isSpaceByte(s[i]) {
		return 0
	}
	j := i
	for j < len(s) && isSpaceByte(s[j]) {
		j++
	}
	if j+3 >= len(s) || !strings.EqualFold(s[j:j+3], "and") || !isSpaceByte(s[j+3]) {
		return 0
	}
	return j + 3 - i + 1
}

// splitDepthZero splits s wherever sep reports a separator of the returned
// width outside brace groups.
func splitDepthZero(s string, sep func(s string, i int) int) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 {
			if n := sep(s, i); n > 0 {
				parts = append(parts, s[start:i])
				i += n
				start = i
				continue
			}
		}
		i++
	}
	return append(parts, s[start:])
}
