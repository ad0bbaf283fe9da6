package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Combining marks for LaTeX accent commands.
var accentMarks = map[string]string{
	"`": "\u0300",
	"'": "\u0301",
	"^": "\u0302",
	"~": "\u0303",
	"=": "\u0304",
	"u": "\u0306",
	".": "\u0307",
	`"`: "\u0308",
	"r": "\u030A",
	"H": "\u030B",
	"v": "\u030C",
	"d": "\u0323",
	"c": "\u0327",
	"k": "\u0328",
	"b": "\u0331",
	"t": "\u0361",
}

// Letter-like macros.
var symbolMacros = map[string]string{
	"ss": "ß",
	"o":  "ø",
	"O":  "Ø",
	"l":  "ł",
	"L":  "Ł",
	"ae": "æ",
	"AE": "Æ",
	"oe": "œ",
	"OE": "Œ",
	"aa": "å",
	"AA": "Å",
	"i":  "ı",
	"j":  "ȷ",
	"dh": "ð",
	"DH": "Ð",
	"th": "þ",
	"TH": "Þ",
	"dj": "đ",
	"DJ": "Đ",
}

var (
	escapedChar       = regexp.MustCompile(`\\([&%$#_{}])`)
	symbolMacro       = regexp.MustCompile(`\\(ss|ae|AE|oe|OE|aa|AA|dh|DH|th|TH|dj|DJ|o|O|l|L|i|j)(?:\{\}|\s+|\b)`)
	symbolAccent      = regexp.MustCompile("\\\\([`'^~=.\"])\\s*(?:\\{\\s*(\\pL)\\s*\\}|(\\pL))")
	letterAccent      = regexp.MustCompile(`\\([uvHcdbkrt])(?:\s*\{\s*(\pL)\s*\}|\s+(\pL))`)
	otherCommand      = regexp.MustCompile(`\\[A-Za-z]+\*?\s*`)
	dashes            = strings.NewReplacer("---", "—", "--", "–", "~", " ", "``", "“", "''", "”")
	escapePlaceholder = strings.NewReplacer(
		"\x00amp", "&",
		"\x00pct", "%",
		"\x00dol", "$",
		"\x00hash", "#",
		"\x00us", "_",
		"\x00lb", "{",
		"\x00rb", "}",
	)
)

var escapeNames = map[string]string{
	"&": "\x00amp",
	"%": "\x00pct",
	"$": "\x00dol",
	"#": "\x00hash",
	"_": "\x00us",
	"{": "\x00lb",
	"}": "\x00rb",
}

// DecodeLatex converts LaTeX accent escapes and letter macros to Unicode
// and drops grouping braces, e.g. `Du{\v{s}}ek` becomes "Dušek".
// Unknown commands are removed and their arguments kept.
func DecodeLatex(s string) string {
	if !strings.ContainsAny(s, `\{}~-`+"`'") {
		return norm.NFC.String(s)
	}

	// Escaped specials survive brace removal via placeholders.
	s = escapedChar.ReplaceAllStringFunc(s, func(m string) string {
		return escapeNames[m[1:]]
	})

	s = symbolMacro.ReplaceAllStringFunc(s, func(m string) string {
		sub := symbolMacro.FindStringSubmatch(m)
		return symbolMacros[sub[1]]
	})

	s = symbolAccent.ReplaceAllStringFunc(s, func(m string) string {
		return applyAccent(symbolAccent.FindStringSubmatch(m))
	})
	s = letterAccent.ReplaceAllStringFunc(s, func(m string) string {
		return applyAccent(letterAccent.FindStringSubmatch(m))
	})

	s = otherCommand.ReplaceAllString(s, "")
	s = dashes.Replace(s)
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	s = escapePlaceholder.Replace(s)

	return norm.NFC.String(s)
}

// applyAccent builds letter+combining mark from a regexp submatch where
// sub[1] is the accent and sub[2] or sub[3] the letter.
func applyAccent(sub []string) string {
	letter := sub[2]
	if letter == "" {
		letter = sub[3]
	}
	return letter + accentMarks[sub[1]]
}
