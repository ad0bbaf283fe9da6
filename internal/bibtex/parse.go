package bibtex

import (
	"fmt"
	"io"
	"strings"
)

// File is a parsed bibliography.
type File struct {
	Comments  []string // @comment bodies
	Preambles []string // @preamble values, raw
	Strings   *Fields  // @string macro definitions, in file order
	Entries   []Entry
}

// ParseError reports malformed BibTeX input.
type ParseError struct {
	Line    int    // 1-indexed line where the problem was detected
	Message string // description of the problem
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse reads a whole bibliography from r.
func Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a bibliography held in memory.
// Free text between entries is ignored, as BibTeX itself does.
func ParseString(src string) (*File, error) {
	p := &parser{src: src, line: 1}
	f := &File{Strings: NewFields()}

	for p.skipTo('@') {
		p.advance() // '@'
		p.skipSpace()
		typ := strings.ToLower(p.readName())
		if typ == "" {
			continue // stray '@' in free text
		}
		p.skipSpace()
		open := p.peek()
		if open != '{' && open != '(' {
			continue
		}
		closing := byte('}')
		if open == '(' {
			closing = ')'
		}
		startLine := p.line
		p.advance()

		switch typ {
		case "comment":
			body, err := p.readUntilClosing(open, closing)
			if err != nil {
				return nil, err
			}
			f.Comments = append(f.Comments, strings.TrimSpace(body))

		case "preamble":
			raw, bare, err := p.readValue(closing)
			if err != nil {
				return nil, err
			}
			if err := p.expectClosing(closing, startLine); err != nil {
				return nil, err
			}
			if !bare {
				raw = "{" + raw + "}"
			}
			f.Preambles = append(f.Preambles, raw)

		case "string":
			p.skipSpace()
			name := p.readName()
			if name == "" {
				return nil, p.errorf("@string without a name")
			}
			p.skipSpace()
			if p.peek() != '=' {
				return nil, p.errorf("expected '=' in @string %s", name)
			}
			p.advance()
			value, bare, err := p.readValue(closing)
			if err != nil {
				return nil, err
			}
			if bare {
				f.Strings.SetBare(name, value)
			} else {
				f.Strings.Set(name, value)
			}
			if err := p.expectClosing(closing, startLine); err != nil {
				return nil, err
			}

		default:
			entry, err := p.readEntry(typ, closing, startLine)
			if err != nil {
				return nil, err
			}
			f.Entries = append(f.Entries, entry)
		}
	}

	return f, nil
}

type parser struct {
	src  string
	pos  int
	line int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() {
	if p.eof() {
		return
	}
	if p.src[p.pos] == '\n' {
		p.line++
	}
	p.pos++
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.advance()
	}
}

// skipTo advances to the next occurrence of c and reports whether one was found.
func (p *parser) skipTo(c byte) bool {
	for !p.eof() {
		if p.peek() == c {
			return true
		}
		p.advance()
	}
	return false
}

// readName reads an identifier: an entry type, field name or macro name.
func (p *parser) readName() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isSpace(c) || strings.IndexByte("=,{}()\"#@%", c) >= 0 {
			break
		}
		p.advance()
	}
	return p.src[start:p.pos]
}

func (p *parser) expectClosing(closing byte, startLine int) error {
	p.skipSpace()
	if p.peek() != closing {
		return &ParseError{Line: startLine, Message: fmt.Sprintf("unterminated block, expected %q", closing)}
	}
	p.advance()
	return nil
}

func (p *parser) readUntilClosing(open, closing byte) (string, error) {
	start := p.pos
	startLine := p.line
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == open:
			depth++
		case c == closing && depth == 0:
			body := p.src[start:p.pos]
			p.advance()
			return body, nil
		case c == closing:
			depth--
		}
		p.advance()
	}
	return "", &ParseError{Line: startLine, Message: "unterminated @comment"}
}

func (p *parser) readEntry(typ string, closing byte, startLine int) (Entry, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closing && !isSpace(p.peek()) {
		p.advance()
	}
	entry := NewEntry(typ, p.src[start:p.pos])

	p.skipSpace()
	if p.eof() {
		return Entry{}, &ParseError{Line: startLine, Message: fmt.Sprintf("unterminated entry %s", entry.Key)}
	}
	if p.peek() == closing {
		p.advance()
		return entry, nil
	}
	if p.peek() != ',' {
		return Entry{}, p.errorf("expected ',' after key %s", entry.Key)
	}
	p.advance()

	for {
		p.skipSpace()
		if p.eof() {
			return Entry{}, &ParseError{Line: startLine, Message: fmt.Sprintf("unterminated entry %s", entry.Key)}
		}
		if p.peek() == closing {
			p.advance()
			return entry, nil
		}

		name := p.readName()
		if name == "" {
			return Entry{}, p.errorf("expected field name in entry %s", entry.Key)
		}
		p.skipSpace()
		if p.peek() != '=' {
			return Entry{}, p.errorf("expected '=' after field %s in entry %s", name, entry.Key)
		}
		p.advance()

		value, bare, err := p.readValue(closing)
		if err != nil {
			return Entry{}, err
		}
		if bare {
			entry.Fields.SetBare(name, value)
		} else {
			entry.Fields.Set(name, value)
		}

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.advance()
		case closing:
			p.advance()
			return entry, nil
		default:
			return Entry{}, p.errorf("expected ',' or %q after field %s in entry %s", closing, name, entry.Key)
		}
	}
}

type valuePart struct {
	text  string
	delim byte // '{', '"' or 0 for bare tokens
}

// readValue reads a field value, including '#' concatenations. A single
// delimited part (or a bare number) is returned as plain text; anything
// else is returned raw with bare=true.
func (p *parser) readValue(closing byte) (string, bool, error) {
	var parts []valuePart
	for {
		p.skipSpace()
		switch p.peek() {
		case '{':
			s, err := p.readBraced()
			if err != nil {
				return "", false, err
			}
			parts = append(parts, valuePart{text: s, delim: '{'})
		case '"':
			s, err := p.readQuoted()
			if err != nil {
				return "", false, err
			}
			parts = append(parts, valuePart{text: s, delim: '"'})
		default:
			start := p.pos
			for !p.eof() {
				c := p.peek()
				if isSpace(c) || c == ',' || c == '#' || c == closing {
					break
				}
				p.advance()
			}
			tok := p.src[start:p.pos]
			if tok == "" {
				return "", false, p.errorf("missing field value")
			}
			parts = append(parts, valuePart{text: tok})
		}

		p.skipSpace()
		if p.peek() != '#' {
			break
		}
		p.advance()
	}

	if len(parts) == 1 && (parts[0].delim != 0 || isNumber(parts[0].text)) {
		return parts[0].text, false, nil
	}

	raw := make([]string, len(parts))
	for i, part := range parts {
		switch part.delim {
		case '{':
			raw[i] = "{" + part.text + "}"
		case '"':
			raw[i] = `"` + part.text + `"`
		default:
			raw[i] = part.text
		}
	}
	return strings.Join(raw, " # "), true, nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// readBraced reads a {...} group and returns its content without the outer braces.
func (p *parser) readBraced() (string, error) {
	startLine := p.line
	p.advance() // '{'
	start := p.pos
	depth := 1
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s := p.src[start:p.pos]
				p.advance()
				return s, nil
			}
		}
		p.advance()
	}
	return "", &ParseError{Line: startLine, Message: "unbalanced braces in value"}
}

// readQuoted reads a "..." value. Quotes inside braces do not terminate it.
func (p *parser) readQuoted() (string, error) {
	startLine := p.line
	p.advance() // '"'
	start := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '"' && depth == 0 && (p.pos == 0 || p.src[p.pos-1] != '\\'):
			s := p.src[start:p.pos]
			p.advance()
			return s, nil
		}
		p.advance()
	}
	return "", &ParseError{Line: startLine, Message: "unterminated quoted value"}
}
