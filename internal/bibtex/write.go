package bibtex

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Sort keys that refer to entry attributes rather than fields.
const (
	SortKeyEntryType = "ENTRYTYPE"
	SortKeyID        = "ID"
)

// WriteOptions controls output layout.
type WriteOptions struct {
	Indent      string   // field indentation; defaults to a single space
	AlignValues bool     // pad field names so values line up
	SortBy      []string // sort keys applied in order; nil keeps file order
}

// FormattedOptions returns the layout used unless formatting is disabled:
// two-space indent with aligned values.
func FormattedOptions() WriteOptions {
	return WriteOptions{Indent: "  ", AlignValues: true}
}

// Write serializes a bibliography. Comments, preambles and macros are
// written before the entries.
func Write(w io.Writer, f *File, opts WriteOptions) error {
	var b strings.Builder

	for _, c := range f.Comments {
		fmt.Fprintf(&b, "@comment{%s}\n\n", c)
	}
	for _, p := range f.Preambles {
		fmt.Fprintf(&b, "@preamble{%s}\n\n", p)
	}
	if f.Strings != nil {
		for _, name := range f.Strings.Keys() {
			fmt.Fprintf(&b, "@string{%s = %s}\n\n", name, formatValue(f.Strings, name, ""))
		}
	}

	entries := f.Entries
	if len(opts.SortBy) > 0 {
		entries = SortEntries(entries, opts.SortBy)
	}
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatEntry(e, opts))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatEntry renders a single entry.
func FormatEntry(e Entry, opts WriteOptions) string {
	indent := opts.Indent
	if indent == "" {
		indent = " "
	}

	keys := e.Fields.Keys()
	width := 0
	if opts.AlignValues {
		for _, k := range keys {
			if len(k) > width {
				width = len(k)
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s", e.Type, e.Key)
	for _, k := range keys {
		name := k
		if opts.AlignValues {
			name = k + strings.Repeat(" ", width-len(k))
		}
		continuation := ""
		if opts.AlignValues {
			continuation = strings.Repeat(" ", len(indent)+width+4)
		}
		fmt.Fprintf(&b, ",\n%s%s = %s", indent, name, formatValue(e.Fields, k, continuation))
	}
	b.WriteString("\n}\n")
	return b.String()
}

// formatValue delimits a value. When continuation is set, multi-line values
// are re-indented so continuation lines align with the first.
func formatValue(f *Fields, name, continuation string) string {
	v := f.Get(name)
	if continuation != "" && strings.Contains(v, "\n") {
		lines := strings.Split(v, "\n")
		for i := 1; i < len(lines); i++ {
			lines[i] = continuation + strings.TrimLeft(lines[i], " \t")
		}
		v = strings.Join(lines, "\n")
	}
	if f.IsBare(name) {
		return v
	}
	return "{" + v + "}"
}

// SortEntries returns a stably sorted copy of entries. Keys are compared in
// order; ENTRYTYPE and ID refer to the entry type and citation key, any
// other key names a field (missing fields sort first).
func SortEntries(entries []Entry, keys []string) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			a, b := sortValue(out[i], k), sortValue(out[j], k)
			if a != b {
				return a < b
			}
		}
		return false
	})
	return out
}

func sortValue(e Entry, key string) string {
	switch key {
	case SortKeyEntryType:
		return e.Type
	case SortKeyID:
		return e.Key
	default:
		return e.Get(key)
	}
}
