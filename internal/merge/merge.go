package merge

import (
	"strings"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/reference"
)

// AuthorSeparator joins rewritten author and editor names.
const AuthorSeparator = " and\n"

// Name-list fields rewritten to "Firstname Lastname" form.
var nameFields = []string{bibtex.FieldAuthor, "editor"}

// Merge combines a source entry with an accepted candidate.
//
// The citation key always comes from the source. The entry type comes from
// the candidate unless it is blank. Source fields keep their position;
// candidate values overwrite them in place and candidate-only fields are
// appended in candidate order. Source fields the candidate lacks, or has
// blank, are kept as they are. No field is ever removed.
func Merge(src, cand bibtex.Entry) bibtex.Entry {
	merged := src.Clone()
	if typ := strings.TrimSpace(cand.Type); typ != "" {
		merged.Type = strings.ToLower(typ)
	}

	for _, name := range cand.Fields.Keys() {
		value := cand.Fields.Get(name)
		if strings.TrimSpace(value) == "" {
			continue
		}
		if cand.Fields.IsBare(name) {
			merged.Fields.SetBare(name, value)
		} else {
			merged.Fields.Set(name, value)
		}
	}

	for _, name := range nameFields {
		if !cand.Has(name) {
			continue
		}
		authors := reference.ParseAuthors(cand.Get(name))
		if len(authors) == 0 {
			continue
		}
		merged.Fields.Set(name, reference.FormatList(authors, AuthorSeparator))
	}

	return merged
}

// Diff lists the field changes from before to after, in the order fields
// appear in after followed by fields removed from before.
func Diff(before, after bibtex.Entry) []FieldChange {
	var changes []FieldChange

	for _, name := range after.Fields.Keys() {
		newVal := after.Fields.Get(name)
		oldVal, ok := before.Fields.Lookup(name)
		switch {
		case !ok:
			changes = append(changes, FieldChange{FieldName: name, Kind: ChangeAdded, NewValue: newVal})
		case oldVal != newVal:
			changes = append(changes, FieldChange{FieldName: name, Kind: ChangeModified, OldValue: oldVal, NewValue: newVal})
		}
	}

	for _, name := range before.Fields.Keys() {
		if !after.Has(name) {
			changes = append(changes, FieldChange{FieldName: name, Kind: ChangeRemoved, OldValue: before.Fields.Get(name)})
		}
	}

	return changes
}

// Entry types whose publisher is dropped by StripPublisher. Books keep theirs.
var publisherlessTypes = map[string]bool{
	"article":       true,
	"inproceedings": true,
}

// StripPublisher removes the publisher field from articles and conference
// papers. It reports whether a field was removed.
func StripPublisher(e bibtex.Entry) bool {
	if !publisherlessTypes[e.Type] {
		return false
	}
	return e.Fields.Delete(bibtex.FieldPublisher)
}

// Supplied returns the names of the candidate fields Merge writes, in
// candidate order. Blank candidate values are not supplied.
func Supplied(cand bibtex.Entry) []string {
	var names []string
	for _, name := range cand.Fields.Keys() {
		if strings.TrimSpace(cand.Fields.Get(name)) != "" {
			names = append(names, name)
		}
	}
	return names
}

// Clean repairs the named field values so that they cannot break the output
// file: values with unbalanced braces lose all their braces, and "@" becomes
// " at ". Fields not named are left alone. It returns the names of the fields
// whose braces were removed.
func Clean(e bibtex.Entry, names []string) []string {
	var unbalanced []string
	for _, name := range names {
		value, ok := e.Fields.Lookup(name)
		if !ok {
			continue
		}
		cleaned := value
		if strings.Count(cleaned, "{") != strings.Count(cleaned, "}") {
			cleaned = strings.NewReplacer("{", "", "}", "").Replace(cleaned)
			unbalanced = append(unbalanced, name)
		}
		cleaned = strings.ReplaceAll(cleaned, "@", " at ")
		if cleaned == value {
			continue
		}
		if e.Fields.IsBare(name) {
			e.Fields.SetBare(name, cleaned)
		} else {
			e.Fields.Set(name, cleaned)
		}
	}
	return unbalanced
}

// Truncate shortens s to at most n runes for display.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return strings.TrimRight(string(r[:n-3]), " ") + "..."
}
