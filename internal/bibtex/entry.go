// Package bibtex reads and writes BibTeX bibliography files.
//
// Entries keep their fields in file order so that a parse/write round trip
// only changes what the caller changed.
package bibtex

import (
	"fmt"
	"strings"
)

// Core field names used across the engine.
const (
	FieldAuthor    = "author"
	FieldTitle     = "title"
	FieldYear      = "year"
	FieldPages     = "pages"
	FieldBooktitle = "booktitle"
	FieldJournal   = "journal"
	FieldPublisher = "publisher"
	FieldURL       = "url"
	FieldAddress   = "address"
)

// Fields is an ordered, case-insensitive map of field names to values.
// Names are stored lowercased. Values are stored without their outer
// delimiters; bare values (macro names, concatenations) are flagged so the
// writer emits them unquoted.
type Fields struct {
	keys   []string
	values map[string]string
	bare   map[string]bool
}

// NewFields returns an empty field map.
func NewFields() *Fields {
	return &Fields{
		values: make(map[string]string),
		bare:   make(map[string]bool),
	}
}

func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the value of a field, or "" if it is absent.
func (f *Fields) Get(name string) string {
	if f == nil {
		return ""
	}
	return f.values[canonicalName(name)]
}

// Lookup returns the value of a field and whether it is present.
func (f *Fields) Lookup(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[canonicalName(name)]
	return v, ok
}

// Set sets a delimited field value. New fields are appended at the end.
func (f *Fields) Set(name, value string) {
	f.set(name, value, false)
}

// SetBare sets a value that is written without delimiters (e.g. a macro name).
func (f *Fields) SetBare(name, value string) {
	f.set(name, value, true)
}

func (f *Fields) set(name, value string, bare bool) {
	name = canonicalName(name)
	if _, ok := f.values[name]; !ok {
		f.keys = append(f.keys, name)
	}
	f.values[name] = value
	if bare {
		f.bare[name] = true
	} else {
		delete(f.bare, name)
	}
}

// IsBare reports whether the field value is written without delimiters.
func (f *Fields) IsBare(name string) bool {
	if f == nil {
		return false
	}
	return f.bare[canonicalName(name)]
}

// Delete removes a field. It reports whether the field existed.
func (f *Fields) Delete(name string) bool {
	name = canonicalName(name)
	if _, ok := f.values[name]; !ok {
		return false
	}
	delete(f.values, name)
	delete(f.bare, name)
	for i, k := range f.keys {
		if k == name {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the field names in order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Clone returns a deep copy.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	if f == nil {
		return out
	}
	out.keys = append(out.keys, f.keys...)
	for k, v := range f.values {
		out.values[k] = v
	}
	for k, v := range f.bare {
		out.bare[k] = v
	}
	return out
}

// Entry is a single BibTeX record.
type Entry struct {
	Type   string  // entry type, lowercased (article, inproceedings, ...)
	Key    string  // citation key, kept verbatim
	Fields *Fields // ordered field map
}

// NewEntry creates an entry with an empty field map.
func NewEntry(entryType, key string) Entry {
	return Entry{
		Type:   strings.ToLower(strings.TrimSpace(entryType)),
		Key:    key,
		Fields: NewFields(),
	}
}

// Get returns a field value, or "" when absent.
func (e Entry) Get(name string) string {
	return e.Fields.Get(name)
}

// Has reports whether the field is present.
func (e Entry) Has(name string) bool {
	_, ok := e.Fields.Lookup(name)
	return ok
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	return Entry{Type: e.Type, Key: e.Key, Fields: e.Fields.Clone()}
}

// ValidationError reports a core field that is missing or blank.
type ValidationError struct {
	Key   string
	Field string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("entry: missing %s", e.Field)
	}
	return fmt.Sprintf("entry %s: missing %s", e.Key, e.Field)
}

// Validate checks that the fields the matcher relies on are present.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Key) == "" {
		return &ValidationError{Field: "citation key"}
	}
	if strings.TrimSpace(e.Type) == "" {
		return &ValidationError{Key: e.Key, Field: "entry type"}
	}
	for _, name := range []string{FieldTitle, FieldAuthor} {
		if strings.TrimSpace(e.Get(name)) == "" {
			return &ValidationError{Key: e.Key, Field: name}
		}
	}
	return nil
}
