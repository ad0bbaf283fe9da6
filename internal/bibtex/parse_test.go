package bibtex

import (
	"errors"
	"strings"
	"testing"
)

const dblpSample = `@inproceedings{DBLP:conf/inlg/DusekK20,
  author       = {Ondrej Dusek and
                  Zdenek Kasner},
  title        = {Evaluating Semantic Accuracy of Data-to-Text Generation with Natural
                  Language Inference},
  booktitle    = {Proceedings of the 13th International Conference on Natural Language
                  Generation, {INLG} 2020, Dublin, Ireland, December 15-18, 2020},
  pages        = {131--137},
  year         = {2020},
  url          = {https://aclanthology.org/2020.inlg-1.19/},
  timestamp    = {Mon, 08 Nov 2021 13:22:30 +0100},
}
`

func TestParseString_DBLPEntry(t *testing.T) {
	f, err := ParseString(dblpSample)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(f.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(f.Entries))
	}

	e := f.Entries[0]
	if e.Type != "inproceedings" {
		t.Errorf("Type = %q, want inproceedings", e.Type)
	}
	if e.Key != "DBLP:conf/inlg/DusekK20" {
		t.Errorf("Key = %q", e.Key)
	}
	if got := e.Get("pages"); got != "131--137" {
		t.Errorf("pages = %q", got)
	}
	if !strings.Contains(e.Get("booktitle"), "{INLG}") {
		t.Errorf("nested braces should be kept, got %q", e.Get("booktitle"))
	}

	wantOrder := []string{"author", "title", "booktitle", "pages", "year", "url", "timestamp"}
	got := e.Fields.Keys()
	if strings.Join(got, ",") != strings.Join(wantOrder, ",") {
		t.Errorf("field order = %v, want %v", got, wantOrder)
	}
}

func TestParseString_ValueForms(t *testing.T) {
	src := `@string{acl = "Association for Computational Linguistics"}
@preamble{"\newcommand{\noop}[1]{}"}
@comment{jabref-meta: databaseType:bibtex;}

Some free text that BibTeX ignores.

@Article(Key1,
  Title = "A {Quoted} Title",
  year = 2021,
  month = jan,
  publisher = acl # " Press",
)`

	f, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(f.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(f.Entries))
	}
	if f.Strings.Get("acl") != "Association for Computational Linguistics" {
		t.Errorf("@string not parsed: %q", f.Strings.Get("acl"))
	}
	if len(f.Preambles) != 1 || len(f.Comments) != 1 {
		t.Errorf("preambles=%d comments=%d, want 1 and 1", len(f.Preambles), len(f.Comments))
	}

	e := f.Entries[0]
	if e.Type != "article" {
		t.Errorf("entry type should be lowercased, got %q", e.Type)
	}
	if e.Get("title") != "A {Quoted} Title" {
		t.Errorf("title = %q", e.Get("title"))
	}
	if e.Get("year") != "2021" || e.Fields.IsBare("year") {
		t.Errorf("numeric year should be a plain value, got %q bare=%v", e.Get("year"), e.Fields.IsBare("year"))
	}
	if e.Get("month") != "jan" || !e.Fields.IsBare("month") {
		t.Errorf("macro month should be bare, got %q bare=%v", e.Get("month"), e.Fields.IsBare("month"))
	}
	if e.Get("publisher") != `acl # " Press"` {
		t.Errorf("concatenation should be kept raw, got %q", e.Get("publisher"))
	}
}

func TestParseString_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated entry", "@article{key,\n title = {A}"},
		{"unbalanced braces", "@article{key,\n title = {A {B}\n}\n"},
		{"missing equals", "@article{key,\n title {A}\n}"},
		{"unterminated quote", "@article{key, title = \"abc}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Line < 1 {
				t.Errorf("Line = %d, want >= 1", perr.Line)
			}
		})
	}
}

func TestParseString_Empty(t *testing.T) {
	f, err := ParseString("% nothing here\n")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(f.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(f.Entries))
	}
}

func TestEntryValidate(t *testing.T) {
	e := NewEntry("article", "k")
	e.Fields.Set("title", "T")

	err := e.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "author" {
		t.Fatalf("Validate() = %v, want missing author", err)
	}

	e.Fields.Set("author", "A. Person")
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestFields_DeleteAndClone(t *testing.T) {
	f := NewFields()
	f.Set("a", "1")
	f.Set("B", "2")
	f.Set("c", "3")

	clone := f.Clone()
	if !f.Delete("b") {
		t.Fatal("Delete(b) should report an existing field")
	}
	if f.Delete("b") {
		t.Error("second Delete(b) should report false")
	}
	if got := strings.Join(f.Keys(), ","); got != "a,c" {
		t.Errorf("Keys() = %s, want a,c", got)
	}
	if clone.Get("b") != "2" || clone.Len() != 3 {
		t.Error("Clone should not share state with the original")
	}
}
