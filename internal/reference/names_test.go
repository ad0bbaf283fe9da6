package reference

import (
	"testing"
)

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  []Author
	}{
		{
			name:  "last comma first with latex",
			field: `Du{\v{s}}ek, Ond{\v{r}}ej and Kasner, Zden{\v{e}}k`,
			want: []Author{
				{First: "Ondřej", Last: "Dušek"},
				{First: "Zdeněk", Last: "Kasner"},
			},
		},
		{
			name:  "first last with line break",
			field: "Ondrej Dusek and\n                  Zdenek Kasner",
			want: []Author{
				{First: "Ondrej", Last: "Dusek"},
				{First: "Zdenek", Last: "Kasner"},
			},
		},
		{
			name:  "von particle",
			field: "Ludwig van Beethoven",
			want:  []Author{{First: "Ludwig", Last: "van Beethoven"}},
		},
		{
			name:  "von last comma first",
			field: "van der Waals, Johannes Diderik",
			want:  []Author{{First: "Johannes Diderik", Last: "van der Waals"}},
		},
		{
			name:  "jr form",
			field: "King, Jr, Martin Luther",
			want:  []Author{{First: "Martin Luther", Last: "King Jr"}},
		},
		{
			name:  "suffix without commas",
			field: "John Smith Jr.",
			want:  []Author{{First: "John", Last: "Smith Jr."}},
		},
		{
			name:  "corporate author in braces",
			field: "{World Health Organization} and Jane Doe",
			want: []Author{
				{Last: "World Health Organization"},
				{First: "Jane", Last: "Doe"},
			},
		},
		{
			name:  "and inside braces is not a separator",
			field: "{Barnes and Noble}",
			want:  []Author{{Last: "Barnes and Noble"}},
		},
		{
			name:  "and others dropped",
			field: "John Doe and others",
			want:  []Author{{First: "John", Last: "Doe"}},
		},
		{
			name:  "dblp homonym number",
			field: "Wei Wang 0001 and Li Zhang",
			want: []Author{
				{First: "Wei", Last: "Wang"},
				{First: "Li", Last: "Zhang"},
			},
		},
		{
			name:  "tilde and uppercase AND",
			field: "A.~B. Author AND C. Writer",
			want: []Author{
				{First: "A. B.", Last: "Author"},
				{First: "C.", Last: "Writer"},
			},
		},
		{
			name:  "single name",
			field: "Madonna",
			want:  []Author{{Last: "Madonna"}},
		},
		{
			name:  "empty",
			field: "  ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAuthors(tt.field)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseAuthors(%q) = %+v, want %+v", tt.field, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("author %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAuthorCanonical(t *testing.T) {
	a := Author{First: "Ondřej", Last: "Dušek"}
	if got := a.Canonical(); got != "Ondrej Dusek" {
		t.Errorf("Canonical() = %q, want %q", got, "Ondrej Dusek")
	}
	if got := a.SurnameKey(); got != "dusek" {
		t.Errorf("SurnameKey() = %q, want %q", got, "dusek")
	}
	if got := (Author{Last: "Madonna"}).FullName(); got != "Madonna" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestFormatList(t *testing.T) {
	authors := ParseAuthors(`Du{\v{s}}ek, Ond{\v{r}}ej and Kasner, Zden{\v{e}}k`)
	got := FormatList(authors, " and\n")
	want := "Ondrej Dusek and\nZdenek Kasner"
	if got != want {
		t.Errorf("FormatList() = %q, want %q", got, want)
	}
}

func TestFormatList_Organization(t *testing.T) {
	authors := ParseAuthors("{World Health Organization} and Jane Doe")
	got := FormatList(authors, " and ")
	want := "{World Health Organization} and Jane Doe"
	if got != want {
		t.Errorf("FormatList() = %q, want %q", got, want)
	}
	if again := FormatList(ParseAuthors(got), " and "); again != want {
		t.Errorf("FormatList() after reparse = %q, want %q", again, want)
	}
}
