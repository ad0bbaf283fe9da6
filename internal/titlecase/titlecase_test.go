package titlecase

import (
	"strings"
	"testing"
)

const dblpTitle = "Evaluating Semantic Accuracy of Data-to-Text Generation with Natural Language Inference"

func TestProtect(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "hyphen rules",
			title: "Test {T}itle in a 3-D U-Net Spatially-Varying Mip-NeRF",
			want:  "Test {T}itle in a 3-{D} {U}-{N}et {S}patially-Varying {M}ip-{N}e{R}{F}",
		},
		{
			name:  "dblp title",
			title: dblpTitle,
			want:  "Evaluating {S}emantic {A}ccuracy of {D}ata-to-Text {G}eneration with {N}atural {L}anguage {I}nference",
		},
		{
			name:  "after colon",
			title: "BERT: Pre-training of Deep Bidirectional Transformers",
			want:  "B{E}{R}{T}: Pre-training of {D}eep {B}idirectional {T}ransformers",
		},
		{
			name:  "capital after colon",
			title: "Attention: Transformers Rule",
			want:  "Attention: Transformers {R}ule",
		},
		{
			name:  "latex and math untouched",
			title: `The \LaTeX{} Companion for $O(N)$ Sorting`,
			want:  `The \LaTeX{} {C}ompanion for $O(N)$ {S}orting`,
		},
		{
			name:  "leading quote",
			title: `"Why Should I Trust You?"`,
			want:  `"Why {S}hould {I} {T}rust {Y}ou?"`,
		},
		{
			name:  "accented capital",
			title: "Analyse des Équations",
			want:  "Analyse des {É}quations",
		},
		{
			name:  "lowercase only",
			title: "deep learning for nlp",
			want:  "deep learning for nlp",
		},
		{
			name:  "whitespace collapsed",
			title: "Multi\n   Line  Title",
			want:  "Multi {L}ine {T}itle",
		},
		{
			name:  "empty",
			title: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Protect(tt.title); got != tt.want {
				t.Errorf("Protect(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestProtect_Idempotent(t *testing.T) {
	titles := []string{
		dblpTitle,
		"Test Title in a 3-D U-Net Spatially-Varying Mip-NeRF",
		"BERT: Pre-training of Deep Bidirectional Transformers",
		"A {GPU} Approach: Fast NeRF",
	}

	for _, title := range titles {
		once := Protect(title)
		twice := Protect(once)
		if once != twice {
			t.Errorf("Protect not idempotent for %q:\n once  %q\n twice %q", title, once, twice)
		}
		if strings.Count(once, "{") != strings.Count(once, "}") {
			t.Errorf("Protect(%q) = %q has unbalanced braces", title, once)
		}
		if strings.Contains(once, "{{") {
			t.Errorf("Protect(%q) = %q double-wraps", title, once)
		}
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		reference string
		force     bool
		want      string
	}{
		{
			name:  "candidate title protected",
			title: dblpTitle,
			want:  "Evaluating {S}emantic {A}ccuracy of {D}ata-to-Text {G}eneration with {N}atural {L}anguage {I}nference",
		},
		{
			name:      "casing from reference",
			title:     "a study of bert models",
			reference: "A Study of BERT Models",
			want:      "A {S}tudy of {B}{E}{R}{T} {M}odels",
		},
		{
			name:      "reference words missing in title",
			title:     "a study of bert",
			reference: "A Survey of BERT",
			want:      "A study of {B}{E}{R}{T}",
		},
		{
			name:  "lowercase title kept without force",
			title: "evaluating semantic accuracy of data-to-text generation",
			want:  "evaluating semantic accuracy of data-to-text generation",
		},
		{
			name:  "force titlecases",
			title: "evaluating semantic accuracy of data-to-text generation",
			force: true,
			want:  "Evaluating {S}emantic {A}ccuracy of {D}ata-to-Text {G}eneration",
		},
		{
			name:  "force keeps titlecased input",
			title: "Deep learning for NLP: A Survey",
			force: true,
			want:  "Deep learning for {N}{L}{P}: A {S}urvey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.title, tt.reference, tt.force)
			if got != tt.want {
				t.Errorf("Apply() = %q, want %q", got, tt.want)
			}
			if again := Apply(got, got, tt.force); again != got {
				t.Errorf("Apply() not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestTitlecase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"evaluating semantic accuracy of data-to-text generation",
			"Evaluating Semantic Accuracy of Data-to-Text Generation",
		},
		{
			"a study of BERT: the good parts",
			"A Study of BERT: The Good Parts",
		},
		{
			"learning on x86 and iPhone",
			"Learning on x86 and iPhone",
		},
		{
			"what is it for",
			"What Is It For",
		},
		{
			"code at https://example.org and {DNA} data",
			"Code at https://example.org and {DNA} Data",
		},
		{
			"the state of the art",
			"The State of the Art",
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Titlecase(tt.in); got != tt.want {
				t.Errorf("Titlecase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsTitlecased(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Deep Learning", true},
		{"Deep learning", false},
		{"A Survey of Methods", true},
		{"A survey of methods", false},
		{"Evaluating Semantic accuracy of models for text", false},
		{"Evaluating Semantic Accuracy of models for text", true},
		{"{T}itle {C}ase", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := IsTitlecased(tt.title); got != tt.want {
				t.Errorf("IsTitlecased(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}
