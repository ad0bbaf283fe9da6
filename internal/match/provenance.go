package match

import (
	"strings"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/textnorm"
)

// Provenance says whether a record is a preprint or a published version.
type Provenance int

const (
	Published Provenance = iota
	Preprint
)

func (p Provenance) String() string {
	if p == Preprint {
		return "preprint"
	}
	return "published"
}

// Preprint servers recognized in venue-like fields.
var preprintServers = []string{"arxiv", "biorxiv", "medrxiv"}

// ProvenanceOf classifies an entry. DBLP files arXiv papers under the
// journal "CoRR"; other sources use eprinttype, archiveprefix or an arxiv.org URL.
func ProvenanceOf(e bibtex.Entry) Provenance {
	var hay strings.Builder
	for _, field := range []string{"journal", "eprinttype", "archiveprefix", "url", "howpublished", "publisher"} {
		hay.WriteString(strings.ToLower(e.Get(field)))
		hay.WriteByte(' ')
	}
	s := hay.String()
	for _, server := range preprintServers {
		if strings.Contains(s, server) {
			return Preprint
		}
	}
	for _, tok := range textnorm.Tokens(e.Get("journal")) {
		if tok == "corr" {
			return Preprint
		}
	}
	return Published
}
