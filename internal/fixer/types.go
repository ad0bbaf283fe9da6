// Package fixer runs the lookup, match, merge and titlecase pipeline over
// the entries of a bibliography.
package fixer

import (
	"context"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/match"
	"github.com/matsen/reffix/internal/merge"
)

// DefaultConcurrency bounds the number of lookups in flight.
const DefaultConcurrency = 2

// Options controls how entries are fixed. The zero value keeps arXiv
// entries, leaves title case alone and never prompts.
type Options struct {
	ReplaceArxiv        bool    // prefer published versions over preprints
	ForceTitlecase      bool    // title-case titles that are not title-cased
	Interactive         bool    // confirm every update
	NoPublisher         bool    // drop publisher from articles and conference papers
	ProcessConfLocation bool    // move conference locations from booktitle to address
	Concurrency         int     // lookups in flight; <= 0 selects DefaultConcurrency
	TitleThreshold      float64 // minimum title similarity; <= 0 selects the default
}

// LookupFunc returns the candidate records for a search query, best guess first.
type LookupFunc func(ctx context.Context, query string) ([]bibtex.Entry, error)

// Proposal is an update waiting for confirmation.
type Proposal struct {
	Index    int
	Original bibtex.Entry
	Proposed bibtex.Entry
	Match    match.Result
	Changes  []merge.FieldChange
}

// Confirmer approves or rejects proposed updates. Confirm is called from a
// single goroutine, in input order.
type Confirmer interface {
	Confirm(ctx context.Context, p Proposal) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, p Proposal) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, p Proposal) (bool, error) {
	return f(ctx, p)
}

// Action indicates what happened to an entry.
type Action string

const (
	ActionUpdate      Action = "update"       // Replaced by a matching record
	ActionUpdateArxiv Action = "update_arxiv" // Preprint replaced by its published version
	ActionKeep        Action = "keep"         // No match; title case adjusted only
	ActionSkip        Action = "skip"         // Not looked up; the reason is in Warnings
	ActionRejected    Action = "rejected"     // Match declined in interactive mode
)

// Outcome is the result of fixing one entry.
type Outcome struct {
	Index    int
	Key      string
	Action   Action
	Entry    bibtex.Entry // entry to write
	Original bibtex.Entry // entry as read
	Match    *match.Result
	Changes  []merge.FieldChange
	Warnings []string

	// PublishedAvailable is set when a preprint was kept although a
	// published version matched.
	PublishedAvailable bool

	// PreprintOnly is set when a published version was preferred but only
	// preprint versions matched.
	PreprintOnly bool

	// LookupErr is the lookup failure, if any. The entry was kept.
	LookupErr error
}

// Summary counts outcomes by action.
type Summary struct {
	Total              int `json:"total"`
	Updated            int `json:"updated"`
	UpdatedArxiv       int `json:"updated_arxiv"`
	Kept               int `json:"kept"`
	Skipped            int `json:"skipped"`
	Rejected           int `json:"rejected"`
	PublishedAvailable int `json:"published_available"`
	PreprintOnly       int `json:"preprint_only"`
	LookupErrors       int `json:"lookup_errors"`
	Warnings           int `json:"warnings"`
}

// Summarize counts outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Action {
		case ActionUpdate:
			s.Updated++
		case ActionUpdateArxiv:
			s.UpdatedArxiv++
		case ActionKeep:
			s.Kept++
		case ActionSkip:
			s.Skipped++
		case ActionRejected:
			s.Rejected++
		}
		if o.PublishedAvailable {
			s.PublishedAvailable++
		}
		if o.PreprintOnly {
			s.PreprintOnly++
		}
		if o.LookupErr != nil {
			s.LookupErrors++
		}
		s.Warnings += len(o.Warnings)
	}
	return s
}
