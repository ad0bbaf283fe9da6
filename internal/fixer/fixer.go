package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/logging"
	"github.com/matsen/reffix/internal/match"
	"github.com/matsen/reffix/internal/merge"
	"github.com/matsen/reffix/internal/reference"
	"github.com/matsen/reffix/internal/textnorm"
	"github.com/matsen/reffix/internal/titlecase"
)

// Fixer matches bibliography entries against a lookup service and merges
// the records it accepts.
type Fixer struct {
	lookup    LookupFunc
	confirmer Confirmer
	opts      Options
	cmp       match.Comparator
	logger    *slog.Logger
	onOutcome func(Outcome)
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithConfirmer sets the confirmer used when Options.Interactive is set.
func WithConfirmer(c Confirmer) Option {
	return func(f *Fixer) {
		f.confirmer = c
	}
}

// WithLogger sets the logger for per-entry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fixer) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithOutcomeHandler registers a callback invoked for every outcome, in
// input order, as soon as the entry is done.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(f *Fixer) {
		f.onOutcome = fn
	}
}

// New creates a Fixer.
func New(lookup LookupFunc, opts Options, options ...Option) *Fixer {
	f := &Fixer{
		lookup: lookup,
		opts:   opts,
		cmp:    match.NewComparator(opts.TitleThreshold),
		logger: logging.NewNop(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

type lookupResult struct {
	candidates []bibtex.Entry
	err        error
}

// Run fixes entries and returns one outcome per entry, in input order.
//
// Lookups run concurrently, bounded by Options.Concurrency, and each entry
// is looked up at most once. Everything else, including confirmation,
// happens sequentially in input order. A failed lookup keeps the entry and
// is reported in its outcome. Run only fails when ctx is cancelled or the
// confirmer returns an error.
func (f *Fixer) Run(ctx context.Context, entries []bibtex.Entry) ([]Outcome, error) {
	if f.opts.Interactive && f.confirmer == nil {
		return nil, fmt.Errorf("interactive mode requires a confirmer")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queries := make([]string, len(entries))
	invalid := make([]error, len(entries))
	results := make([]lookupResult, len(entries))
	ready := make([]chan struct{}, len(entries))
	for i, e := range entries {
		queries[i], invalid[i] = buildQuery(e)
		ready[i] = make(chan struct{})
	}

	limit := f.opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	// Submit lookups from a separate goroutine so that Go blocking on the
	// limit does not stall in-order processing.
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i := range entries {
			if queries[i] == "" {
				close(ready[i])
				continue
			}
			if gctx.Err() != nil {
				return
			}
			g.Go(func() error {
				defer close(ready[i])
				cands, err := f.lookup(gctx, queries[i])
				results[i] = lookupResult{candidates: cands, err: err}
				return nil
			})
		}
	}()

	wait := func() {
		cancel()
		<-submitted
		_ = g.Wait()
	}

	outcomes := make([]Outcome, 0, len(entries))
	for i, e := range entries {
		select {
		case <-ready[i]:
		case <-ctx.Done():
			wait()
			return outcomes, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			wait()
			return outcomes, err
		}

		var out Outcome
		if invalid[i] != nil {
			out = f.skip(i, e, invalid[i])
		} else {
			var err error
			out, err = f.process(ctx, i, e, queries[i], results[i])
			if err != nil {
				wait()
				return outcomes, err
			}
		}
		outcomes = append(outcomes, out)
		if f.onOutcome != nil {
			f.onOutcome(out)
		}
	}

	wait()
	return outcomes, nil
}

// process decides the fate of one entry once its lookup is done.
func (f *Fixer) process(ctx context.Context, i int, src bibtex.Entry, query string, res lookupResult) (Outcome, error) {
	out := Outcome{
		Index:    i,
		Key:      src.Key,
		Original: src,
		Entry:    src,
	}

	if res.err != nil {
		out.LookupErr = res.err
		out.Warnings = append(out.Warnings, fmt.Sprintf("lookup failed: %v", res.err))
		f.logger.Debug("lookup failed", "key", src.Key, "error", res.err)
	}

	sel := f.cmp.Select(src, res.candidates, f.opts.ReplaceArxiv)
	f.logger.Debug("candidates ranked",
		"key", src.Key,
		"query", query,
		"candidates", len(res.candidates),
		"accepted", len(sel.Ranked),
	)

	var entry bibtex.Entry
	var unbalanced []string
	switch {
	case sel.Found:
		proposed, cleaned := f.propose(src, sel.Best)
		out.Match = &sel.Best
		out.PublishedAvailable = sel.PublishedAvailable
		out.PreprintOnly = sel.PreprintOnly

		accepted := true
		if f.opts.Interactive {
			var err error
			accepted, err = f.confirmer.Confirm(ctx, Proposal{
				Index:    i,
				Original: src,
				Proposed: proposed,
				Match:    sel.Best,
				Changes:  merge.Diff(src, proposed),
			})
			if err != nil {
				return out, fmt.Errorf("confirming %s: %w", src.Key, err)
			}
		}

		if accepted {
			entry = proposed
			unbalanced = cleaned
			out.Action = f.updateAction(src, sel.Best)
		} else {
			entry = f.passThrough(src)
			out.Action = ActionRejected
		}
	default:
		entry = f.passThrough(src)
		out.Action = ActionKeep
	}

	if f.opts.NoPublisher {
		merge.StripPublisher(entry)
	}
	for _, field := range unbalanced {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unbalanced braces removed from %s", field))
	}

	out.Entry = entry
	out.Changes = merge.Diff(src, entry)
	return out, nil
}

// propose builds the merged entry for an accepted candidate. Only values
// taken from the candidate are cleaned; it returns the names of those whose
// unbalanced braces were removed.
func (f *Fixer) propose(src bibtex.Entry, best match.Result) (bibtex.Entry, []string) {
	merged := merge.Merge(src, best.Candidate)
	unbalanced := merge.Clean(merged, merge.Supplied(best.Candidate))
	if f.opts.ProcessConfLocation && merged.Type == "inproceedings" {
		ProcessConfLocation(merged)
	}
	if title, ok := merged.Fields.Lookup(bibtex.FieldTitle); ok {
		merged.Fields.Set(bibtex.FieldTitle, titlecase.Apply(title, title, f.opts.ForceTitlecase))
	}
	return merged, unbalanced
}

// skip emits an entry that cannot be looked up as it was read.
func (f *Fixer) skip(i int, src bibtex.Entry, reason error) Outcome {
	f.logger.Debug("entry not looked up", "key", src.Key, "reason", reason)
	return Outcome{
		Index:    i,
		Key:      src.Key,
		Action:   ActionSkip,
		Entry:    src,
		Original: src,
		Warnings: []string{reason.Error()},
	}
}

// passThrough keeps the source entry, adjusting only its title case.
func (f *Fixer) passThrough(src bibtex.Entry) bibtex.Entry {
	entry := src.Clone()
	if title, ok := entry.Fields.Lookup(bibtex.FieldTitle); ok && !entry.Fields.IsBare(bibtex.FieldTitle) {
		entry.Fields.Set(bibtex.FieldTitle, titlecase.Apply(title, "", f.opts.ForceTitlecase))
	}
	return entry
}

func (f *Fixer) updateAction(src bibtex.Entry, best match.Result) Action {
	if match.IsEquivalent(best.Candidate, src) {
		return ActionUpdate
	}
	if f.opts.ReplaceArxiv && match.ProvenanceOf(src) == match.Preprint && best.Provenance == match.Published {
		return ActionUpdateArxiv
	}
	return ActionUpdate
}

// Query builds the lookup query for an entry: the title without LaTeX
// markup followed by the first author's name. It reports false when the
// entry has no title or no parsable first author.
func Query(e bibtex.Entry) (string, bool) {
	q, err := buildQuery(e)
	return q, err == nil
}

// buildQuery validates the entry and builds its query. The error is a
// *bibtex.ValidationError naming what is missing.
func buildQuery(e bibtex.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	title := strings.Join(strings.Fields(textnorm.DecodeLatex(e.Get(bibtex.FieldTitle))), " ")
	if title == "" {
		return "", &bibtex.ValidationError{Key: e.Key, Field: bibtex.FieldTitle}
	}
	authors := reference.ParseAuthors(e.Get(bibtex.FieldAuthor))
	if len(authors) == 0 || authors[0].Canonical() == "" {
		return "", &bibtex.ValidationError{Key: e.Key, Field: "first author"}
	}
	return title + " " + authors[0].Canonical(), nil
}
