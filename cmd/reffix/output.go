package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/fixer"
	"github.com/matsen/reffix/internal/logging"
	"github.com/matsen/reffix/internal/merge"
)

// Title truncation lengths by context
const (
	StatusTitleMaxLen = 60 // Used in per-entry status lines
	PromptValueMaxLen = 70 // Used in the interactive diff
)

// Report is the JSON run report printed with --json.
type Report struct {
	Input   string        `json:"input"`
	Output  string        `json:"output"`
	Summary fixer.Summary `json:"summary"`
	Entries []EntryReport `json:"entries"`
}

// EntryReport describes what happened to one entry.
type EntryReport struct {
	Key                string              `json:"key"`
	Action             fixer.Action        `json:"action"`
	MatchedKey         string              `json:"matched_key,omitempty"`
	Provenance         string              `json:"provenance,omitempty"`
	Score              float64             `json:"score,omitempty"`
	PublishedAvailable bool                `json:"published_available,omitempty"`
	PreprintOnly       bool                `json:"preprint_only,omitempty"`
	Changes            []merge.FieldChange `json:"changes,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
}

// outputJSON writes a value as formatted JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func buildReport(input, output string, summary fixer.Summary, outcomes []fixer.Outcome) Report {
	r := Report{
		Input:   input,
		Output:  output,
		Summary: summary,
		Entries: make([]EntryReport, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		er := EntryReport{
			Key:                o.Key,
			Action:             o.Action,
			PublishedAvailable: o.PublishedAvailable,
			PreprintOnly:       o.PreprintOnly,
			Changes:            o.Changes,
			Warnings:           o.Warnings,
		}
		if o.Match != nil {
			er.MatchedKey = o.Match.Candidate.Key
			er.Provenance = o.Match.Provenance.String()
			er.Score = o.Match.Score
		}
		r.Entries = append(r.Entries, er)
	}
	return r
}

// renderSummary renders the run summary as a table.
func renderSummary(s fixer.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Result", "Entries"})

	rows := []struct {
		label string
		n     int
	}{
		{"Updated", s.Updated},
		{"Replaced preprint", s.UpdatedArxiv},
		{"Kept (no match)", s.Kept},
		{"Declined", s.Rejected},
		{"Skipped", s.Skipped},
		{"Published version available", s.PublishedAvailable},
		{"Only preprint found", s.PreprintOnly},
		{"Lookup errors", s.LookupErrors},
		{"Warnings", s.Warnings},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.label, strconv.Itoa(r.n)})
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(s.Total)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

// reportOutcome prints the status lines for one entry.
func reportOutcome(p *logging.StatusPrinter, o fixer.Outcome) {
	title := merge.Truncate(o.Entry.Get(bibtex.FieldTitle), StatusTitleMaxLen)

	switch o.Action {
	case fixer.ActionUpdate:
		p.Printf(logging.StatusUpdate, "%s: %s (%s, score %.2f)", o.Key, title, o.Match.Candidate.Key, o.Match.Score)
	case fixer.ActionUpdateArxiv:
		p.Printf(logging.StatusUpdateArxiv, "%s: preprint replaced by %s", o.Key, o.Match.Candidate.Key)
	case fixer.ActionKeep:
		p.Printf(logging.StatusKeep, "%s: no matching entry found", o.Key)
	case fixer.ActionSkip:
		p.Printf(logging.StatusSkip, "%s: not looked up", o.Key)
	case fixer.ActionRejected:
		p.Printf(logging.StatusReject, "%s: update declined", o.Key)
	}

	if o.PublishedAvailable {
		p.Printf(logging.StatusKeepArxiv, "%s: a published version exists; use --replace-arxiv to prefer it", o.Key)
	}
	if o.PreprintOnly {
		p.Printf(logging.StatusKeepArxiv, "%s: no published version found, preprint used", o.Key)
	}
	for _, w := range o.Warnings {
		p.Printf(logging.StatusWarning, "%s: %s", o.Key, w)
	}
}

// formatChange renders one field change for the interactive prompt.
func formatChange(c merge.FieldChange) string {
	switch c.Kind {
	case merge.ChangeAdded:
		return fmt.Sprintf("+ %s: %s", c.FieldName, merge.Truncate(c.NewValue, PromptValueMaxLen))
	case merge.ChangeRemoved:
		return fmt.Sprintf("- %s: %s", c.FieldName, merge.Truncate(c.OldValue, PromptValueMaxLen))
	default:
		return fmt.Sprintf("~ %s: %s\n    -> %s", c.FieldName,
			merge.Truncate(c.OldValue, PromptValueMaxLen),
			merge.Truncate(c.NewValue, PromptValueMaxLen))
	}
}
