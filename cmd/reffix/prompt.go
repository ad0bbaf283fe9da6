package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/fixer"
)

// promptConfirmer asks on a line-based terminal whether to apply an update.
type promptConfirmer struct {
	reader *bufio.Reader
	out    io.Writer
	total  int
}

func newPromptConfirmer(in io.Reader, out io.Writer, total int) *promptConfirmer {
	return &promptConfirmer{reader: bufio.NewReader(in), out: out, total: total}
}

// Confirm shows the original and retrieved entries with the field changes
// and reads a y/n answer.
func (c *promptConfirmer) Confirm(ctx context.Context, p fixer.Proposal) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	opts := bibtex.FormattedOptions()
	fmt.Fprintf(c.out, "\nEntry %d of %d: %s\n", p.Index+1, c.total, p.Original.Key)
	fmt.Fprintf(c.out, "Original:\n%s", indent(bibtex.FormatEntry(p.Original, opts)))
	fmt.Fprintf(c.out, "Retrieved (%s, %s, score %.2f):\n%s",
		p.Match.Candidate.Key, p.Match.Provenance, p.Match.Score,
		indent(bibtex.FormatEntry(p.Match.Candidate, opts)))
	if len(p.Changes) > 0 {
		fmt.Fprintln(c.out, "Changes:")
		for _, ch := range p.Changes {
			fmt.Fprintf(c.out, "  %s\n", formatChange(ch))
		}
	}

	for {
		fmt.Fprint(c.out, "Apply update? [y/n]: ")
		input, err := c.reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(input))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, errors.New("input closed before an answer was given")
			}
			return false, fmt.Errorf("reading answer: %w", err)
		}
		fmt.Fprintln(c.out, "Invalid choice. Please enter y or n.")
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
