// Package main provides the reffix CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// cliFlags holds the command-line flags of the root command.
type cliFlags struct {
	out            string
	replaceArxiv   bool
	forceTitlecase bool
	interactive    bool
	sortBy         []string
	noPublisher    bool
	processConfLoc bool
	noFormatting   bool
	concurrency    int
	jsonOutput     bool
	logLevel       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:   "reffix <input.bib>",
		Short: "Fix BibTeX entries using the DBLP database",
		Long: `reffix looks up every entry of a BibTeX file in DBLP and, when a
matching record is found, merges the retrieved metadata into the entry.

Citation keys and fields that DBLP does not provide are never changed or
removed. Titles get their capitals protected with braces. Preprints are
kept unless --replace-arxiv is given, in which case a published version is
preferred when one exists.

The fixed bibliography is written to <input>.fixed.bib unless --out is set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd.Context(), args[0], flags, stdin, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.out, "out", "o", "", "Output file (default <input>.fixed.bib)")
	f.BoolVarP(&flags.replaceArxiv, "replace-arxiv", "a", false, "Replace preprints with their published version when one exists")
	f.BoolVarP(&flags.forceTitlecase, "force-titlecase", "t", false, "Title-case titles that are not title-cased before protecting capitals")
	f.BoolVarP(&flags.interactive, "interact", "i", false, "Confirm every update interactively")
	f.StringSliceVarP(&flags.sortBy, "sort-by", "s", nil, "Sort entries by these keys (ENTRYTYPE, ID or field names)")
	f.BoolVar(&flags.noPublisher, "no-publisher", false, "Remove the publisher field from articles and conference papers")
	f.BoolVar(&flags.processConfLoc, "process-conf-loc", false, "Move conference locations from booktitle to address and drop dates")
	f.BoolVar(&flags.noFormatting, "no-formatting", false, "Write fields with single-space indent and no value alignment")
	f.IntVarP(&flags.concurrency, "concurrency", "j", 0, "Number of lookups in flight (default from config)")
	f.BoolVar(&flags.jsonOutput, "json", false, "Print the run report as JSON instead of a summary table")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")

	cmd.Version = Version
	return cmd
}
