package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/matsen/reffix/internal/bibtex"
	"github.com/matsen/reffix/internal/config"
	"github.com/matsen/reffix/internal/dblp"
	"github.com/matsen/reffix/internal/fixer"
	"github.com/matsen/reffix/internal/logging"
)

// stdinIsTerminal reports whether r is an interactive terminal.
var stdinIsTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runFix reads a bibliography, fixes every entry and writes the result.
func runFix(ctx context.Context, input string, flags cliFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	settings, err := loadSettings(flags)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	colorize := logging.ColorEnabled(stderr)
	logger, err := logging.New(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Writer: stderr,
		Color:  colorize,
	})
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	status := logging.NewStatusPrinter(stderr, colorize)

	if flags.interactive && !stdinIsTerminal(stdin) {
		return withExitCode(ExitConfigError, errors.New("--interact needs a terminal on stdin"))
	}

	inPath := config.ExpandPath(input)
	file, err := readBibliography(inPath)
	if err != nil {
		return withExitCode(ExitDataError, err)
	}
	outPath := outputPath(inPath, flags.out)

	if !flags.replaceArxiv {
		status.Printf(logging.StatusWarning, "--replace-arxiv not set: preprints are kept even when a published version exists")
	}
	logger.Debug("starting",
		"input", inPath,
		"output", outPath,
		"entries", len(file.Entries),
		"dblp_url", settings.DBLPURL,
		"concurrency", settings.Concurrency,
	)

	client := dblp.NewClient(
		dblp.WithBaseURL(settings.DBLPURL),
		dblp.WithUserAgent(settings.UserAgent),
		dblp.WithRateLimit(settings.RateLimit),
		dblp.WithMaxRetries(settings.MaxRetries),
		dblp.WithMaxHits(settings.MaxHits),
	)

	opts := fixer.Options{
		ReplaceArxiv:        flags.replaceArxiv,
		ForceTitlecase:      flags.forceTitlecase,
		Interactive:         flags.interactive,
		NoPublisher:         flags.noPublisher,
		ProcessConfLocation: flags.processConfLoc,
		Concurrency:         settings.Concurrency,
		TitleThreshold:      settings.TitleThreshold,
	}
	fixerOpts := []fixer.Option{
		fixer.WithLogger(logger),
		fixer.WithOutcomeHandler(func(o fixer.Outcome) { reportOutcome(status, o) }),
	}
	if flags.interactive {
		fixerOpts = append(fixerOpts, fixer.WithConfirmer(newPromptConfirmer(stdin, stderr, len(file.Entries))))
	}

	outcomes, err := fixer.New(client.Lookup, opts, fixerOpts...).Run(ctx, file.Entries)
	if err != nil {
		return fmt.Errorf("fixing %s: %w", input, err)
	}

	for i, o := range outcomes {
		file.Entries[i] = o.Entry
	}
	if err := writeBibliography(outPath, file, writeOptions(flags)); err != nil {
		return err
	}
	status.Printf(logging.StatusInfo, "wrote %d entries to %s", len(file.Entries), outPath)

	summary := fixer.Summarize(outcomes)
	if flags.jsonOutput {
		if err := outputJSON(stdout, buildReport(inPath, outPath, summary, outcomes)); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(stdout, renderSummary(summary))
	}

	attempted := summary.Total - summary.Skipped
	if attempted > 0 && summary.LookupErrors == attempted {
		return withExitCode(ExitLookupError, fmt.Errorf("all %d lookups failed", attempted))
	}
	return nil
}

// loadSettings resolves configuration and applies the command-line overrides.
func loadSettings(flags cliFlags) (config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return settings, err
	}
	if flags.concurrency > 0 {
		settings.Concurrency = flags.concurrency
	}
	if flags.logLevel != "" {
		settings.LogLevel = strings.ToLower(flags.logLevel)
	}
	return settings, settings.Validate()
}

func readBibliography(path string) (*bibtex.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	file, err := bibtex.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return file, nil
}

// outputPath returns the explicit output path, or <input>.fixed.bib.
func outputPath(input, out string) string {
	if out != "" {
		return config.ExpandPath(out)
	}
	return strings.TrimSuffix(input, ".bib") + ".fixed.bib"
}

func writeOptions(flags cliFlags) bibtex.WriteOptions {
	opts := bibtex.FormattedOptions()
	if flags.noFormatting {
		opts = bibtex.WriteOptions{}
	}
	opts.SortBy = flags.sortBy
	return opts
}

// writeBibliography writes file to path, creating parent directories. The
// content goes to a temporary sibling that is renamed into place.
func writeBibliography(path string, file *bibtex.File, opts bibtex.WriteOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("creating output: %w", err)
	}
	if err := bibtex.Write(tmp, file, opts); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
